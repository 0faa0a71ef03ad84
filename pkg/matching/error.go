package matching

import "errors"

var (
	ErrUnknownSymbol    = errors.New("unknown symbol")
	ErrInvalidOrder     = errors.New("invalid order")
	ErrEngineStopped    = errors.New("matching engine stopped")
	ErrNotInitialized   = errors.New("matching engine not running")
	ErrSettlementFailed = errors.New("trade settlement failed")

	errAlreadyInitialized = errors.New("matching engine already initialized")
	errAlreadyStarted     = errors.New("matching engine already started")
)
