package orderbook

import "errors"

var (
	ErrInvalidOrderPrice = errors.New("invalid order price")
	ErrDuplicateOrder    = errors.New("order already in book")

	// ErrInvariant marks a bookkeeping bug inside a side, never a user error.
	ErrInvariant = errors.New("order book invariant violated")
)
