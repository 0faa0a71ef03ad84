package oms

import "errors"

var (
	ErrValidation  = errors.New("invalid order")
	ErrUnknownUser = errors.New("unknown user")
)
