package common

import "errors"

var (
	ErrInvalidInstrument    = errors.New("invalid instrument")
	ErrMismatchedInstrument = errors.New("mismatched instrument")
	ErrDivisionByZero       = errors.New("division by zero")
	ErrInvalidPair          = errors.New("invalid trading pair")
	ErrInvalidOrder         = errors.New("invalid order")
)
