package engine

import "errors"

var (
	ErrInvalidDimension = errors.New("invalid grid dimension")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrInvalidWeights   = errors.New("invalid tile weights")
	ErrInputQueueFull   = errors.New("input queue full")
)
