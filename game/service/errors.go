package service

import "errors"

// Errors shared with the session and config packages, so transports can
// classify failures with errors.Is without importing the implementations.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrConfigNotFound  = errors.New("configuration not found")
	ErrInvalidConfig   = errors.New("invalid configuration")
)
