package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrCapacityExceeded      = errors.New("capacity exceeded")
	ErrConflict              = errors.New("conflicting state")
	ErrInsufficientPoints    = errors.New("insufficient points")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
