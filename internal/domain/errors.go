package domain

import "errors"

// Sentinel errors for the application. The HTTP and WebSocket layers map
// these to status codes / error events in one place.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrUnauthorized  = errors.New("unauthorized access")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("resource already exists")
	ErrInvalidTarget = errors.New("action cannot target yourself")
	ErrValidation    = errors.New("invalid input")
	ErrInternal      = errors.New("internal server error")
)
