package service

import "errors"

// Failures returned by the link and user stores. Handlers map them to responses.
var (
	ErrUnauthorized      = errors.New("authentication required")
	ErrForbidden         = errors.New("caller does not own this link")
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("email already registered")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrIDGenerationMax   = errors.New("failed to generate unique ID after max attempts")
)
