package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrPlayerNotFound = errors.New("player not found")
	ErrInvalidEvent   = errors.New("invalid game event")
	ErrTaskPanicked   = errors.New("dispatch task panicked")
)
