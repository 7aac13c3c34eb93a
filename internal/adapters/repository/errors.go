package repository

import "errors"

// Sentinel errors for rank state sinks.
var (
	ErrUnknownBackend = errors.New("unknown store backend")
	ErrEmptyPath      = errors.New("empty store path")
)
