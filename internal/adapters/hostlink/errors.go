package hostlink

import "errors"

// Sentinel errors for outbound delivery.
var (
	ErrNoHost   = errors.New("no host attached")
	ErrHostBusy = errors.New("host send buffer full")
	ErrClosed   = errors.New("host link closed")
)
