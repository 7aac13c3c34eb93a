package ranks

import "errors"

// Sentinel kinds reported by durable sinks.
var (
	// ErrNoState means the sink holds no saved state yet.
	ErrNoState = errors.New("no saved rank state")
	// ErrCorrupt means saved state exists but could not be decoded.
	ErrCorrupt = errors.New("rank state corrupt")
)
