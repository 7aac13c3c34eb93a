package hostlink

import (
	"time"

	"github.com/okian/ranks/pkg/logger"
)

// Option configures a Hub.
type Option func(*Hub)

// WithSendBuffer sets how many envelopes may wait per connection.
func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithWriteTimeout sets the per-message write deadline.
func WithWriteTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

// WithLogger sets the hub logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}
