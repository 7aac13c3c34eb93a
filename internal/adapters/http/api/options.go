package api

import "net/http"

type serverConfig struct {
	maxLimit   int
	adminToken string
	host       http.Handler
}

// Option configures a Server.
type Option func(*serverConfig)

// WithMaxLeaderboardLimit caps the limit query parameter.
func WithMaxLeaderboardLimit(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxLimit = n
		}
	}
}

// WithAdminToken enables the admin endpoints behind a shared token.
func WithAdminToken(token string) Option {
	return func(c *serverConfig) { c.adminToken = token }
}

// WithHostHandler mounts the host websocket at /host.
func WithHostHandler(h http.Handler) Option {
	return func(c *serverConfig) { c.host = h }
}
