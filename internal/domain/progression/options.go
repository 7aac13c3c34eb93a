package progression

import (
	"github.com/okian/ranks/internal/domain/promotion"
	"github.com/okian/ranks/internal/domain/rewards"
	"github.com/okian/ranks/pkg/logger"
)

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy sets how a player's first resolution of a stat is treated.
func WithPolicy(p promotion.Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithBackfill controls whether OnPlayerJoin resolves stats that have a
// count but no stored label yet.
func WithBackfill(enabled bool) Option {
	return func(e *Engine) { e.backfill = enabled }
}

// WithLeaderboardSize sets the row count used when a caller asks for n <= 0.
func WithLeaderboardSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.leaderboardSize = n
		}
	}
}

// WithCatalog replaces the default reward catalog.
func WithCatalog(c *rewards.Catalog) Option {
	return func(e *Engine) { e.catalog = c }
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
