package service

import (
	"github.com/okian/ranks/internal/adapters/repository"
	"github.com/okian/ranks/internal/domain/progression"
	"github.com/okian/ranks/internal/domain/promotion"
	"github.com/okian/ranks/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithQueueSize sets the dispatch queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many game event ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore selects the durable sink opened on Start.
func WithStore(backend, path string) Option {
	return func(s *Service) {
		s.storeBackend = backend
		s.storePath = path
	}
}

// WithRepository uses an already opened sink instead of WithStore.
func WithRepository(r repository.Store) Option {
	return func(s *Service) { s.repo = r }
}

// WithHost replaces the websocket hub as the outbound collaborator.
func WithHost(h progression.Host) Option {
	return func(s *Service) { s.host = h }
}

// WithFirstRankPolicy sets the first-resolution policy.
func WithFirstRankPolicy(p promotion.Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithBackfillOnJoin toggles label backfill when a player joins.
func WithBackfillOnJoin(enabled bool) Option {
	return func(s *Service) { s.backfill = enabled }
}

// WithLeaderboardSize sets the default number of leaderboard rows.
func WithLeaderboardSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.leaderboardSize = n
		}
	}
}

// WithOperators lists the ids allowed to run administrative commands.
func WithOperators(ids []string) Option {
	return func(s *Service) { s.operators = append([]string(nil), ids...) }
}
