// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables on top of New().
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
)

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// First rank policies.
const (
	FirstRankSilent   = "silent"
	FirstRankAnnounce = "announce"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`
	// StoreBackend selects the durable sink: file or sqlite.
	StoreBackend string `koanf:"store_backend"`
	// StorePath is the JSON file or SQLite database path.
	StorePath string `koanf:"store_path"`
	// FirstRankPolicy decides whether a player's first resolved rank is
	// announced and rewarded (announce) or only recorded (silent).
	FirstRankPolicy string `koanf:"first_rank_policy"`
	// BackfillOnJoin resolves never-computed stats above zero on join.
	BackfillOnJoin bool `koanf:"backfill_on_join"`
	// LeaderboardSize is the default number of leaderboard rows.
	LeaderboardSize int `koanf:"leaderboard_size"`
	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
	// DispatchQueueSize bounds the number of pending core calls.
	DispatchQueueSize int `koanf:"dispatch_queue_size"`
	// DedupeSize bounds the game event idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`
	// Operators lists player ids holding admin permissions, comma separated.
	Operators string `koanf:"operators"`
	// AdminToken guards POST /reset and /recompute. Empty disables both.
	AdminToken string `koanf:"admin_token"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		StoreBackend:        BackendFile,
		StorePath:           "data/ranks.json",
		FirstRankPolicy:     FirstRankSilent,
		BackfillOnJoin:      true,
		LeaderboardSize:     5,
		MaxLeaderboardLimit: 50,
		DispatchQueueSize:   4096,
		DedupeSize:          100_000,
	}
}

// OperatorIDs splits Operators into trimmed, non-empty ids.
func (c *Config) OperatorIDs() []string {
	var out []string
	for _, id := range strings.Split(c.Operators, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.StoreBackend != BackendFile && c.StoreBackend != BackendSQLite:
		return fmt.Errorf("%w: unknown store_backend %q", ErrInvalidConfig, c.StoreBackend)
	case c.StorePath == "":
		return fmt.Errorf("%w: store_path must not be empty", ErrInvalidConfig)
	case c.FirstRankPolicy != FirstRankSilent && c.FirstRankPolicy != FirstRankAnnounce:
		return fmt.Errorf("%w: unknown first_rank_policy %q", ErrInvalidConfig, c.FirstRankPolicy)
	case c.LeaderboardSize < 1:
		return fmt.Errorf("%w: leaderboard_size must be positive", ErrInvalidConfig)
	case c.MaxLeaderboardLimit < c.LeaderboardSize:
		return fmt.Errorf("%w: max_leaderboard_limit below leaderboard_size", ErrInvalidConfig)
	case c.DispatchQueueSize < 1:
		return fmt.Errorf("%w: dispatch_queue_size must be positive", ErrInvalidConfig)
	}
	return nil
}
