// Package service owns the progression engine and runs every call on a
// single dispatch loop.
package service

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/okian/ranks/internal/adapters/command"
	"github.com/okian/ranks/internal/adapters/hostlink"
	"github.com/okian/ranks/internal/adapters/mq/queue"
	"github.com/okian/ranks/internal/adapters/mq/worker"
	"github.com/okian/ranks/internal/adapters/repository"
	"github.com/okian/ranks/internal/adapters/scoreboard"
	"github.com/okian/ranks/internal/domain/dedupe"
	"github.com/okian/ranks/internal/domain/leaderboard"
	"github.com/okian/ranks/internal/domain/progression"
	"github.com/okian/ranks/internal/domain/promotion"
	"github.com/okian/ranks/internal/domain/ranks"
	"github.com/okian/ranks/internal/domain/tiers"
	"github.com/okian/ranks/pkg/logger"
	"github.com/okian/ranks/pkg/metrics"
)

// PlayerView is the public shape of one player's state.
type PlayerView struct {
	ID       string            `json:"player_id"`
	Name     string            `json:"player_name,omitempty"`
	Selected string            `json:"selected"`
	Label    string            `json:"label"`
	Ranks    map[string]string `json:"ranks"`
	Counts   map[string]int    `json:"counts"`
}

// Service implements the API dependencies for the rank system.
type Service struct {
	mu sync.RWMutex

	// Configuration
	queueSize       int
	dedupeSize      int
	storeBackend    string
	storePath       string
	policy          promotion.Policy
	backfill        bool
	leaderboardSize int
	operators       []string

	// Components
	repo    repository.Store
	ownRepo bool
	host    progression.Host
	hub     *hostlink.Hub
	board   *scoreboard.Board
	engine  *progression.Engine
	deduper dedupe.Deduper
	queue   *queue.InMemoryQueue
	worker  *worker.Worker
	router  *command.Router

	// State
	started   bool
	startedAt time.Time
	loaded    ranks.LoadOutcome

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:       4096,
		dedupeSize:      dedupe.DefaultMaxSize,
		storeBackend:    repository.BackendFile,
		storePath:       "data/ranks.json",
		policy:          promotion.FirstSilent,
		backfill:        true,
		leaderboardSize: leaderboard.DefaultSize,
		logger:          logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.board = scoreboard.New()
	if s.host == nil {
		s.hub = hostlink.NewHub(hostlink.WithLogger(s.logger.Named("hostlink")))
		s.host = s.hub
	}
	return s
}

// Start opens the store, loads rank state and starts the dispatch loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting rank service...")

	if s.repo == nil {
		repo, err := repository.Open(s.storeBackend, s.storePath)
		if err != nil {
			return fmt.Errorf("open rank store: %w", err)
		}
		s.repo = repo
		s.ownRepo = true
	}

	s.engine = progression.New(s.repo, s.host, s.board,
		progression.WithPolicy(s.policy),
		progression.WithBackfill(s.backfill),
		progression.WithLeaderboardSize(s.leaderboardSize),
		progression.WithLogger(s.logger.Named("engine")),
	)
	s.loaded = s.engine.Load(ctx)

	s.deduper = dedupe.New(dedupe.WithMaxSize(s.dedupeSize))
	s.router = command.NewRouter(s.engine, command.NewStaticPermissions(s.operators), s.logger.Named("command"))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.worker = worker.New(s.queue, worker.WithLogger(s.logger))
	go s.worker.Run(context.Background())

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "rank service started",
		logger.String("store", s.storeBackend),
		logger.String("load", string(s.loaded)),
		logger.Int("players", s.engine.Tracked()),
		logger.Int("queueSize", s.queueSize),
	)
	return nil
}

// Stop drains the dispatch loop and saves rank state.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping rank service...")

	_ = s.queue.Close()
	var firstErr error
	if err := s.worker.Shutdown(ctx); err != nil {
		// The loop still owns the engine; saving here would race it.
		s.logger.Warn(ctx, "dispatch loop still busy, final save skipped", logger.Error(err))
		firstErr = err
	} else if err := s.engine.Save(ctx); err != nil {
		firstErr = err
	}
	if s.hub != nil {
		_ = s.hub.Close()
	}
	if s.ownRepo {
		if err := s.repo.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.repo = nil
		s.ownRepo = false
	}

	s.started = false
	s.logger.Info(ctx, "rank service stopped")
	return firstErr
}

// IsStarted reports whether Start has completed.
func (s *Service) IsStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// HostHandler serves the websocket hosts attach to. It is nil when a custom
// host was injected.
func (s *Service) HostHandler() http.Handler {
	if s.hub == nil {
		return nil
	}
	return s.hub.Handler()
}

// do runs fn on the dispatch loop and waits for it. A caller whose context
// ends stops waiting, but an enqueued task still runs.
func (s *Service) do(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	s.mu.RLock()
	if !s.started {
		s.mu.RUnlock()
		return ErrNotStarted
	}
	q := s.queue
	s.mu.RUnlock()

	done := make(chan error, 1)
	err := q.Enqueue(ctx, queue.Task{Name: name, Run: func(taskCtx context.Context) {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%s: %w: %v", name, ErrTaskPanicked, r)
				panic(r)
			}
		}()
		done <- fn(taskCtx)
	}})
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RecordProgress sets a raw counter and resolves it.
func (s *Service) RecordProgress(ctx context.Context, playerID, playerName string, stat tiers.Stat, count int) (promotion.Result, error) {
	var res promotion.Result
	err := s.do(ctx, "record_progress", func(ctx context.Context) error {
		if !stat.Valid() {
			return fmt.Errorf("record progress: %w", tiers.ErrUnknownStat)
		}
		if strings.TrimSpace(playerID) == "" {
			return progression.ErrInvalidPlayer
		}
		s.board.Set(playerID, playerName, stat, count)
		var err error
		res, err = s.engine.RecordProgress(ctx, playerID, playerName, stat, s.board.Count(playerID, stat))
		return err
	})
	return res, err
}

// Join registers a player with their current counters and renders their tag.
func (s *Service) Join(ctx context.Context, playerID, playerName string, counts map[tiers.Stat]int) (string, error) {
	var label string
	err := s.do(ctx, "join", func(ctx context.Context) error {
		if strings.TrimSpace(playerID) == "" {
			return progression.ErrInvalidPlayer
		}
		s.board.SetAll(playerID, playerName, counts)
		label = s.engine.OnPlayerJoin(ctx, playerID, playerName, s.board.Counts(playerID))
		return nil
	})
	return label, err
}

// HandleEvent counts a host game event once per event id.
func (s *Service) HandleEvent(ctx context.Context, e GameEvent) (EventResult, error) {
	if strings.TrimSpace(e.PlayerID) == "" || e.Type == "" {
		metrics.RecordGameEvent(e.Type, "invalid")
		return EventResult{}, ErrInvalidEvent
	}
	stat, counts := statFor(e)
	if !counts {
		metrics.RecordGameEvent(e.Type, OutcomeIgnored)
		return EventResult{Outcome: OutcomeIgnored}, nil
	}

	// Dedupe runs on the loop together with the count it guards.
	out := EventResult{Stat: stat.String()}
	err := s.do(ctx, "game_event", func(ctx context.Context) error {
		if s.deduper.SeenAndRecord(ctx, e.EventID) {
			out.Outcome = OutcomeDuplicate
			return nil
		}
		count := s.board.Add(e.PlayerID, e.PlayerName, stat, 1)
		res, err := s.engine.RecordProgress(ctx, e.PlayerID, e.PlayerName, stat, count)
		if err != nil {
			s.board.Add(e.PlayerID, e.PlayerName, stat, -1)
			s.deduper.Unrecord(ctx, e.EventID)
			return err
		}
		out.Outcome, out.Count = OutcomeCounted, count
		if res.Kind == promotion.Promoted {
			out.Promotion = &res
		}
		return nil
	})
	if err != nil {
		metrics.RecordGameEvent(e.Type, "failed")
		return EventResult{}, err
	}
	metrics.RecordGameEvent(e.Type, out.Outcome)
	return out, nil
}

// SelectStat changes the stat a player displays.
func (s *Service) SelectStat(ctx context.Context, playerID, playerName string, stat tiers.Stat) (string, error) {
	var label string
	err := s.do(ctx, "select", func(ctx context.Context) error {
		var err error
		label, err = s.engine.SetSelectedStat(ctx, playerID, playerName, stat)
		return err
	})
	return label, err
}

// ChatPrefix returns a player's chat label with the count of their selected stat.
func (s *Service) ChatPrefix(ctx context.Context, playerID string) (string, int, error) {
	var label string
	var count int
	err := s.do(ctx, "chat_prefix", func(context.Context) error {
		count = s.board.Count(playerID, s.engine.Selected(playerID))
		label = s.engine.ComposeChatPrefix(playerID, count)
		return nil
	})
	return label, count, err
}

// Leaderboard returns the top rows for stat. A non-positive limit uses the
// configured size.
func (s *Service) Leaderboard(ctx context.Context, stat tiers.Stat, limit int) ([]leaderboard.Row, error) {
	var rows []leaderboard.Row
	err := s.do(ctx, "leaderboard", func(context.Context) error {
		if !stat.Valid() {
			return fmt.Errorf("leaderboard: %w", tiers.ErrUnknownStat)
		}
		rows = s.engine.LeaderboardTop(stat, nil, limit)
		return nil
	})
	return rows, err
}

// Player returns what is known about one player.
func (s *Service) Player(ctx context.Context, playerID string) (PlayerView, error) {
	var view PlayerView
	err := s.do(ctx, "player", func(context.Context) error {
		rec, ok := s.engine.Record(playerID)
		if !ok && s.board.Name(playerID) == "" && len(s.board.Counts(playerID)) == 0 {
			return ErrPlayerNotFound
		}
		if rec == nil {
			rec = ranks.NewRecord()
		}
		counts := s.board.Counts(playerID)
		view = PlayerView{
			ID:       ranks.NormalizeID(playerID),
			Name:     s.board.Name(playerID),
			Selected: rec.Selected.String(),
			Label:    s.engine.ComposeChatPrefix(playerID, counts[rec.Selected]),
			Ranks:    make(map[string]string, len(rec.Achieved)),
			Counts:   make(map[string]int, len(counts)),
		}
		for st, l := range rec.Achieved {
			view.Ranks[st.String()] = l
		}
		for st, n := range counts {
			view.Counts[st.String()] = n
		}
		return nil
	})
	return view, err
}

// ExecuteCommand runs a command line for sender.
func (s *Service) ExecuteCommand(ctx context.Context, sender command.Sender, line string) (command.Result, error) {
	var res command.Result
	err := s.do(ctx, "command", func(ctx context.Context) error {
		res = s.router.Execute(ctx, sender, line)
		return nil
	})
	return res, err
}

// Reset clears every rank and saves the empty state.
func (s *Service) Reset(ctx context.Context) error {
	return s.do(ctx, "reset", func(ctx context.Context) error { return s.engine.ResetAll(ctx) })
}

// Recompute re-resolves every known player and returns the promotion count.
func (s *Service) Recompute(ctx context.Context) (int, error) {
	var n int
	err := s.do(ctx, "recompute", func(ctx context.Context) error {
		var err error
		n, err = s.engine.RecomputeAll(ctx)
		return err
	})
	return n, err
}

// Save writes rank state now.
func (s *Service) Save(ctx context.Context) error {
	return s.do(ctx, "save", func(ctx context.Context) error { return s.engine.Save(ctx) })
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":      s.started,
		"queueSize":    s.queueSize,
		"dedupeSize":   s.dedupeSize,
		"storeBackend": s.storeBackend,
		"players":      s.board.Len(),
	}
	if s.hub != nil {
		stats["hostConnections"] = s.hub.Connections()
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	metrics.UpdateSystemMemoryUsage(mem.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if s.started {
		stats["uptimeSeconds"] = int(time.Since(s.startedAt).Seconds())
		stats["queueLength"] = s.queue.Len()
		stats["tasksProcessed"] = s.worker.Processed()
		stats["dedupeEntries"] = s.deduper.Size()
		stats["lastLoad"] = string(s.loaded)
	}
	return stats
}
