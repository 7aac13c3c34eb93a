// Package progression turns raw stat counts into ranks, rewards and
// announcements. An Engine is not safe for concurrent use; callers run every
// method on one dispatch goroutine.
package progression

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/ranks/internal/domain/display"
	"github.com/okian/ranks/internal/domain/leaderboard"
	"github.com/okian/ranks/internal/domain/promotion"
	"github.com/okian/ranks/internal/domain/ranks"
	"github.com/okian/ranks/internal/domain/rewards"
	"github.com/okian/ranks/internal/domain/tiers"
	"github.com/okian/ranks/pkg/logger"
	"github.com/okian/ranks/pkg/metrics"
)

// Notifier delivers notices to the hosting environment.
type Notifier interface {
	SendMessage(ctx context.Context, playerID, text string) error
	Broadcast(ctx context.Context, text string) error
	SendTitle(ctx context.Context, playerID, title, subtitle string) error
	SetNameTag(ctx context.Context, playerID, tag string) error
}

// Host is everything the engine asks of the hosting environment.
type Host interface {
	rewards.Granter
	Notifier
}

// Counters reads raw stat counts owned by the host.
type Counters interface {
	Count(playerID string, stat tiers.Stat) int
	Players() []leaderboard.Player
}

// TitleText is the headline of the promotion title notice.
const TitleText = "Rank Up!"

// Engine is the synchronous progression core.
type Engine struct {
	store           *ranks.Store
	repo            ranks.Repository
	host            Host
	counters        Counters
	catalog         *rewards.Catalog
	dispenser       *rewards.Dispenser
	policy          promotion.Policy
	backfill        bool
	leaderboardSize int
	logger          logger.Logger
}

// New builds an engine persisting to repo and talking to host.
func New(repo ranks.Repository, host Host, counters Counters, opts ...Option) *Engine {
	e := &Engine{
		store:           ranks.NewStore(),
		repo:            repo,
		host:            host,
		counters:        counters,
		policy:          promotion.FirstSilent,
		backfill:        true,
		leaderboardSize: leaderboard.DefaultSize,
		logger:          logger.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.dispenser = rewards.NewDispenser(e.catalog, host, host, e.logger.Named("rewards"))
	return e
}

// RecordProgress resolves stat at count for a player and, on a label change,
// commits it before any reward or notice goes out.
func (e *Engine) RecordProgress(ctx context.Context, playerID, playerName string, stat tiers.Stat, count int) (promotion.Result, error) {
	if strings.TrimSpace(playerID) == "" {
		return promotion.Result{}, ErrInvalidPlayer
	}
	label, err := tiers.Resolve(stat, count)
	if err != nil {
		return promotion.Result{}, fmt.Errorf("record progress: %w", err)
	}
	metrics.RecordProgress(stat.String())

	r, created := e.store.Ensure(playerID)
	if created {
		metrics.UpdateTrackedPlayers(e.store.Len())
	}
	res := promotion.Evaluate(r, stat, label)
	if res.Kind == promotion.Unchanged {
		return res, nil
	}
	promotion.Apply(r, res)

	if e.policy.Celebrate(res) {
		metrics.RecordPromotion(stat.String(), label)
		e.logger.Info(ctx, "player promoted",
			logger.String("player", playerID),
			logger.String("stat", stat.String()),
			logger.String("from", res.From),
			logger.String("to", res.To),
			logger.Int("count", count),
		)
		e.dispenser.Dispense(ctx, playerID, stat, label)
		e.announce(ctx, playerID, playerName, stat, label)
	}
	if r.Selected == stat {
		e.renderTag(ctx, playerID, playerName, display.CurrentDisplayLabel(r, count))
	}
	return res, nil
}

// OnPlayerJoin makes sure the player has a record, optionally back-fills
// labels for stats that already have progress, and renders the name tag.
// It returns the rendered label.
func (e *Engine) OnPlayerJoin(ctx context.Context, playerID, playerName string, counts map[tiers.Stat]int) string {
	r, created := e.store.Ensure(playerID)
	if created {
		metrics.UpdateTrackedPlayers(e.store.Len())
	}
	if e.backfill {
		for _, s := range tiers.All() {
			if counts[s] <= 0 {
				continue
			}
			if _, ok := r.Label(s); ok {
				continue
			}
			r.Achieved[s] = tiers.MustResolve(s, counts[s])
		}
	}
	label := display.CurrentDisplayLabel(r, counts[r.Selected])
	e.renderTag(ctx, playerID, playerName, label)
	return label
}

// ComposeChatPrefix returns the label to prefix a player's chat with.
func (e *Engine) ComposeChatPrefix(playerID string, selectedCount int) string {
	r, _ := e.store.Get(playerID)
	return display.CurrentDisplayLabel(r, selectedCount)
}

// Selected returns the stat a player displays, or the default when the player
// has no record.
func (e *Engine) Selected(playerID string) tiers.Stat {
	if r, ok := e.store.Get(playerID); ok {
		return r.Selected
	}
	return tiers.Default()
}

// SetSelectedStat switches the displayed stat and re-renders the name tag.
func (e *Engine) SetSelectedStat(ctx context.Context, playerID, playerName string, stat tiers.Stat) (string, error) {
	if strings.TrimSpace(playerID) == "" {
		return "", ErrInvalidPlayer
	}
	if !stat.Valid() {
		return "", fmt.Errorf("select stat: %w", tiers.ErrUnknownStat)
	}
	r, created := e.store.Ensure(playerID)
	if created {
		metrics.UpdateTrackedPlayers(e.store.Len())
	}
	display.SetSelectedStat(r, stat)
	label := display.CurrentDisplayLabel(r, e.counters.Count(playerID, stat))
	e.renderTag(ctx, playerID, playerName, label)
	return label, nil
}

// Record returns a copy of a player's record.
func (e *Engine) Record(playerID string) (*ranks.Record, bool) {
	r, ok := e.store.Get(playerID)
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

// Tracked returns the number of players with a record.
func (e *Engine) Tracked() int { return e.store.Len() }

// LeaderboardTop ranks players by stat. A nil players slice reads every known
// player from the counters.
func (e *Engine) LeaderboardTop(stat tiers.Stat, players []leaderboard.Player, n int) []leaderboard.Row {
	if players == nil {
		players = e.counters.Players()
	}
	if n <= 0 {
		n = e.leaderboardSize
	}
	metrics.RecordLeaderboardQuery(stat.String())
	return leaderboard.Top(stat, players, n, func(id string) string {
		r, _ := e.store.Get(id)
		return display.LabelFor(r)
	})
}

// ResetAll clears all rank state and saves the empty store immediately.
func (e *Engine) ResetAll(ctx context.Context) error {
	e.store.Reset()
	metrics.UpdateTrackedPlayers(0)
	e.logger.Info(ctx, "rank state reset")
	return e.Save(ctx)
}

// RecomputeAll runs every known player's counts through RecordProgress, so
// any promotion that was missed is committed and rewarded. Stats with no
// progress and no cached label are skipped. It returns the number of label
// changes.
func (e *Engine) RecomputeAll(ctx context.Context) (int, error) {
	promoted := 0
	for _, p := range e.counters.Players() {
		r, _ := e.store.Get(p.ID)
		for _, s := range tiers.All() {
			if _, cached := r.Label(s); p.Counts[s] <= 0 && !cached {
				continue
			}
			res, err := e.RecordProgress(ctx, p.ID, p.Name, s, p.Counts[s])
			if err != nil {
				return promoted, err
			}
			if res.Kind == promotion.Promoted {
				promoted++
			}
		}
	}
	e.logger.Info(ctx, "ranks recomputed", logger.Int("promotions", promoted))
	return promoted, nil
}

// Load hydrates the store from the repository. Failures leave the store empty
// and are only logged.
func (e *Engine) Load(ctx context.Context) ranks.LoadOutcome {
	out := e.store.Load(ctx, e.repo, e.logger.Named("store"))
	metrics.RecordStoreLoad(string(out))
	metrics.UpdateTrackedPlayers(e.store.Len())
	return out
}

// Save writes the full store to the repository.
func (e *Engine) Save(ctx context.Context) error {
	start := time.Now()
	err := e.store.Save(ctx, e.repo)
	ms := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		metrics.RecordStoreSave("error", ms)
		metrics.RecordErrorByComponent("store", "save_failed")
		e.logger.Warn(ctx, "saving rank state failed", logger.Error(err))
		return err
	}
	metrics.RecordStoreSave("ok", ms)
	metrics.UpdateStoreSaveLastUnix(float64(time.Now().Unix()))
	e.logger.Debug(ctx, "rank state saved", logger.Int("players", e.store.Len()))
	return nil
}

func (e *Engine) announce(ctx context.Context, playerID, playerName string, stat tiers.Stat, label string) {
	name := playerName
	if name == "" {
		name = playerID
	}
	text := fmt.Sprintf("%s has reached %s in %s!", name, label, stat.DisplayName())
	if err := e.host.Broadcast(ctx, text); err != nil {
		e.notifyFailed(ctx, "broadcast", playerID, err)
	}
	if err := e.host.SendTitle(ctx, playerID, TitleText, label); err != nil {
		e.notifyFailed(ctx, "title", playerID, err)
	}
}

func (e *Engine) renderTag(ctx context.Context, playerID, playerName, label string) {
	if err := e.host.SetNameTag(ctx, playerID, display.NameTag(label, playerName)); err != nil {
		e.notifyFailed(ctx, "name_tag", playerID, err)
	}
}

func (e *Engine) notifyFailed(ctx context.Context, kind, playerID string, err error) {
	metrics.RecordNotifyFailure(kind)
	e.logger.Warn(ctx, "notice not delivered",
		logger.String("kind", kind),
		logger.String("player", playerID),
		logger.Error(err),
	)
}
