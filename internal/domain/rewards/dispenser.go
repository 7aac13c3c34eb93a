package rewards

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/ranks/internal/domain/tiers"
	"github.com/okian/ranks/pkg/logger"
	"github.com/okian/ranks/pkg/metrics"
)

// Granter applies rewards in the game world.
type Granter interface {
	GrantItem(ctx context.Context, playerID string, item Item) error
	ApplyEffect(ctx context.Context, playerID string, effect Effect) error
}

// Messenger sends a direct message to a player.
type Messenger interface {
	SendMessage(ctx context.Context, playerID, text string) error
}

// Outcome reports what a dispense call handed out.
type Outcome struct {
	Granted []string
	Failed  int
}

// Rewarded reports whether anything was granted.
func (o Outcome) Rewarded() bool { return len(o.Granted) > 0 }

// Dispenser hands out catalog rewards. It never returns an error: every grant
// failure is logged and counted, and the caller carries on.
type Dispenser struct {
	catalog   *Catalog
	granter   Granter
	messenger Messenger
	logger    logger.Logger
}

// NewDispenser builds a dispenser over catalog.
func NewDispenser(catalog *Catalog, granter Granter, messenger Messenger, log logger.Logger) *Dispenser {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Dispenser{catalog: catalog, granter: granter, messenger: messenger, logger: log}
}

// Dispense grants the reward mapped to (stat, label). Unmapped pairs grant
// nothing and send nothing.
func (d *Dispenser) Dispense(ctx context.Context, playerID string, stat tiers.Stat, label string) Outcome {
	var out Outcome
	reward, ok := d.catalog.Lookup(stat, label)
	if !ok || reward.Empty() {
		return out
	}

	for _, it := range reward.Items {
		if err := d.granter.GrantItem(ctx, playerID, it); err != nil {
			d.failed(ctx, &out, playerID, stat, it.ID, err)
			continue
		}
		out.Granted = append(out.Granted, it.String())
		metrics.RecordRewardGranted(stat.String())
	}
	for _, ef := range reward.Effects {
		if err := d.granter.ApplyEffect(ctx, playerID, ef); err != nil {
			d.failed(ctx, &out, playerID, stat, ef.ID, err)
			continue
		}
		out.Granted = append(out.Granted, ef.String())
		metrics.RecordRewardGranted(stat.String())
	}

	if out.Rewarded() {
		msg := fmt.Sprintf("You reached %s and received: %s", label, strings.Join(out.Granted, ", "))
		if err := d.messenger.SendMessage(ctx, playerID, msg); err != nil {
			metrics.RecordNotifyFailure("reward_message")
			d.logger.Warn(ctx, "reward confirmation not delivered",
				logger.String("player", playerID),
				logger.Error(err),
			)
		}
	}
	return out
}

func (d *Dispenser) failed(ctx context.Context, out *Outcome, playerID string, stat tiers.Stat, what string, err error) {
	out.Failed++
	metrics.RecordRewardFailed(stat.String())
	metrics.RecordErrorByComponent("rewards", "grant_failed")
	d.logger.Warn(ctx, "reward grant failed",
		logger.String("player", playerID),
		logger.String("stat", stat.String()),
		logger.String("reward", what),
		logger.Error(err),
	)
}
