package service

import (
	"strings"

	"github.com/okian/ranks/internal/domain/promotion"
	"github.com/okian/ranks/internal/domain/tiers"
)

// Game event types sent by the host.
const (
	EventMobKilled    = "mob_killed"
	EventPlayerKilled = "player_killed"
	EventBlockBroken  = "block_broken"
)

// Event outcomes.
const (
	OutcomeCounted   = "counted"
	OutcomeIgnored   = "ignored"
	OutcomeDuplicate = "duplicate"
)

var ores = map[string]struct{}{
	"minecraft:coal_ore":        {},
	"minecraft:iron_ore":        {},
	"minecraft:copper_ore":      {},
	"minecraft:gold_ore":        {},
	"minecraft:diamond_ore":     {},
	"minecraft:emerald_ore":     {},
	"minecraft:redstone_ore":    {},
	"minecraft:lapis_ore":       {},
	"minecraft:nether_gold_ore": {},
	"minecraft:ancient_debris":  {},
}

// IsOre reports whether a block type counts toward ores mined.
func IsOre(blockType string) bool {
	_, ok := ores[strings.ToLower(strings.TrimSpace(blockType))]
	return ok
}

// GameEvent is a host event about a player action.
type GameEvent struct {
	EventID        string `json:"event_id"`
	Type           string `json:"type"`
	PlayerID       string `json:"player_id"`
	PlayerName     string `json:"player_name"`
	VictimIsPlayer bool   `json:"victim_is_player,omitempty"`
	BlockType      string `json:"block_type,omitempty"`
}

// EventResult reports what an event did.
type EventResult struct {
	Outcome   string            `json:"outcome"`
	Stat      string            `json:"stat,omitempty"`
	Count     int               `json:"count,omitempty"`
	Promotion *promotion.Result `json:"promotion,omitempty"`
}

// statFor maps an event to the stat it increments. ok is false for events
// that count toward nothing.
func statFor(e GameEvent) (tiers.Stat, bool) {
	switch e.Type {
	case EventMobKilled:
		return tiers.MobKills, !e.VictimIsPlayer
	case EventPlayerKilled:
		return tiers.PlayerKills, true
	case EventBlockBroken:
		return tiers.OresMined, IsOre(e.BlockType)
	}
	return 0, false
}
