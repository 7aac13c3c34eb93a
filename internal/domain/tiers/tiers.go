// Package tiers holds the fixed rank ladders for every tracked stat and
// resolves a raw count to its rank label.
package tiers

import (
	"fmt"
	"strings"
)

// Stat is one of the tracked player counters.
type Stat int

// Tracked stats, in configured order. MobKills is the default selection.
const (
	MobKills Stat = iota
	PlayerKills
	OresMined
	statCount
)

// Tier is a (threshold, label) pair on a stat's ladder.
type Tier struct {
	Threshold int
	Label     string
}

// Table is an ordered ladder of tiers with strictly increasing thresholds,
// starting at zero.
type Table []Tier

type statInfo struct {
	name    string
	display string
	table   Table
}

var stats = [statCount]statInfo{
	MobKills: {
		name:    "mob_kills",
		display: "Mob Kills",
		table:   Table{{0, "Hunter"}, {10, "Slayer"}, {50, "Beastmaster"}},
	},
	PlayerKills: {
		name:    "player_kills",
		display: "Player Kills",
		table:   Table{{0, "Fighter"}, {10, "Warrior"}, {30, "Champion"}},
	},
	OresMined: {
		name:    "ores_mined",
		display: "Ores Mined",
		table:   Table{{0, "Miner"}, {50, "Excavator"}, {150, "Prospector"}},
	},
}

// All returns every stat in configured order.
func All() []Stat {
	return []Stat{MobKills, PlayerKills, OresMined}
}

// Default is the stat shown for players who never chose one.
func Default() Stat { return MobKills }

// Valid reports whether s is a configured stat.
func (s Stat) Valid() bool { return s >= 0 && s < statCount }

// String returns the stable stat name, e.g. "mob_kills".
func (s Stat) String() string {
	if !s.Valid() {
		return fmt.Sprintf("stat(%d)", int(s))
	}
	return stats[s].name
}

// DisplayName returns the human readable name, e.g. "Mob Kills".
func (s Stat) DisplayName() string {
	if !s.Valid() {
		return s.String()
	}
	return stats[s].display
}

// MarshalText encodes the stat by name.
func (s Stat) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStat, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a stat name.
func (s *Stat) UnmarshalText(b []byte) error {
	parsed, err := ParseStat(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStat maps a stat name or display name to its Stat.
func ParseStat(name string) (Stat, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, s := range All() {
		if n == stats[s].name || n == strings.ToLower(stats[s].display) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStat, name)
}

// TableFor returns a copy of the ladder for s.
func TableFor(s Stat) (Table, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStat, int(s))
	}
	return append(Table(nil), stats[s].table...), nil
}

// Resolve returns the label of the highest tier whose threshold is at most
// count. Negative counts resolve like zero.
func Resolve(s Stat, count int) (string, error) {
	if !s.Valid() {
		return "", fmt.Errorf("%w: %d", ErrUnknownStat, int(s))
	}
	return stats[s].table.resolve(count), nil
}

// MustResolve is Resolve for stats known to be valid.
func MustResolve(s Stat, count int) string {
	label, err := Resolve(s, count)
	if err != nil {
		panic(err)
	}
	return label
}

func (t Table) resolve(count int) string {
	label := t[0].Label
	for _, tier := range t[1:] {
		if count < tier.Threshold {
			break
		}
		label = tier.Label
	}
	return label
}

// TierIndex returns the ladder position of label in s, or -1.
func TierIndex(s Stat, label string) int {
	if !s.Valid() {
		return -1
	}
	for i, tier := range stats[s].table {
		if tier.Label == label {
			return i
		}
	}
	return -1
}

// HasLabel reports whether label belongs to the ladder of s.
func HasLabel(s Stat, label string) bool {
	return TierIndex(s, label) >= 0
}

// BaseLabel returns the tier-zero label of s.
func BaseLabel(s Stat) string {
	if !s.Valid() {
		return ""
	}
	return stats[s].table[0].Label
}
