// Package promotion detects rank changes by comparing a player's cached label
// for a stat with a fresh resolution.
package promotion

import (
	"fmt"
	"strings"

	"github.com/okian/ranks/internal/domain/ranks"
	"github.com/okian/ranks/internal/domain/tiers"
)

// Kind classifies an evaluation.
type Kind int

// Evaluation kinds.
const (
	Unchanged Kind = iota
	Promoted
)

func (k Kind) String() string {
	if k == Promoted {
		return "promoted"
	}
	return "unchanged"
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Result is the outcome of one evaluation. From is empty when the stat had
// never been resolved for the player.
type Result struct {
	Kind Kind       `json:"kind"`
	Stat tiers.Stat `json:"stat"`
	From string     `json:"from"`
	To   string     `json:"to"`
}

// First reports a promotion out of the unset state.
func (r Result) First() bool { return r.Kind == Promoted && r.From == "" }

func (r Result) String() string {
	if r.Kind != Promoted {
		return fmt.Sprintf("%s unchanged at %s", r.Stat, r.To)
	}
	from := r.From
	if from == "" {
		from = "unset"
	}
	return fmt.Sprintf("%s %s -> %s", r.Stat, from, r.To)
}

// Evaluate compares the cached label for stat with newLabel. Any difference,
// including unset to a label, is a promotion.
func Evaluate(r *ranks.Record, stat tiers.Stat, newLabel string) Result {
	old, _ := r.Label(stat)
	res := Result{Kind: Unchanged, Stat: stat, From: old, To: newLabel}
	if old != newLabel {
		res.Kind = Promoted
	}
	return res
}

// Apply commits a promoted result to the record.
func Apply(r *ranks.Record, res Result) {
	if res.Kind != Promoted {
		return
	}
	r.Achieved[res.Stat] = res.To
}

// Policy decides whether a first-ever resolution is announced and rewarded.
type Policy int

// Policies.
const (
	// FirstSilent records the first label without rewards or notices.
	FirstSilent Policy = iota
	// FirstAnnounce treats the first label like any other promotion.
	FirstAnnounce
)

// ParsePolicy maps "silent" and "announce" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "silent":
		return FirstSilent, nil
	case "announce":
		return FirstAnnounce, nil
	}
	return FirstSilent, fmt.Errorf("unknown first rank policy %q", s)
}

// Celebrate reports whether res should trigger rewards and announcements.
func (p Policy) Celebrate(res Result) bool {
	if res.Kind != Promoted {
		return false
	}
	return !res.First() || p == FirstAnnounce
}
