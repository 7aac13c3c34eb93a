// Package scoreboard keeps the raw per-player stat counters.
package scoreboard

import (
	"sync"

	"github.com/okian/ranks/internal/domain/leaderboard"
	"github.com/okian/ranks/internal/domain/ranks"
	"github.com/okian/ranks/internal/domain/tiers"
)

// Objective is a named counter column.
type Objective struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// Objectives lists one objective per stat.
func Objectives() []Objective {
	out := make([]Objective, 0, len(tiers.All()))
	for _, s := range tiers.All() {
		out = append(out, Objective{Name: s.String(), DisplayName: s.DisplayName()})
	}
	return out
}

type entry struct {
	id     string
	name   string
	counts map[tiers.Stat]int
}

// Board is an in-memory counter store. Players enumerate in the order they
// were first seen.
type Board struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
}

// New returns an empty board.
func New() *Board {
	return &Board{entries: make(map[string]*entry)}
}

func (b *Board) ensure(id, name string) *entry {
	key := ranks.NormalizeID(id)
	e, ok := b.entries[key]
	if !ok {
		e = &entry{id: key, counts: make(map[tiers.Stat]int)}
		b.entries[key] = e
		b.order = append(b.order, key)
	}
	if name != "" {
		e.name = name
	}
	return e
}

// Add increments a counter by delta and returns the new value. Counters never
// go below zero.
func (b *Board) Add(id, name string, stat tiers.Stat, delta int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	e := b.ensure(id, name)
	n := e.counts[stat] + delta
	if n < 0 {
		n = 0
	}
	e.counts[stat] = n
	return n
}

// Set overwrites a counter.
func (b *Board) Set(id, name string, stat tiers.Stat, value int) {
	if value < 0 {
		value = 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensure(id, name).counts[stat] = value
}

// SetAll overwrites every counter given in counts.
func (b *Board) SetAll(id, name string, counts map[tiers.Stat]int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e := b.ensure(id, name)
	for s, v := range counts {
		if v < 0 {
			v = 0
		}
		e.counts[s] = v
	}
}

// Count returns a counter, zero for unknown players.
func (b *Board) Count(id string, stat tiers.Stat) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if e, ok := b.entries[ranks.NormalizeID(id)]; ok {
		return e.counts[stat]
	}
	return 0
}

// Counts returns a copy of a player's counters.
func (b *Board) Counts(id string) map[tiers.Stat]int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[tiers.Stat]int, len(tiers.All()))
	if e, ok := b.entries[ranks.NormalizeID(id)]; ok {
		for s, v := range e.counts {
			out[s] = v
		}
	}
	return out
}

// Name returns the last known display name of a player.
func (b *Board) Name(id string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if e, ok := b.entries[ranks.NormalizeID(id)]; ok {
		return e.name
	}
	return ""
}

// Players enumerates every player in first-seen order.
func (b *Board) Players() []leaderboard.Player {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]leaderboard.Player, 0, len(b.order))
	for _, id := range b.order {
		e := b.entries[id]
		counts := make(map[tiers.Stat]int, len(e.counts))
		for s, v := range e.counts {
			counts[s] = v
		}
		name := e.name
		if name == "" {
			name = e.id
		}
		out = append(out, leaderboard.Player{ID: e.id, Name: name, Counts: counts})
	}
	return out
}

// Len returns the number of players on the board.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}
