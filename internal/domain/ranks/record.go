// Package ranks owns per-player rank state: which stat a player displays and
// the last label resolved for each stat.
package ranks

import (
	"strings"

	"github.com/google/uuid"

	"github.com/okian/ranks/internal/domain/tiers"
)

// Record is the rank state of one player.
//
// Achieved caches the most recent resolution per stat. A missing entry means
// the stat was never resolved for this player.
type Record struct {
	Selected tiers.Stat
	Achieved map[tiers.Stat]string
}

// NewRecord returns a record with the default selection and nothing achieved.
func NewRecord() *Record {
	return &Record{
		Selected: tiers.Default(),
		Achieved: make(map[tiers.Stat]string),
	}
}

// Label returns the cached label for s and whether one exists.
func (r *Record) Label(s tiers.Stat) (string, bool) {
	if r == nil {
		return "", false
	}
	label, ok := r.Achieved[s]
	return label, ok
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	c := &Record{Selected: r.Selected, Achieved: make(map[tiers.Stat]string, len(r.Achieved))}
	for s, l := range r.Achieved {
		c.Achieved[s] = l
	}
	return c
}

// NormalizeID returns the stable form of a player identity: the canonical
// lowercase form for UUIDs, the trimmed input otherwise.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	return id
}
