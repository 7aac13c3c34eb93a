// Package display decides which rank label a player shows on their name tag
// and chat prefix.
package display

import (
	"fmt"

	"github.com/okian/ranks/internal/domain/ranks"
	"github.com/okian/ranks/internal/domain/tiers"
)

// Newbie is shown when a player has no progress in their selected stat.
const Newbie = "Newbie"

// CurrentDisplayLabel returns the label for r given the raw count of its
// selected stat. A zero count always shows Newbie, even over a cached label.
func CurrentDisplayLabel(r *ranks.Record, selectedCount int) string {
	if r == nil || selectedCount <= 0 {
		return Newbie
	}
	return LabelFor(r)
}

// LabelFor returns the cached label of the selected stat, or Newbie. It does
// not look at raw counts.
func LabelFor(r *ranks.Record) string {
	if label, ok := r.Label(selectedOf(r)); ok && label != "" {
		return label
	}
	return Newbie
}

func selectedOf(r *ranks.Record) tiers.Stat {
	if r == nil {
		return tiers.Default()
	}
	return r.Selected
}

// SetSelectedStat changes the stat r displays.
func SetSelectedStat(r *ranks.Record, s tiers.Stat) {
	r.Selected = s
}

// NameTag renders the tag shown above a player, e.g. "[Slayer] Steve".
func NameTag(label, name string) string {
	return fmt.Sprintf("[%s] %s", label, name)
}

// ChatLine renders an outgoing chat message with the rank prefix.
func ChatLine(label, name, message string) string {
	return fmt.Sprintf("[%s] %s: %s", label, name, message)
}
