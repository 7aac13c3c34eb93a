// Package leaderboard ranks players by a raw stat count.
package leaderboard

import (
	"sort"

	"github.com/okian/ranks/internal/domain/display"
	"github.com/okian/ranks/internal/domain/tiers"
)

// DefaultSize is the number of rows returned when no size is given.
const DefaultSize = 5

// NoData is the name on the placeholder row of an empty leaderboard.
const NoData = "No data"

// Player is one enumerated player with their raw counts.
type Player struct {
	ID     string
	Name   string
	Counts map[tiers.Stat]int
}

// Row is one leaderboard line. Players with equal counts share a Position.
type Row struct {
	Position    int    `json:"position"`
	PlayerID    string `json:"player_id,omitempty"`
	PlayerName  string `json:"player_name"`
	Count       int    `json:"count"`
	Label       string `json:"label"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// Labeler returns the display label for a player id.
type Labeler func(playerID string) string

// NewbieLabeler labels everybody Newbie.
func NewbieLabeler(string) string { return display.Newbie }

// Top ranks players with a positive count for stat, highest first, and keeps
// the first n. Equal counts keep their input order, so tie order follows
// whatever order the caller enumerated players in. When nobody qualifies a
// single placeholder row is returned.
func Top(stat tiers.Stat, players []Player, n int, label Labeler) []Row {
	if n <= 0 {
		n = DefaultSize
	}
	if label == nil {
		label = NewbieLabeler
	}

	qualified := make([]Player, 0, len(players))
	for _, p := range players {
		if p.Counts[stat] > 0 {
			qualified = append(qualified, p)
		}
	}
	if len(qualified) == 0 {
		return []Row{Placeholder()}
	}

	sort.SliceStable(qualified, func(i, j int) bool {
		return qualified[i].Counts[stat] > qualified[j].Counts[stat]
	})
	if len(qualified) > n {
		qualified = qualified[:n]
	}

	rows := make([]Row, len(qualified))
	for i, p := range qualified {
		rows[i] = Row{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Count:      p.Counts[stat],
			Label:      label(p.ID),
		}
	}
	assignPositions(rows)
	return rows
}

// Placeholder is the row shown for an empty leaderboard.
func Placeholder() Row {
	return Row{Position: 0, PlayerName: NoData, Placeholder: true}
}

// assignPositions gives equal counts the same position; the next distinct
// count takes the following position.
func assignPositions(rows []Row) {
	pos := 0
	for i := range rows {
		if i == 0 || rows[i].Count != rows[i-1].Count {
			pos++
		}
		rows[i].Position = pos
	}
}
