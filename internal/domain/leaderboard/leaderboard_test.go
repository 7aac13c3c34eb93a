package leaderboard_test

import (
	"testing"

	"github.com/okian/ranks/internal/domain/display"
	"github.com/okian/ranks/internal/domain/leaderboard"
	"github.com/okian/ranks/internal/domain/tiers"
	. "github.com/smartystreets/goconvey/convey"
)

func player(id string, mobs int) leaderboard.Player {
	return leaderboard.Player{ID: id, Name: "name-" + id, Counts: map[tiers.Stat]int{tiers.MobKills: mobs, tiers.OresMined: 1}}
}

func TestTop(t *testing.T) {
	Convey("Given seven players with varied mob kills", t, func() {
		players := []leaderboard.Player{
			player("a", 3), player("b", 0), player("c", 40), player("d", 12),
			player("e", 12), player("f", 1), player("g", 7), player("h", 2),
		}
		labels := map[string]string{"c": "Slayer"}
		labeler := func(id string) string {
			if l, ok := labels[id]; ok {
				return l
			}
			return display.Newbie
		}

		Convey("When taking the top 5", func() {
			rows := leaderboard.Top(tiers.MobKills, players, 5, labeler)

			Convey("Then at most five rows come back, descending, without zero counts", func() {
				So(len(rows), ShouldEqual, 5)
				for i := 1; i < len(rows); i++ {
					So(rows[i].Count, ShouldBeLessThanOrEqualTo, rows[i-1].Count)
				}
				for _, r := range rows {
					So(r.PlayerID, ShouldNotEqual, "b")
				}
			})

			Convey("And ties keep input order and share a position", func() {
				So(rows[1].PlayerID, ShouldEqual, "d")
				So(rows[2].PlayerID, ShouldEqual, "e")
				So(rows[1].Position, ShouldEqual, rows[2].Position)
				So(rows[3].Position, ShouldEqual, rows[2].Position+1)
			})

			Convey("And labels come from each player's own display", func() {
				So(rows[0].PlayerID, ShouldEqual, "c")
				So(rows[0].Label, ShouldEqual, "Slayer")
				So(rows[1].Label, ShouldEqual, display.Newbie)
			})
		})

		Convey("When n is not positive", func() {
			rows := leaderboard.Top(tiers.MobKills, players, 0, nil)

			Convey("Then the default size and Newbie labels apply", func() {
				So(len(rows), ShouldEqual, leaderboard.DefaultSize)
				So(rows[0].Label, ShouldEqual, display.Newbie)
			})
		})
	})

	Convey("Given nobody with progress in the stat", t, func() {
		rows := leaderboard.Top(tiers.PlayerKills, []leaderboard.Player{player("a", 5)}, 5, nil)

		Convey("Then a single no data row is returned", func() {
			So(len(rows), ShouldEqual, 1)
			So(rows[0].Placeholder, ShouldBeTrue)
			So(rows[0].PlayerName, ShouldEqual, leaderboard.NoData)
		})
	})
}
