package scoreboard_test

import (
	"testing"

	"github.com/okian/ranks/internal/adapters/scoreboard"
	"github.com/okian/ranks/internal/domain/tiers"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBoard(t *testing.T) {
	Convey("Given an empty board", t, func() {
		b := scoreboard.New()

		Convey("When counters are incremented", func() {
			b.Add("p2", "Bea", tiers.MobKills, 1)
			n := b.Add("p2", "", tiers.MobKills, 2)
			b.Add("p1", "Al", tiers.OresMined, 5)

			Convey("Then values accumulate and the name sticks", func() {
				So(n, ShouldEqual, 3)
				So(b.Count("p2", tiers.MobKills), ShouldEqual, 3)
				So(b.Name("p2"), ShouldEqual, "Bea")
				So(b.Count("nobody", tiers.MobKills), ShouldEqual, 0)
			})

			Convey("And players enumerate in first-seen order", func() {
				players := b.Players()
				So(len(players), ShouldEqual, 2)
				So(players[0].ID, ShouldEqual, "p2")
				So(players[1].ID, ShouldEqual, "p1")
				So(players[1].Counts[tiers.OresMined], ShouldEqual, 5)
			})
		})

		Convey("When a counter would drop below zero", func() {
			b.Set("p1", "Al", tiers.PlayerKills, 2)
			n := b.Add("p1", "Al", tiers.PlayerKills, -5)

			Convey("Then it stops at zero", func() {
				So(n, ShouldEqual, 0)
			})
		})

		Convey("When counts are set in bulk", func() {
			b.SetAll("p1", "Al", map[tiers.Stat]int{tiers.MobKills: 4, tiers.OresMined: 9})
			counts := b.Counts("p1")
			counts[tiers.MobKills] = 100

			Convey("Then the returned map is a copy", func() {
				So(b.Count("p1", tiers.MobKills), ShouldEqual, 4)
				So(b.Len(), ShouldEqual, 1)
			})
		})
	})

	Convey("Objectives follow the stat order", t, func() {
		objs := scoreboard.Objectives()
		So(len(objs), ShouldEqual, 3)
		So(objs[0], ShouldResemble, scoreboard.Objective{Name: "mob_kills", DisplayName: "Mob Kills"})
	})
}
