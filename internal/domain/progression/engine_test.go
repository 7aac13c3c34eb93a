package progression_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/ranks/internal/domain/display"
	"github.com/okian/ranks/internal/domain/leaderboard"
	"github.com/okian/ranks/internal/domain/progression"
	"github.com/okian/ranks/internal/domain/promotion"
	"github.com/okian/ranks/internal/domain/ranks"
	"github.com/okian/ranks/internal/domain/rewards"
	"github.com/okian/ranks/internal/domain/tiers"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeHost struct {
	fail       bool
	items      []string
	effects    []string
	messages   []string
	broadcasts []string
	titles     []string
	tags       map[string]string
}

func newFakeHost() *fakeHost { return &fakeHost{tags: make(map[string]string)} }

var errHost = errors.New("host offline")

func (f *fakeHost) GrantItem(_ context.Context, _ string, it rewards.Item) error {
	if f.fail {
		return errHost
	}
	f.items = append(f.items, it.ID)
	return nil
}

func (f *fakeHost) ApplyEffect(_ context.Context, _ string, ef rewards.Effect) error {
	if f.fail {
		return errHost
	}
	f.effects = append(f.effects, ef.ID)
	return nil
}

func (f *fakeHost) SendMessage(_ context.Context, _ string, text string) error {
	if f.fail {
		return errHost
	}
	f.messages = append(f.messages, text)
	return nil
}

func (f *fakeHost) Broadcast(_ context.Context, text string) error {
	if f.fail {
		return errHost
	}
	f.broadcasts = append(f.broadcasts, text)
	return nil
}

func (f *fakeHost) SendTitle(_ context.Context, _ string, _ string, subtitle string) error {
	if f.fail {
		return errHost
	}
	f.titles = append(f.titles, subtitle)
	return nil
}

func (f *fakeHost) SetNameTag(_ context.Context, playerID, tag string) error {
	if f.fail {
		return errHost
	}
	f.tags[playerID] = tag
	return nil
}

type fakeCounters struct {
	players []leaderboard.Player
}

func (c *fakeCounters) set(id, name string, s tiers.Stat, n int) {
	for i := range c.players {
		if c.players[i].ID == id {
			c.players[i].Counts[s] = n
			return
		}
	}
	c.players = append(c.players, leaderboard.Player{ID: id, Name: name, Counts: map[tiers.Stat]int{s: n}})
}

func (c *fakeCounters) Count(id string, s tiers.Stat) int {
	for _, p := range c.players {
		if p.ID == id {
			return p.Counts[s]
		}
	}
	return 0
}

func (c *fakeCounters) Players() []leaderboard.Player { return c.players }

type memRepo struct {
	doc   *ranks.Document
	saves int
	err   error
}

func (m *memRepo) Load(context.Context) (ranks.Document, error) {
	if m.doc == nil {
		return ranks.Document{}, ranks.ErrNoState
	}
	return *m.doc, nil
}

func (m *memRepo) Save(_ context.Context, doc ranks.Document) error {
	if m.err != nil {
		return m.err
	}
	m.doc = &doc
	m.saves++
	return nil
}

func TestRecordProgress(t *testing.T) {
	ctx := context.Background()

	Convey("Given an engine with the silent first rank policy", t, func() {
		host := newFakeHost()
		engine := progression.New(&memRepo{}, host, &fakeCounters{})

		Convey("When progress is recorded at 9, 9 and 10 mob kills", func() {
			var promoted []promotion.Result
			for _, n := range []int{9, 9, 10} {
				res, err := engine.RecordProgress(ctx, "p1", "Alex", tiers.MobKills, n)
				So(err, ShouldBeNil)
				if res.Kind == promotion.Promoted && !res.First() {
					promoted = append(promoted, res)
				}
			}

			Convey("Then exactly one promotion is announced and rewarded", func() {
				So(len(promoted), ShouldEqual, 1)
				So(promoted[0].From, ShouldEqual, "Hunter")
				So(promoted[0].To, ShouldEqual, "Slayer")
				So(host.broadcasts, ShouldHaveLength, 1)
				So(host.broadcasts[0], ShouldContainSubstring, "Alex")
				So(host.broadcasts[0], ShouldContainSubstring, "Slayer")
				So(host.titles, ShouldResemble, []string{"Slayer"})
				So(host.items, ShouldResemble, []string{"minecraft:iron_sword"})
				So(host.tags["p1"], ShouldEqual, "[Slayer] Alex")
			})
		})

		Convey("When the host rejects every call", func() {
			host.fail = true
			_, _ = engine.RecordProgress(ctx, "p1", "Alex", tiers.MobKills, 1)
			res, err := engine.RecordProgress(ctx, "p1", "Alex", tiers.MobKills, 55)

			Convey("Then the label is still committed", func() {
				So(err, ShouldBeNil)
				So(res.Kind, ShouldEqual, promotion.Promoted)
				rec, ok := engine.Record("p1")
				So(ok, ShouldBeTrue)
				So(rec.Achieved[tiers.MobKills], ShouldEqual, "Beastmaster")
			})
		})

		Convey("When progress is recorded for a stat that is not selected", func() {
			_, _ = engine.RecordProgress(ctx, "p1", "Alex", tiers.OresMined, 60)

			Convey("Then the name tag is left alone", func() {
				_, ok := host.tags["p1"]
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the player id is empty or the stat unknown", func() {
			_, errID := engine.RecordProgress(ctx, " ", "x", tiers.MobKills, 1)
			_, errStat := engine.RecordProgress(ctx, "p1", "x", tiers.Stat(42), 1)

			Convey("Then both calls fail without touching state", func() {
				So(errors.Is(errID, progression.ErrInvalidPlayer), ShouldBeTrue)
				So(errors.Is(errStat, tiers.ErrUnknownStat), ShouldBeTrue)
				So(engine.Tracked(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given an engine announcing first ranks", t, func() {
		host := newFakeHost()
		engine := progression.New(&memRepo{}, host, &fakeCounters{}, progression.WithPolicy(promotion.FirstAnnounce))

		Convey("When the first mob kill is recorded", func() {
			res, err := engine.RecordProgress(ctx, "p1", "Alex", tiers.MobKills, 1)

			Convey("Then the tier zero label is announced", func() {
				So(err, ShouldBeNil)
				So(res.First(), ShouldBeTrue)
				So(host.titles, ShouldResemble, []string{"Hunter"})
				So(host.items, ShouldBeEmpty)
			})
		})
	})
}

func TestDisplayAndSelection(t *testing.T) {
	ctx := context.Background()

	Convey("Given a player who joins with existing progress", t, func() {
		host := newFakeHost()
		counters := &fakeCounters{}
		counters.set("p1", "Alex", tiers.MobKills, 12)
		counters.set("p1", "Alex", tiers.OresMined, 0)
		engine := progression.New(&memRepo{}, host, counters)

		label := engine.OnPlayerJoin(ctx, "p1", "Alex", map[tiers.Stat]int{tiers.MobKills: 12})

		Convey("Then backfill resolves the stat and renders it", func() {
			So(label, ShouldEqual, "Slayer")
			So(host.tags["p1"], ShouldEqual, "[Slayer] Alex")
			So(host.items, ShouldBeEmpty)
			So(engine.ComposeChatPrefix("p1", 12), ShouldEqual, "Slayer")
		})

		Convey("When the player selects ores mined with no ores", func() {
			label, err := engine.SetSelectedStat(ctx, "p1", "Alex", tiers.OresMined)

			Convey("Then the display falls back to Newbie", func() {
				So(err, ShouldBeNil)
				So(label, ShouldEqual, display.Newbie)
				So(host.tags["p1"], ShouldEqual, "[Newbie] Alex")
				So(engine.Selected("p1"), ShouldEqual, tiers.OresMined)
			})
		})

		Convey("When an invalid stat is selected", func() {
			_, err := engine.SetSelectedStat(ctx, "p1", "Alex", tiers.Stat(-1))

			Convey("Then the selection is rejected", func() {
				So(errors.Is(err, tiers.ErrUnknownStat), ShouldBeTrue)
				So(engine.Selected("p1"), ShouldEqual, tiers.MobKills)
			})
		})
	})

	Convey("Given backfill is disabled", t, func() {
		engine := progression.New(&memRepo{}, newFakeHost(), &fakeCounters{}, progression.WithBackfill(false))

		label := engine.OnPlayerJoin(ctx, "p1", "Alex", map[tiers.Stat]int{tiers.MobKills: 12})

		Convey("Then the unresolved stat shows Newbie", func() {
			So(label, ShouldEqual, display.Newbie)
		})
	})
}

func TestLeaderboardAndLifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given three players with counts", t, func() {
		host := newFakeHost()
		counters := &fakeCounters{}
		counters.set("a", "Ann", tiers.MobKills, 55)
		counters.set("b", "Bob", tiers.MobKills, 0)
		counters.set("c", "Cid", tiers.MobKills, 11)
		repo := &memRepo{}
		engine := progression.New(repo, host, counters, progression.WithPolicy(promotion.FirstAnnounce))

		Convey("When ranks are recomputed", func() {
			n, err := engine.RecomputeAll(ctx)

			Convey("Then every stat with progress is resolved and rewarded", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)
				So(host.items, ShouldContain, "minecraft:diamond_sword")
				So(host.items, ShouldContain, "minecraft:iron_sword")
			})

			Convey("And stats without progress are not announced", func() {
				So(host.broadcasts, ShouldHaveLength, 2)
				for _, text := range host.broadcasts {
					So(text, ShouldNotContainSubstring, "Player Kills")
					So(text, ShouldNotContainSubstring, "Ores Mined")
				}
				_, tracked := engine.Record("b")
				So(tracked, ShouldBeFalse)
			})

			Convey("And the leaderboard shows each player's label", func() {
				rows := engine.LeaderboardTop(tiers.MobKills, nil, 0)
				So(rows, ShouldHaveLength, 2)
				So(rows[0].PlayerName, ShouldEqual, "Ann")
				So(rows[0].Label, ShouldEqual, "Beastmaster")
				So(rows[1].Label, ShouldEqual, "Slayer")
			})

			Convey("And a second recompute changes nothing", func() {
				again, err := engine.RecomputeAll(ctx)
				So(err, ShouldBeNil)
				So(again, ShouldEqual, 0)
			})
		})

		Convey("When the state is saved and loaded into a fresh engine", func() {
			_, _ = engine.RecordProgress(ctx, "a", "Ann", tiers.MobKills, 55)
			So(engine.Save(ctx), ShouldBeNil)
			fresh := progression.New(repo, newFakeHost(), counters)
			out := fresh.Load(ctx)

			Convey("Then the record survives", func() {
				So(out, ShouldEqual, ranks.LoadOK)
				rec, ok := fresh.Record("a")
				So(ok, ShouldBeTrue)
				So(rec.Achieved[tiers.MobKills], ShouldEqual, "Beastmaster")
			})
		})

		Convey("When everything is reset", func() {
			_, _ = engine.RecordProgress(ctx, "a", "Ann", tiers.MobKills, 55)
			err := engine.ResetAll(ctx)

			Convey("Then a previously tracked player shows Newbie and the empty state is saved", func() {
				So(err, ShouldBeNil)
				So(engine.ComposeChatPrefix("a", 55), ShouldEqual, display.Newbie)
				So(repo.saves, ShouldEqual, 1)
				So(repo.doc.Selected, ShouldBeEmpty)
			})
		})

		Convey("When the repository refuses to save", func() {
			repo.err = errors.New("disk full")

			Convey("Then the error is returned", func() {
				So(engine.Save(ctx), ShouldNotBeNil)
			})
		})
	})
}
