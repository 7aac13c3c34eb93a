package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/ranks/internal/adapters/command"
	"github.com/okian/ranks/internal/adapters/http/api"
	"github.com/okian/ranks/internal/adapters/mq/queue"
	service "github.com/okian/ranks/internal/app"
	"github.com/okian/ranks/internal/domain/leaderboard"
	"github.com/okian/ranks/internal/domain/promotion"
	"github.com/okian/ranks/internal/domain/tiers"
	. "github.com/smartystreets/goconvey/convey"
)

type mockDependencies struct {
	progressErr error
	lastStat    tiers.Stat
	lastCount   int
	lastLimit   int
	joinCounts  map[tiers.Stat]int
	rows        []leaderboard.Row
	events      []service.GameEvent
	lines       []string
	resets      int
}

func (m *mockDependencies) RecordProgress(_ context.Context, _, _ string, stat tiers.Stat, count int) (promotion.Result, error) {
	if m.progressErr != nil {
		return promotion.Result{}, m.progressErr
	}
	m.lastStat, m.lastCount = stat, count
	if count == 10 {
		return promotion.Result{Kind: promotion.Promoted, Stat: stat, From: "Hunter", To: "Slayer"}, nil
	}
	return promotion.Result{Kind: promotion.Unchanged, Stat: stat}, nil
}

func (m *mockDependencies) Join(_ context.Context, _, _ string, counts map[tiers.Stat]int) (string, error) {
	m.joinCounts = counts
	return "Slayer", nil
}

func (m *mockDependencies) SelectStat(_ context.Context, _, _ string, stat tiers.Stat) (string, error) {
	m.lastStat = stat
	return "Newbie", nil
}

func (m *mockDependencies) HandleEvent(_ context.Context, e service.GameEvent) (service.EventResult, error) {
	m.events = append(m.events, e)
	return service.EventResult{Outcome: service.OutcomeCounted, Stat: "mob_kills", Count: len(m.events)}, nil
}

func (m *mockDependencies) Leaderboard(_ context.Context, stat tiers.Stat, limit int) ([]leaderboard.Row, error) {
	m.lastStat, m.lastLimit = stat, limit
	return m.rows, nil
}

func (m *mockDependencies) ChatPrefix(_ context.Context, playerID string) (string, int, error) {
	if playerID == "ghost" {
		return "", 0, service.ErrPlayerNotFound
	}
	return "Fighter", 25, nil
}

func (m *mockDependencies) Player(_ context.Context, playerID string) (service.PlayerView, error) {
	if playerID == "ghost" {
		return service.PlayerView{}, service.ErrPlayerNotFound
	}
	return service.PlayerView{ID: playerID, Selected: "mob_kills", Label: "Fighter"}, nil
}

func (m *mockDependencies) ExecuteCommand(_ context.Context, _ command.Sender, line string) (command.Result, error) {
	m.lines = append(m.lines, line)
	return command.Result{Handled: true, Messages: []string{"ok"}}, nil
}

func (m *mockDependencies) Reset(context.Context) error {
	m.resets++
	return nil
}

func (m *mockDependencies) Recompute(context.Context) (int, error) {
	return 3, nil
}

type mockStatsProvider struct{}

func (mockStatsProvider) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true, "players": 2}
}

func newMux(deps *mockDependencies, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, mockStatsProvider{}, opts...).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(&mockDependencies{})

		Convey("The health endpoint serves metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("The stats endpoint serves the provider's map", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("The stats endpoint narrows to the requested keys", func() {
			w := do(mux, http.MethodGet, "/stats?key=started", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Cache-Control"), ShouldEqual, "no-store")
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
			So(w.Body.String(), ShouldNotContainSubstring, `"players"`)

			w = do(mux, http.MethodGet, "/stats?key=nope", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, `"code":"bad_request"`)
		})

		Convey("The host route is absent unless configured", func() {
			w := do(mux, http.MethodGet, "/host", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestProgressHandler(t *testing.T) {
	Convey("Given the progress endpoint", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("A crossing count reports a promotion", func() {
			w := do(mux, http.MethodPost, "/progress", `{"player_id":"p1","player_name":"Steve","stat":"mob_kills","count":10}`)
			So(w.Code, ShouldEqual, http.StatusOK)

			var body struct {
				Promoted bool `json:"promoted"`
				Result   struct {
					Kind string `json:"kind"`
					To   string `json:"to"`
				} `json:"result"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body.Promoted, ShouldBeTrue)
			So(body.Result.Kind, ShouldEqual, "promoted")
			So(body.Result.To, ShouldEqual, "Slayer")
		})

		Convey("Display names are accepted for the stat", func() {
			w := do(mux, http.MethodPost, "/progress", `{"player_id":"p1","stat":"Ores Mined","count":3}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastStat, ShouldEqual, tiers.OresMined)
		})

		Convey("Invalid requests are rejected", func() {
			So(do(mux, http.MethodPost, "/progress", `{`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/progress", `{"stat":"mob_kills","count":1}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/progress", `{"player_id":"p1","stat":"fishing","count":1}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/progress", `{"player_id":"p1","stat":"mob_kills","count":-1}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("A full dispatch queue maps to 429", func() {
			deps.progressErr = queue.ErrQueueFull
			w := do(mux, http.MethodPost, "/progress", `{"player_id":"p1","stat":"mob_kills","count":1}`)
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
		})

		Convey("A stopped service maps to 503", func() {
			deps.progressErr = service.ErrNotStarted
			w := do(mux, http.MethodPost, "/progress", `{"player_id":"p1","stat":"mob_kills","count":1}`)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("GET is not routed", func() {
			So(do(mux, http.MethodGet, "/progress", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestJoinAndSelect(t *testing.T) {
	Convey("Given the join and select endpoints", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("Join parses every stat in counts", func() {
			w := do(mux, http.MethodPost, "/join", `{"player_id":"p1","counts":{"mob_kills":12,"ores_mined":0}}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"label":"Slayer"`)
			So(deps.joinCounts[tiers.MobKills], ShouldEqual, 12)
			So(deps.joinCounts, ShouldContainKey, tiers.OresMined)
		})

		Convey("Join rejects unknown stats", func() {
			w := do(mux, http.MethodPost, "/join", `{"player_id":"p1","counts":{"fishing":1}}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Select switches the displayed stat", func() {
			w := do(mux, http.MethodPost, "/select", `{"player_id":"p1","stat":"player_kills"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastStat, ShouldEqual, tiers.PlayerKills)
		})

		Convey("Select without a player is rejected", func() {
			w := do(mux, http.MethodPost, "/select", `{"stat":"player_kills"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestEventsHandler(t *testing.T) {
	Convey("Given the events endpoint", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("A valid event reaches the service", func() {
			w := do(mux, http.MethodPost, "/events", `{"event_id":"e1","type":"mob_killed","player_id":"p1"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.events, ShouldHaveLength, 1)
			So(w.Body.String(), ShouldContainSubstring, `"outcome":"counted"`)
		})

		Convey("Malformed events are rejected before the service", func() {
			So(do(mux, http.MethodPost, "/events", `{"type":"mob_killed","player_id":"p1"}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/events", `{"event_id":"e1","type":"fished","player_id":"p1"}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/events", `{"event_id":"e1","type":"block_broken","player_id":"p1"}`).Code, ShouldEqual, http.StatusBadRequest)
			So(deps.events, ShouldBeEmpty)
		})
	})
}

func TestLeaderboardHandler(t *testing.T) {
	Convey("Given the leaderboard endpoint", t, func() {
		deps := &mockDependencies{rows: []leaderboard.Row{
			{Position: 1, PlayerID: "p1", PlayerName: "Steve", Count: 30, Label: "Slayer"},
		}}
		mux := newMux(deps, api.WithMaxLeaderboardLimit(10))

		Convey("Defaults to mob kills and the service's size", func() {
			w := do(mux, http.MethodGet, "/leaderboard", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastStat, ShouldEqual, tiers.MobKills)
			So(deps.lastLimit, ShouldEqual, 0)

			var body struct {
				Stat     string            `json:"stat"`
				StatName string            `json:"stat_name"`
				Rows     []leaderboard.Row `json:"rows"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body.Stat, ShouldEqual, "mob_kills")
			So(body.StatName, ShouldEqual, "Mob Kills")
			So(body.Rows, ShouldHaveLength, 1)
			So(body.Rows[0].PlayerName, ShouldEqual, "Steve")
		})

		Convey("Honors stat and limit", func() {
			w := do(mux, http.MethodGet, "/leaderboard?stat=ores_mined&limit=3", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastStat, ShouldEqual, tiers.OresMined)
			So(deps.lastLimit, ShouldEqual, 3)
		})

		Convey("Rejects bad limits and stats", func() {
			So(do(mux, http.MethodGet, "/leaderboard?limit=0", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/leaderboard?limit=abc", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/leaderboard?limit=11", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/leaderboard?stat=fishing", "").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestPlayerHandler(t *testing.T) {
	Convey("Given the player endpoints", t, func() {
		mux := newMux(&mockDependencies{})

		Convey("The prefix carries label and count", func() {
			w := do(mux, http.MethodGet, "/prefix/p1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"label":"Fighter"`)
			So(w.Body.String(), ShouldContainSubstring, `"count":25`)
		})

		Convey("The player view is returned", func() {
			w := do(mux, http.MethodGet, "/players/p1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"player_id":"p1"`)
		})

		Convey("Unknown players are 404", func() {
			So(do(mux, http.MethodGet, "/prefix/ghost", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/players/ghost", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("A missing id is rejected", func() {
			So(do(mux, http.MethodGet, "/players/", "").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestCommandHandler(t *testing.T) {
	Convey("Given the commands endpoint", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("A command line is executed", func() {
			w := do(mux, http.MethodPost, "/commands", `{"sender_id":"p1","line":"/rank"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lines, ShouldResemble, []string{"/rank"})
			So(w.Body.String(), ShouldContainSubstring, `"handled":true`)
		})

		Convey("An empty line is rejected", func() {
			w := do(mux, http.MethodPost, "/commands", `{"sender_id":"p1","line":"  "}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestAdminHandler(t *testing.T) {
	Convey("Given the admin endpoints", t, func() {
		deps := &mockDependencies{}

		Convey("Without a configured token every call is refused", func() {
			mux := newMux(deps)
			w := do(mux, http.MethodPost, "/reset", "", api.AdminTokenHeader, "")
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
			So(deps.resets, ShouldEqual, 0)
		})

		Convey("With a token", func() {
			mux := newMux(deps, api.WithAdminToken("s3cret"))

			Convey("A wrong token is refused", func() {
				w := do(mux, http.MethodPost, "/reset", "", api.AdminTokenHeader, "nope")
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
			})

			Convey("The right token resets", func() {
				w := do(mux, http.MethodPost, "/reset", "", api.AdminTokenHeader, "s3cret")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.resets, ShouldEqual, 1)
			})

			Convey("Recompute reports promotions", func() {
				w := do(mux, http.MethodPost, "/recompute", "", api.AdminTokenHeader, "s3cret")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"promotions":3`)
			})
		})
	})
}

func TestMetricsMiddleware(t *testing.T) {
	Convey("Given a handler wrapped in the metrics middleware", t, func() {
		h := api.MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}, "test")

		Convey("The wrapped status reaches the client", func() {
			w := httptest.NewRecorder()
			h(w, httptest.NewRequest(http.MethodGet, "/", nil))
			So(w.Code, ShouldEqual, http.StatusTeapot)
		})
	})
}
