package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/ranks/internal/domain/leaderboard"
	"github.com/okian/ranks/internal/domain/tiers"
)

// LeaderboardDependencies defines the interface for leaderboard operations.
type LeaderboardDependencies interface {
	Leaderboard(ctx context.Context, stat tiers.Stat, limit int) ([]leaderboard.Row, error)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int) *LeaderboardHandler {
	if maxLimit <= 0 {
		maxLimit = defaultMaxLeaderboardLimit
	}
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

type leaderboardResponse struct {
	Stat     string            `json:"stat"`
	StatName string            `json:"stat_name"`
	Rows     []leaderboard.Row `json:"rows"`
}

// HandleGetLeaderboard handles GET /leaderboard?stat=S&limit=N requests.
// stat defaults to mob_kills and limit to the configured leaderboard size.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()

	stat := tiers.Default()
	if name := q.Get("stat"); name != "" {
		var err error
		if stat, err = tiers.ParseStat(name); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
	}

	n := 0
	if limitStr := q.Get("limit"); limitStr != "" {
		var err error
		n, err = strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
			return
		}
	}

	rows, err := h.deps.Leaderboard(r.Context(), stat, n)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Stat: stat.String(), StatName: stat.DisplayName(), Rows: rows})
}
