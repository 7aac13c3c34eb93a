package api

import (
	"context"
	"net/http"
	"strings"

	service "github.com/okian/ranks/internal/app"
)

// PlayerDependencies defines per-player read operations.
type PlayerDependencies interface {
	ChatPrefix(ctx context.Context, playerID string) (string, int, error)
	Player(ctx context.Context, playerID string) (service.PlayerView, error)
}

// PlayerHandler handles per-player requests.
type PlayerHandler struct {
	deps PlayerDependencies
}

// NewPlayerHandler creates a new player handler.
func NewPlayerHandler(deps PlayerDependencies) *PlayerHandler {
	return &PlayerHandler{deps: deps}
}

func pathID(r *http.Request, prefix string) (string, bool) {
	id := strings.TrimPrefix(r.URL.Path, prefix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// HandleGetPrefix handles GET /prefix/{player_id} requests.
func (h *PlayerHandler) HandleGetPrefix(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_prefix"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, ok := pathID(r, "/prefix/")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	label, count, err := h.deps.ChatPrefix(r.Context(), id)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, labelResponse{PlayerID: id, Label: label, Count: &count})
}

// HandleGetPlayer handles GET /players/{player_id} requests.
func (h *PlayerHandler) HandleGetPlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_player"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, ok := pathID(r, "/players/")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	view, err := h.deps.Player(r.Context(), id)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
