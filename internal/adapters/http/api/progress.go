package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/ranks/internal/domain/promotion"
	"github.com/okian/ranks/internal/domain/tiers"
)

// ProgressDependencies defines the operations driven by the host.
type ProgressDependencies interface {
	RecordProgress(ctx context.Context, playerID, playerName string, stat tiers.Stat, count int) (promotion.Result, error)
	Join(ctx context.Context, playerID, playerName string, counts map[tiers.Stat]int) (string, error)
	SelectStat(ctx context.Context, playerID, playerName string, stat tiers.Stat) (string, error)
}

// ProgressHandler handles progress, join and selection requests.
type ProgressHandler struct {
	deps ProgressDependencies
}

// NewProgressHandler creates a new progress handler.
func NewProgressHandler(deps ProgressDependencies) *ProgressHandler {
	return &ProgressHandler{deps: deps}
}

type progressRequest struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Stat       string `json:"stat"`
	Count      int    `json:"count"`
}

func (p progressRequest) validate() (tiers.Stat, error) {
	if strings.TrimSpace(p.PlayerID) == "" {
		return 0, errors.New("missing player_id")
	}
	if p.Count < 0 {
		return 0, errors.New("count must not be negative")
	}
	return tiers.ParseStat(p.Stat)
}

type progressResponse struct {
	Promoted bool             `json:"promoted"`
	Result   promotion.Result `json:"result"`
}

// HandlePostProgress handles POST /progress requests.
func (h *ProgressHandler) HandlePostProgress(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_progress"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req progressRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	stat, err := req.validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.RecordProgress(r.Context(), req.PlayerID, req.PlayerName, stat, req.Count)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, progressResponse{Promoted: res.Kind == promotion.Promoted, Result: res})
}

type joinRequest struct {
	PlayerID   string         `json:"player_id"`
	PlayerName string         `json:"player_name"`
	Counts     map[string]int `json:"counts"`
}

type labelResponse struct {
	PlayerID string `json:"player_id"`
	Label    string `json:"label"`
	Count    *int   `json:"count,omitempty"`
}

// HandlePostJoin handles POST /join requests.
func (h *ProgressHandler) HandlePostJoin(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_join"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req joinRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.PlayerID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	counts := make(map[tiers.Stat]int, len(req.Counts))
	for name, n := range req.Counts {
		stat, err := tiers.ParseStat(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		counts[stat] = n
	}
	label, err := h.deps.Join(r.Context(), req.PlayerID, req.PlayerName, counts)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, labelResponse{PlayerID: req.PlayerID, Label: label})
}

type selectRequest struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Stat       string `json:"stat"`
}

// HandlePostSelect handles POST /select requests.
func (h *ProgressHandler) HandlePostSelect(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_select"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req selectRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	stat, err := tiers.ParseStat(req.Stat)
	if err != nil || strings.TrimSpace(req.PlayerID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	label, err := h.deps.SelectStat(r.Context(), req.PlayerID, req.PlayerName, stat)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, labelResponse{PlayerID: req.PlayerID, Label: label})
}
