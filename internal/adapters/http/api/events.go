package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	service "github.com/okian/ranks/internal/app"
)

// EventDependencies defines the interface for game event processing.
type EventDependencies interface {
	HandleEvent(ctx context.Context, e service.GameEvent) (service.EventResult, error)
}

// EventsHandler handles event requests.
type EventsHandler struct {
	deps EventDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

type eventRequest service.GameEvent

func (e eventRequest) validate() error {
	switch {
	case strings.TrimSpace(e.EventID) == "":
		return errors.New("missing event_id")
	case strings.TrimSpace(e.PlayerID) == "":
		return errors.New("missing player_id")
	case strings.TrimSpace(e.Type) == "":
		return errors.New("missing type")
	}
	switch e.Type {
	case service.EventMobKilled, service.EventPlayerKilled:
	case service.EventBlockBroken:
		if strings.TrimSpace(e.BlockType) == "" {
			return errors.New("missing block_type")
		}
	default:
		return errors.New("unknown event type")
	}
	return nil
}

// HandlePostEvent handles POST /events requests.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req eventRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.HandleEvent(r.Context(), service.GameEvent(req))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
