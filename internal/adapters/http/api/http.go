// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/ranks/internal/adapters/mq/queue"
	service "github.com/okian/ranks/internal/app"
	"github.com/okian/ranks/internal/domain/progression"
	"github.com/okian/ranks/internal/domain/tiers"
)

const defaultMaxLeaderboardLimit = 50

// Dependencies required by HTTP handlers.
type Dependencies interface {
	ProgressDependencies
	EventDependencies
	LeaderboardDependencies
	PlayerDependencies
	CommandDependencies
	AdminDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	progressHandler    *ProgressHandler
	eventsHandler      *EventsHandler
	leaderboardHandler *LeaderboardHandler
	playerHandler      *PlayerHandler
	commandHandler     *CommandHandler
	adminHandler       *AdminHandler
	hostHandler        http.Handler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	cfg := serverConfig{maxLimit: defaultMaxLeaderboardLimit}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		progressHandler:    NewProgressHandler(deps),
		eventsHandler:      NewEventsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, cfg.maxLimit),
		playerHandler:      NewPlayerHandler(deps),
		commandHandler:     NewCommandHandler(deps),
		adminHandler:       NewAdminHandler(deps, cfg.adminToken),
		hostHandler:        cfg.host,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/progress", MetricsMiddleware(s.progressHandler.HandlePostProgress, "progress"))
	mux.HandleFunc("/join", MetricsMiddleware(s.progressHandler.HandlePostJoin, "join"))
	mux.HandleFunc("/select", MetricsMiddleware(s.progressHandler.HandlePostSelect, "select"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "events"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/prefix/", MetricsMiddleware(s.playerHandler.HandleGetPrefix, "prefix"))
	mux.HandleFunc("/players/", MetricsMiddleware(s.playerHandler.HandleGetPlayer, "players"))
	mux.HandleFunc("/commands", MetricsMiddleware(s.commandHandler.HandlePostCommand, "commands"))
	mux.HandleFunc("/reset", MetricsMiddleware(s.adminHandler.HandleReset, "reset"))
	mux.HandleFunc("/recompute", MetricsMiddleware(s.adminHandler.HandleRecompute, "recompute"))
	if s.hostHandler != nil {
		mux.Handle("/host", s.hostHandler)
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	noteErrorCode(w, code)
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps a service failure to a status code.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, tiers.ErrUnknownStat),
		errors.Is(err, progression.ErrInvalidPlayer),
		errors.Is(err, service.ErrInvalidEvent):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, queue.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, queue.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "timeout", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
