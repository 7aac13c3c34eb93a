package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/ranks/internal/adapters/command"
)

// CommandDependencies runs in-game command lines.
type CommandDependencies interface {
	ExecuteCommand(ctx context.Context, sender command.Sender, line string) (command.Result, error)
}

// CommandHandler handles command requests.
type CommandHandler struct {
	deps CommandDependencies
}

// NewCommandHandler creates a new command handler.
func NewCommandHandler(deps CommandDependencies) *CommandHandler {
	return &CommandHandler{deps: deps}
}

type commandRequest struct {
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Line       string `json:"line"`
}

// HandlePostCommand handles POST /commands requests.
func (h *CommandHandler) HandlePostCommand(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_command"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req commandRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.Line) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	res, err := h.deps.ExecuteCommand(r.Context(), command.Sender{ID: req.SenderID, Name: req.SenderName}, req.Line)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	if res.Messages == nil {
		res.Messages = []string{}
	}
	writeJSON(w, http.StatusOK, res)
}
