package api

import (
	"context"
	"crypto/subtle"
	"net/http"
)

// AdminTokenHeader carries the admin token.
const AdminTokenHeader = "X-Admin-Token"

// AdminDependencies defines administrative operations.
type AdminDependencies interface {
	Reset(ctx context.Context) error
	Recompute(ctx context.Context) (int, error)
}

// AdminHandler handles administrative requests. With no token configured
// every admin request is refused.
type AdminHandler struct {
	deps  AdminDependencies
	token string
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps AdminDependencies, token string) *AdminHandler {
	return &AdminHandler{deps: deps, token: token}
}

func (h *AdminHandler) authorized(r *http.Request) bool {
	if h.token == "" {
		return false
	}
	got := r.Header.Get(AdminTokenHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) == 1
}

// HandleReset handles POST /reset requests.
func (h *AdminHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_reset"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if !h.authorized(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized", NewKind(op, ErrUnauthorized))
		return
	}
	if err := h.deps.Reset(r.Context()); err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// HandleRecompute handles POST /recompute requests.
func (h *AdminHandler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_recompute"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if !h.authorized(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized", NewKind(op, ErrUnauthorized))
		return
	}
	n, err := h.deps.Recompute(r.Context())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"promotions": n})
}
