package api

import (
	"fmt"
	"net/http"
)

// StatsProvider reports the rank service's counters.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves GET /stats. Repeated key parameters narrow the reply,
// e.g. /stats?key=players&key=lastLoad.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	stats := h.provider.GetStats()
	keys := r.URL.Query()["key"]
	if len(keys) == 0 {
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, stats)
		return
	}

	out := make(map[string]interface{}, len(keys))
	for _, k := range keys {
		v, ok := stats[k]
		if !ok {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind("stats", ErrBadRequest, fmt.Errorf("unknown key %q", k)))
			return
		}
		out[k] = v
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, out)
}
