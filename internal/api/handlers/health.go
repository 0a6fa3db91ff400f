package handlers

import (
	"net/http"
)

// Versioned is implemented by street sources that count pushed snapshots.
type Versioned interface {
	Version() uint64
}

// HealthHandler reports liveness and, when available, how many snapshots the
// change feed has delivered.
type HealthHandler struct {
	Feed Versioned
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	res := map[string]any{"status": "ok"}
	if h.Feed != nil {
		v := h.Feed.Version()
		res["snapshot_version"] = v
		res["live"] = v > 0
	}
	writeJSON(w, r, http.StatusOK, res)
}
