package handler

import (
	"context"
	"net/http"
	"time"

	"problembox/internal/httputil"
)

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves GET /health.
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a health handler. A nil pinger skips the check.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health reports ok, or 503 when the database is unreachable.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			httputil.RespondError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
