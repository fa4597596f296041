package handler

import (
	"context"
	"net/http"
	"time"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	clients func() int
	started time.Time
}

func NewHealthHandler(db Pinger, clients func() int) *HealthHandler {
	return &HealthHandler{db: db, clients: clients, started: time.Now()}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "database": "unreachable"})
		return
	}

	resp := map[string]any{
		"status":   "ok",
		"database": "connected",
		"uptime":   time.Since(h.started).Round(time.Second).String(),
	}
	if h.clients != nil {
		resp["clients"] = h.clients()
	}
	writeJSON(w, http.StatusOK, resp)
}
