package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/rs/zerolog/log"
)

const healthTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service liveness.
type HealthHandler struct {
	store Pinger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// HealthResponse is the body of a health check.
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Health pings the store.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("Health check failed")
		respond(w, r, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Error: "store unreachable"})
		return
	}
	respond(w, r, http.StatusOK, HealthResponse{Status: "ok"})
}

// Welcome answers the root path.
func (h *HealthHandler) Welcome(w http.ResponseWriter, r *http.Request) {
	render.PlainText(w, r, "Welcome to Techinsight Hub!")
}
