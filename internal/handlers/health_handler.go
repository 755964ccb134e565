package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HealthChecker reports whether the content store answers
type HealthChecker interface {
	IsConnected(ctx context.Context) bool
}

// HealthHandler handles the health check endpoint
type HealthHandler struct {
	BaseHandler
	checker HealthChecker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(checker HealthChecker, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		checker:     checker,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers the health route
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
}

// Health handles GET /health
// The site keeps serving without a database, so the status is always 200.
// @Summary Health check
// @Description Report service status and whether the content database answers
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{} "status and database flag"
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"database": h.checker.IsConnected(r.Context()),
	})
}
