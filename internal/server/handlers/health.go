package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/fitsync/pkg/api"
)

const pingTimeout = 2 * time.Second

// Pinger проверка доступности базы данных
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	db     Pinger
	logger *slog.Logger
}

// NewHealthHandler создает новый handler для health check
func NewHealthHandler(db Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		logger: logger,
	}
}

// Health обрабатывает GET /api/v1/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error("health check: database unavailable", slog.Any("error", err))
		writeJSON(w, h.logger, http.StatusServiceUnavailable, api.HealthResponse{
			Status:   "degraded",
			Database: "unavailable",
		})
		return
	}

	writeJSON(w, h.logger, http.StatusOK, api.HealthResponse{Status: "ok", Database: "ok"})
}
