package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/dtroode/session-server/internal/logger"
	"github.com/dtroode/session-server/internal/model"
)

const healthTimeout = 2 * time.Second

type Health struct {
	pinger model.Pinger
	logger *logger.Logger
}

func NewHealth(pinger model.Pinger, logger *logger.Logger) *Health {
	return &Health{pinger: pinger, logger: logger}
}

type healthResponse struct {
	Status string `json:"status"`
}

func (h *Health) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		h.logger.Warn("HTTP handler: health check failed", "error", err.Error())
		WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
