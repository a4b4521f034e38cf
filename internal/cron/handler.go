package cron

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"pasmino/internal/dto"
	apperrors "pasmino/internal/errors"
	"pasmino/internal/httpx"
)

type Runner interface {
	RunOnce(ctx context.Context) (Result, error)
}

type Handler struct {
	runner Runner
	secret string
	logger *zap.Logger
}

// NewHandler serves the cleanup endpoint. An empty secret leaves it open.
func NewHandler(runner Runner, secret string, logger *zap.Logger) *Handler {
	return &Handler{
		runner: runner,
		secret: secret,
		logger: logger,
	}
}

func (h *Handler) CleanupReservations(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		httpx.WriteError(w, r, h.logger, apperrors.NewUnauthorizedError("invalid cron secret"))
		return
	}

	res, err := h.runner.RunOnce(r.Context())
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	h.logger.Info("cleanup executed",
		zap.String("traceId", httpx.TraceID(r.Context())),
		zap.Int("deletedReservations", res.DeletedReservations),
		zap.Int("cancelledOrders", res.CancelledOrders),
	)
	httpx.WriteJSON(w, h.logger, http.StatusOK, dto.CleanupResponse{
		Success:             true,
		DeletedReservations: res.DeletedReservations,
		CancelledOrders:     res.CancelledOrders,
		Timestamp:           res.RanAt,
	})
}

func (h *Handler) authorized(r *http.Request) bool {
	if h.secret == "" {
		return true
	}
	return httpx.BearerMatches(r, h.secret)
}
