package controller

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"pasmino/internal/auth"
	"pasmino/internal/domain"
	"pasmino/internal/dto"
	apperrors "pasmino/internal/errors"
	"pasmino/internal/httpx"
	"pasmino/internal/stock/service"
)

type AdminStockService interface {
	AdjustProductStock(ctx context.Context, in service.AdjustInput) (*domain.StockMovement, error)
	GetStockMovementStats(ctx context.Context, days int) (*domain.MovementStats, error)
	GetProductStockHistory(ctx context.Context, productID int64, limit int) ([]domain.StockMovement, error)
	GetLowStockProducts(ctx context.Context, threshold int) (*service.LowStockReport, error)
}

type AdminController struct {
	service           AdminStockService
	lowStockThreshold int
	logger            *zap.Logger
}

func NewAdminController(service AdminStockService, lowStockThreshold int, logger *zap.Logger) *AdminController {
	return &AdminController{
		service:           service,
		lowStockThreshold: lowStockThreshold,
		logger:            logger,
	}
}

func (c *AdminController) Adjust(w http.ResponseWriter, r *http.Request) {
	var req dto.AdjustStockRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	if req.NewStock == nil {
		httpx.WriteError(w, r, c.logger, apperrors.NewValidationError("validation failed", apperrors.ValidationDetail{
			Field:   "newStock",
			Message: "newStock is required",
		}))
		return
	}

	var actorID *int64
	if user, ok := auth.UserFromContext(r.Context()); ok {
		actorID = &user.ID
	}

	movement, err := c.service.AdjustProductStock(r.Context(), service.AdjustInput{
		ProductID: req.ProductID,
		NewStock:  *req.NewStock,
		Reason:    req.Reason,
		ActorID:   actorID,
	})
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	httpx.WriteJSON(w, c.logger, http.StatusOK, dto.AdjustStockResponse{
		Message:  "stock updated",
		Movement: dto.NewMovementDTO(*movement),
	})
}

func (c *AdminController) Stats(w http.ResponseWriter, r *http.Request) {
	days, err := httpx.QueryInt(r, "days", service.DefaultStatsDays, 1, service.MaxStatsDays)
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	stats, err := c.service.GetStockMovementStats(r.Context(), days)
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	httpx.WriteJSON(w, c.logger, http.StatusOK, dto.NewStockStatsResponse(*stats))
}

func (c *AdminController) Movements(w http.ResponseWriter, r *http.Request) {
	productID, err := httpx.PathID(r, "productId")
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}
	limit, err := httpx.QueryInt(r, "limit", service.DefaultHistoryLimit, 1, service.MaxHistoryLimit)
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	movements, err := c.service.GetProductStockHistory(r.Context(), productID, limit)
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	resp := dto.MovementsResponse{
		ProductID: productID,
		Movements: make([]dto.MovementDTO, 0, len(movements)),
	}
	for _, m := range movements {
		resp.Movements = append(resp.Movements, dto.NewMovementDTO(m))
	}
	httpx.WriteJSON(w, c.logger, http.StatusOK, resp)
}

func (c *AdminController) LowStock(w http.ResponseWriter, r *http.Request) {
	threshold, err := httpx.QueryInt(r, "threshold", c.lowStockThreshold, 0, service.MaxLowStockThreshold)
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	report, err := c.service.GetLowStockProducts(r.Context(), threshold)
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	resp := dto.LowStockResponse{
		Products:  make([]dto.LowStockProductDTO, 0, len(report.Products)),
		Threshold: report.Threshold,
		Total:     report.Total,
		Critical:  report.Critical,
		Warning:   report.Warning,
		Low:       report.Low,
	}
	for _, item := range report.Products {
		resp.Products = append(resp.Products, dto.LowStockProductDTO{
			ID:             item.Product.ID,
			Name:           item.Product.Name,
			Slug:           item.Product.Slug,
			Stock:          item.Product.Stock,
			ReservedStock:  item.Product.ReservedStock,
			AvailableStock: item.Available,
			IsAvailable:    item.Product.IsAvailable,
			Level:          string(item.Band),
		})
	}
	httpx.WriteJSON(w, c.logger, http.StatusOK, resp)
}
