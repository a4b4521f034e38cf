package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"pasmino/internal/domain"
	"pasmino/internal/dto"
	apperrors "pasmino/internal/errors"
	"pasmino/internal/httpx"
	"pasmino/internal/stock/service"
)

type StockService interface {
	GetProductStock(ctx context.Context, productID int64) (*service.ProductStock, error)
	GetAvailableStock(ctx context.Context, productID int64) (int, error)
	HasAvailableStock(ctx context.Context, productID int64, quantity int) (bool, error)
	ValidateItems(ctx context.Context, items []domain.CartItem) ([]service.ItemCheck, error)
	Reserve(ctx context.Context, in service.ReserveInput) (*domain.StockReservation, error)
	Release(ctx context.Context, reservationID, sessionID string) error
}

type StockController struct {
	service StockService
	logger  *zap.Logger
}

func NewStockController(service StockService, logger *zap.Logger) *StockController {
	return &StockController{
		service: service,
		logger:  logger,
	}
}

func (c *StockController) GetProductStock(w http.ResponseWriter, r *http.Request) {
	productID, err := httpx.PathID(r, "productId")
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	stock, err := c.service.GetProductStock(r.Context(), productID)
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	httpx.WriteJSON(w, c.logger, http.StatusOK, dto.ProductStockResponse{
		ProductID:   stock.ProductID,
		Stock:       stock.Stock,
		IsAvailable: stock.IsAvailable,
		Name:        stock.Name,
	})
}

// GetAvailable answers with the net available stock, or with a yes/no check
// when a quantity is given.
func (c *StockController) GetAvailable(w http.ResponseWriter, r *http.Request) {
	productID, err := httpx.QueryID(r, "productId")
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	if r.URL.Query().Get("quantity") != "" {
		quantity, err := httpx.QueryInt(r, "quantity", 0, 0, 1_000_000)
		if err != nil {
			httpx.WriteError(w, r, c.logger, err)
			return
		}

		ok, err := c.service.HasAvailableStock(r.Context(), productID, quantity)
		if err != nil {
			httpx.WriteError(w, r, c.logger, err)
			return
		}

		httpx.WriteJSON(w, c.logger, http.StatusOK, dto.AvailabilityCheckResponse{
			ProductID:         productID,
			RequestedQuantity: quantity,
			Available:         ok,
		})
		return
	}

	available, err := c.service.GetAvailableStock(r.Context(), productID)
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	httpx.WriteJSON(w, c.logger, http.StatusOK, dto.AvailableStockResponse{
		ProductID:      productID,
		AvailableStock: available,
	})
}

func (c *StockController) Validate(w http.ResponseWriter, r *http.Request) {
	checks, ok := c.validate(w, r)
	if !ok {
		return
	}

	resp := dto.ValidateStockResponse{
		IsValid:  true,
		Errors:   []dto.StockIssue{},
		Warnings: []dto.StockIssue{},
	}
	for _, check := range checks {
		issue := dto.StockIssue{
			ProductID:         check.ProductID,
			Name:              check.Name,
			RequestedQuantity: check.Requested,
			AvailableStock:    check.Available,
			Code:              string(check.Status),
			Message:           issueMessage(check),
		}
		switch {
		case !check.Valid():
			resp.IsValid = false
			resp.Errors = append(resp.Errors, issue)
		case check.Status == service.ItemStatusLowStock:
			resp.Warnings = append(resp.Warnings, issue)
		}
	}

	httpx.WriteJSON(w, c.logger, http.StatusOK, resp)
}

func (c *StockController) ValidateCart(w http.ResponseWriter, r *http.Request) {
	checks, ok := c.validate(w, r)
	if !ok {
		return
	}

	resp := dto.ValidateCartResponse{
		Success: true,
		Results: make([]dto.CartItemResult, 0, len(checks)),
	}
	for _, check := range checks {
		if !check.Valid() {
			resp.Success = false
		}
		resp.Results = append(resp.Results, dto.CartItemResult{
			ProductID:         check.ProductID,
			Name:              check.Name,
			RequestedQuantity: check.Requested,
			AvailableStock:    check.Available,
			Available:         check.Valid(),
			Status:            string(check.Status),
		})
	}

	httpx.WriteJSON(w, c.logger, http.StatusOK, resp)
}

func (c *StockController) validate(w http.ResponseWriter, r *http.Request) ([]service.ItemCheck, bool) {
	var req dto.ValidateStockRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return nil, false
	}

	checks, err := c.service.ValidateItems(r.Context(), toCartItems(req.Items))
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return nil, false
	}
	return checks, true
}

func (c *StockController) Reserve(w http.ResponseWriter, r *http.Request) {
	var req dto.ReserveRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	if req.TTLSeconds < 0 {
		httpx.WriteError(w, r, c.logger, apperrors.NewValidationError("validation failed", apperrors.ValidationDetail{
			Field:   "ttlSeconds",
			Message: "ttlSeconds must not be negative",
		}))
		return
	}

	reservation, err := c.service.Reserve(r.Context(), service.ReserveInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		SessionID: req.SessionID,
		TTL:       time.Duration(req.TTLSeconds) * time.Second,
	})
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	httpx.WriteJSON(w, c.logger, http.StatusCreated, dto.NewReservationDTO(*reservation))
}

func (c *StockController) Release(w http.ResponseWriter, r *http.Request) {
	reservationID := chi.URLParam(r, "reservationId")
	sessionID := r.URL.Query().Get("sessionId")

	if err := c.service.Release(r.Context(), reservationID, sessionID); err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toCartItems(items []dto.StockItem) []domain.CartItem {
	out := make([]domain.CartItem, len(items))
	for i, item := range items {
		out[i] = domain.CartItem{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	return out
}

func issueMessage(check service.ItemCheck) string {
	switch check.Status {
	case service.ItemStatusNotFound:
		return "product not found"
	case service.ItemStatusInactive:
		return "product is not available for sale"
	case service.ItemStatusOutOfStock:
		return "requested quantity exceeds available stock"
	case service.ItemStatusLowStock:
		return "few units left after this purchase"
	}
	return ""
}
