package controller

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"pasmino/internal/auth"
	"pasmino/internal/domain"
	"pasmino/internal/dto"
	"pasmino/internal/httpx"
	"pasmino/internal/order/usecase"
)

type CheckoutUseCase interface {
	Checkout(ctx context.Context, in usecase.CheckoutInput) (*usecase.CheckoutResult, error)
}

type OrderService interface {
	GetOrder(ctx context.Context, id int64, viewer *domain.User) (*domain.Order, error)
	HandlePaymentNotification(ctx context.Context, paymentID string) error
}

type OrderController struct {
	checkout CheckoutUseCase
	orders   OrderService
	logger   *zap.Logger
}

func NewOrderController(checkout CheckoutUseCase, orders OrderService, logger *zap.Logger) *OrderController {
	return &OrderController{
		checkout: checkout,
		orders:   orders,
		logger:   logger,
	}
}

func (c *OrderController) Checkout(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req dto.CheckoutRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	items := make([]domain.CartItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = domain.CartItem{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	result, err := c.checkout.Checkout(r.Context(), usecase.CheckoutInput{
		User:      user,
		SessionID: req.SessionID,
		Items:     items,
	})
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	httpx.WriteJSON(w, c.logger, http.StatusCreated, dto.CheckoutResponse{
		OrderID:      result.Order.ID,
		Status:       string(result.Order.Status),
		Total:        result.Order.Total,
		PreferenceID: result.Preference.ID,
		InitPoint:    result.Preference.InitPoint,
	})
}

func (c *OrderController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "orderId")
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}
	user, _ := auth.UserFromContext(r.Context())

	order, err := c.orders.GetOrder(r.Context(), id, user)
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	httpx.WriteJSON(w, c.logger, http.StatusOK, dto.NewOrderDTO(*order))
}

// PaymentWebhook accepts the gateway's notification either as a JSON body or
// as the legacy ?topic=payment&id=... query form.
func (c *OrderController) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	var req dto.PaymentWebhookRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(w, r, &req); err != nil {
			httpx.WriteError(w, r, c.logger, err)
			return
		}
	}

	q := r.URL.Query()
	if req.Type == "" {
		req.Type = firstNonEmpty(q.Get("type"), q.Get("topic"))
	}
	if req.Data.ID == "" {
		req.Data.ID = firstNonEmpty(q.Get("data.id"), q.Get("id"))
	}

	if !strings.EqualFold(req.Type, "payment") {
		c.logger.Debug("webhook ignored", zap.String("type", req.Type), zap.String("traceId", httpx.TraceID(r.Context())))
		httpx.WriteJSON(w, c.logger, http.StatusOK, map[string]bool{"received": true})
		return
	}

	if err := c.orders.HandlePaymentNotification(r.Context(), req.Data.ID); err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	httpx.WriteJSON(w, c.logger, http.StatusOK, map[string]bool{"received": true})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
