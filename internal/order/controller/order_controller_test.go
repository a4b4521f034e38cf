package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pasmino/internal/auth"
	"pasmino/internal/domain"
	"pasmino/internal/dto"
	apperrors "pasmino/internal/errors"
	"pasmino/internal/order/usecase"
	"pasmino/internal/payment"
)

type mockCheckoutUseCase struct {
	CheckoutFunc func(ctx context.Context, in usecase.CheckoutInput) (*usecase.CheckoutResult, error)
}

func (m *mockCheckoutUseCase) Checkout(ctx context.Context, in usecase.CheckoutInput) (*usecase.CheckoutResult, error) {
	return m.CheckoutFunc(ctx, in)
}

type mockOrderService struct {
	GetOrderFunc                  func(ctx context.Context, id int64, viewer *domain.User) (*domain.Order, error)
	HandlePaymentNotificationFunc func(ctx context.Context, paymentID string) error
}

func (m *mockOrderService) GetOrder(ctx context.Context, id int64, viewer *domain.User) (*domain.Order, error) {
	return m.GetOrderFunc(ctx, id, viewer)
}

func (m *mockOrderService) HandlePaymentNotification(ctx context.Context, paymentID string) error {
	return m.HandlePaymentNotificationFunc(ctx, paymentID)
}

var buyer = &domain.User{ID: 7, ClerkID: "user_7", Role: domain.RoleCustomer}

func withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), buyer)))
	})
}

func newRouter(checkout CheckoutUseCase, orders OrderService) http.Handler {
	c := NewOrderController(checkout, orders, zap.NewNop())
	r := chi.NewRouter()
	r.With(withUser).Post("/checkout", c.Checkout)
	r.With(withUser).Get("/orders/{orderId}", c.Get)
	r.Post("/webhooks/payments", c.PaymentWebhook)
	return r
}

func TestOrderController_Checkout(t *testing.T) {
	var got usecase.CheckoutInput
	checkout := &mockCheckoutUseCase{
		CheckoutFunc: func(ctx context.Context, in usecase.CheckoutInput) (*usecase.CheckoutResult, error) {
			got = in
			return &usecase.CheckoutResult{
				Order:      domain.Order{ID: 100, Status: domain.OrderStatusPending, Total: decimal.RequireFromString("3000")},
				Preference: payment.Preference{ID: "pref-100", InitPoint: "https://mp/pref-100"},
			}, nil
		},
	}

	body := `{"sessionId":"sess-1","items":[{"productId":1,"quantity":2}]}`
	rec := httptest.NewRecorder()
	newRouter(checkout, &mockOrderService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, buyer, got.User)
	assert.Equal(t, "sess-1", got.SessionID)
	assert.Equal(t, []domain.CartItem{{ProductID: 1, Quantity: 2}}, got.Items)

	var resp dto.CheckoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(100), resp.OrderID)
	assert.Equal(t, "PENDING", resp.Status)
	assert.Equal(t, "https://mp/pref-100", resp.InitPoint)
}

func TestOrderController_Checkout_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"out of stock", apperrors.NewOutOfStockError(1, 2, 0), http.StatusConflict},
		{"gateway", apperrors.NewUpstreamError("mercadopago", errors.New("down")), http.StatusBadGateway},
		{"validation", apperrors.NewValidationError("validation failed"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkout := &mockCheckoutUseCase{
				CheckoutFunc: func(ctx context.Context, in usecase.CheckoutInput) (*usecase.CheckoutResult, error) {
					return nil, tt.err
				},
			}
			rec := httptest.NewRecorder()
			newRouter(checkout, &mockOrderService{}).ServeHTTP(rec,
				httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{"sessionId":"s","items":[]}`)))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestOrderController_Get(t *testing.T) {
	orders := &mockOrderService{
		GetOrderFunc: func(ctx context.Context, id int64, viewer *domain.User) (*domain.Order, error) {
			if viewer.ID != 7 {
				return nil, apperrors.NewForbiddenError("order belongs to another user")
			}
			return &domain.Order{
				ID: id, UserID: 7, Status: domain.OrderStatusPaid,
				Items: []domain.OrderItem{{ProductID: 1, Quantity: 2, Price: decimal.RequireFromString("1500")}},
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	newRouter(&mockCheckoutUseCase{}, orders).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/100", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.OrderDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "PAID", resp.Status)
	require.Len(t, resp.Items, 1)
	assert.True(t, decimal.RequireFromString("3000").Equal(resp.Items[0].Subtotal))
}

func TestOrderController_PaymentWebhook(t *testing.T) {
	var handled []string
	orders := &mockOrderService{
		HandlePaymentNotificationFunc: func(ctx context.Context, paymentID string) error {
			handled = append(handled, paymentID)
			return nil
		},
	}
	router := newRouter(&mockCheckoutUseCase{}, orders)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/payments",
		strings.NewReader(`{"type":"payment","action":"payment.updated","data":{"id":"123"}}`)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/payments?topic=payment&id=456", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/payments",
		strings.NewReader(`{"type":"merchant_order","data":{"id":"789"}}`)))
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"123", "456"}, handled)
}

func TestOrderController_PaymentWebhook_UpstreamFailure(t *testing.T) {
	orders := &mockOrderService{
		HandlePaymentNotificationFunc: func(ctx context.Context, paymentID string) error {
			return apperrors.NewUpstreamError("mercadopago", errors.New("timeout"))
		},
	}

	rec := httptest.NewRecorder()
	newRouter(&mockCheckoutUseCase{}, orders).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/payments",
		strings.NewReader(`{"type":"payment","data":{"id":"1"}}`)))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
