package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"pasmino/internal/config"
	apperrors "pasmino/internal/errors"
)

const (
	provider = "mercadopago"
	currency = "ARS"
)

// Payment statuses reported by the gateway.
const (
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

type PreferenceItem struct {
	ProductID int64
	Title     string
	Quantity  int
	UnitPrice decimal.Decimal
}

type PreferenceRequest struct {
	OrderID    int64
	PayerEmail string
	Items      []PreferenceItem
}

type Preference struct {
	ID        string
	InitPoint string
}

type Info struct {
	ID      string
	Status  string
	OrderID int64
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.code, e.body)
}

type Client struct {
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	cfg     config.PaymentConfig
	logger  *zap.Logger
}

func NewClient(cfg config.PaymentConfig, logger *zap.Logger) *Client {
	settings := gobreaker.Settings{
		Name:        provider,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var se *statusError
			if errors.As(err, &se) {
				return se.code < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("payment circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
		cfg:     cfg,
		logger:  logger,
	}
}

type preferenceItemBody struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type preferenceBody struct {
	Items             []preferenceItemBody `json:"items"`
	ExternalReference string               `json:"external_reference"`
	Payer             *payerBody           `json:"payer,omitempty"`
	BackURLs          backURLsBody         `json:"back_urls"`
	AutoReturn        string               `json:"auto_return,omitempty"`
	NotificationURL   string               `json:"notification_url,omitempty"`
}

type payerBody struct {
	Email string `json:"email"`
}

type backURLsBody struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

// CreatePreference registers a checkout with the gateway and returns the URL
// the buyer is redirected to.
func (c *Client) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	body := preferenceBody{
		ExternalReference: strconv.FormatInt(req.OrderID, 10),
		BackURLs: backURLsBody{
			Success: c.cfg.SuccessURL,
			Failure: c.cfg.FailureURL,
			Pending: c.cfg.PendingURL,
		},
		NotificationURL: c.cfg.NotificationURL,
	}
	if c.cfg.SuccessURL != "" {
		body.AutoReturn = "approved"
	}
	if req.PayerEmail != "" {
		body.Payer = &payerBody{Email: req.PayerEmail}
	}
	for _, item := range req.Items {
		body.Items = append(body.Items, preferenceItemBody{
			ID:         strconv.FormatInt(item.ProductID, 10),
			Title:      item.Title,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice.InexactFloat64(),
			CurrencyID: currency,
		})
	}

	raw, err := c.do(ctx, http.MethodPost, "/checkout/preferences", body)
	if err != nil {
		return nil, err
	}

	var out struct {
		ID        string `json:"id"`
		InitPoint string `json:"init_point"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, apperrors.NewUpstreamError(provider, fmt.Errorf("decoding preference: %w", err))
	}
	if out.ID == "" {
		return nil, apperrors.NewUpstreamError(provider, errors.New("preference response without id"))
	}

	c.logger.Info("payment preference created",
		zap.Int64("orderId", req.OrderID),
		zap.String("preferenceId", out.ID),
	)
	return &Preference{ID: out.ID, InitPoint: out.InitPoint}, nil
}

// GetPayment fetches a payment by the id carried in a webhook notification.
func (c *Client) GetPayment(ctx context.Context, id string) (*Info, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.NewValidationError("payment id is required", apperrors.ValidationDetail{
			Field:   "data.id",
			Message: "payment id is required",
		})
	}
	if !isNumericID(id) {
		return nil, apperrors.NewValidationError("invalid payment id", apperrors.ValidationDetail{
			Field:   "data.id",
			Message: "payment id must be numeric",
		})
	}

	raw, err := c.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		ID                json.Number `json:"id"`
		Status            string      `json:"status"`
		ExternalReference string      `json:"external_reference"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, apperrors.NewUpstreamError(provider, fmt.Errorf("decoding payment: %w", err))
	}

	orderID, err := strconv.ParseInt(out.ExternalReference, 10, 64)
	if err != nil {
		return nil, apperrors.NewValidationError("payment has no order reference", apperrors.ValidationDetail{
			Field:   "external_reference",
			Message: "payment is not linked to an order",
		})
	}

	return &Info{ID: out.ID.String(), Status: out.Status, OrderID: orderID}, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	if c.cfg.AccessToken == "" {
		return nil, apperrors.NewUpstreamError(provider, errors.New("access token not configured"))
	}

	var reqBody []byte
	if payload != nil {
		var err error
		if reqBody, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
	}

	raw, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.BaseURL, "/")+path, bytes.NewReader(reqBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &statusError{code: resp.StatusCode, body: truncate(string(data), 200)}
		}
		return data, nil
	})
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return nil, apperrors.NewNotFoundError("payment resource not found")
		}
		c.logger.Error("payment gateway call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, apperrors.NewUpstreamError(provider, err)
	}
	return raw, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// isNumericID reports whether id is a gateway payment id, which is always a
// positive decimal number.
func isNumericID(id string) bool {
	if len(id) > 20 {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return id != ""
}
