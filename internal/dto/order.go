package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"pasmino/internal/domain"
)

type CheckoutRequest struct {
	SessionID string      `json:"sessionId"`
	Items     []StockItem `json:"items"`
}

type CheckoutResponse struct {
	OrderID      int64           `json:"orderId"`
	Status       string          `json:"status"`
	Total        decimal.Decimal `json:"total"`
	PreferenceID string          `json:"preferenceId"`
	InitPoint    string          `json:"initPoint"`
}

type OrderItemDTO struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type PaymentDTO struct {
	Provider     string `json:"provider"`
	PreferenceID string `json:"preferenceId"`
	ExternalID   string `json:"externalId,omitempty"`
	Status       string `json:"status"`
	InitPoint    string `json:"initPoint,omitempty"`
}

type OrderDTO struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"userId"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total"`
	Items     []OrderItemDTO  `json:"items"`
	Payment   *PaymentDTO     `json:"payment,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func NewOrderDTO(o domain.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemDTO{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Subtotal:  item.Subtotal(),
		})
	}

	out := OrderDTO{
		ID:        o.ID,
		UserID:    o.UserID,
		Status:    string(o.Status),
		Total:     o.Total,
		Items:     items,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
	if o.Payment != nil {
		out.Payment = &PaymentDTO{
			Provider:     o.Payment.Provider,
			PreferenceID: o.Payment.PreferenceID,
			ExternalID:   o.Payment.ExternalID,
			Status:       o.Payment.Status,
			InitPoint:    o.Payment.InitPoint,
		}
	}
	return out
}

// PaymentWebhookRequest is the gateway notification body; only the payment id
// is trusted, the rest is re-fetched from the gateway.
type PaymentWebhookRequest struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

type IdentitySyncRequest struct {
	ClerkID string `json:"clerkId"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

type UserDTO struct {
	ID      int64  `json:"id"`
	ClerkID string `json:"clerkId"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Role    string `json:"role"`
}

func NewUserDTO(u domain.User) UserDTO {
	return UserDTO{ID: u.ID, ClerkID: u.ClerkID, Email: u.Email, Name: u.Name, Role: u.Role}
}
