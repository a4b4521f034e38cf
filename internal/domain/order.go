package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusFailed    OrderStatus = "FAILED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

type Order struct {
	ID        int64
	UserID    int64
	Status    OrderStatus
	Total     decimal.Decimal
	Items     []OrderItem
	Payment   *Payment
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanTransitionTo allows only PENDING orders to move, and only to a terminal status.
func (o Order) CanTransitionTo(next OrderStatus) bool {
	if o.Status != OrderStatusPending {
		return false
	}
	switch next {
	case OrderStatusPaid, OrderStatusFailed, OrderStatusCancelled:
		return true
	}
	return false
}

func (o Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

type OrderItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int
	Price     decimal.Decimal
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Payment struct {
	ID           int64
	OrderID      int64
	Provider     string
	PreferenceID string
	ExternalID   string
	Status       string
	InitPoint    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
