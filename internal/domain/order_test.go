package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderItem_Subtotal(t *testing.T) {
	item := OrderItem{
		ProductID: 5,
		Quantity:  3,
		Price:     decimal.RequireFromString("1250.50"),
	}

	assert.True(t, decimal.RequireFromString("3751.50").Equal(item.Subtotal()))
}

func TestOrder_ComputeTotal(t *testing.T) {
	order := Order{
		Items: []OrderItem{
			{ProductID: 1, Quantity: 2, Price: decimal.RequireFromString("1000")},
			{ProductID: 2, Quantity: 1, Price: decimal.RequireFromString("350.25")},
		},
	}

	assert.Equal(t, "2350.25", order.ComputeTotal().StringFixed(2))
}

func TestOrder_ComputeTotal_Empty(t *testing.T) {
	assert.True(t, Order{}.ComputeTotal().IsZero())
}

func TestOrder_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{"pending to paid", OrderStatusPending, OrderStatusPaid, true},
		{"pending to failed", OrderStatusPending, OrderStatusFailed, true},
		{"pending to cancelled", OrderStatusPending, OrderStatusCancelled, true},
		{"pending to pending", OrderStatusPending, OrderStatusPending, false},
		{"paid to cancelled", OrderStatusPaid, OrderStatusCancelled, false},
		{"failed to paid", OrderStatusFailed, OrderStatusPaid, false},
		{"cancelled to paid", OrderStatusCancelled, OrderStatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Order{Status: tt.from}
			assert.Equal(t, tt.want, o.CanTransitionTo(tt.to))
		})
	}
}
