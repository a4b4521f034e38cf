package domain

import "time"

type LowStockEvent struct {
	ProductID      int64     `json:"productId"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	AvailableStock int       `json:"availableStock"`
	Band           StockBand `json:"band"`
	Threshold      int       `json:"threshold"`
	OccurredAt     time.Time `json:"occurredAt"`
}

type StockMovementEvent struct {
	MovementID    int64     `json:"movementId"`
	ProductID     int64     `json:"productId"`
	PreviousStock int       `json:"previousStock"`
	NewStock      int       `json:"newStock"`
	Delta         int       `json:"delta"`
	Reason        string    `json:"reason"`
	UserID        *int64    `json:"userId,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

func NewStockMovementEvent(m StockMovement) StockMovementEvent {
	return StockMovementEvent{
		MovementID:    m.ID,
		ProductID:     m.ProductID,
		PreviousStock: m.PreviousStock,
		NewStock:      m.NewStock,
		Delta:         m.Delta,
		Reason:        m.Reason,
		UserID:        m.UserID,
		OccurredAt:    m.CreatedAt,
	}
}
