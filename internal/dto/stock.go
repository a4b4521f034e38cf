package dto

import (
	"time"

	"pasmino/internal/domain"
)

type StockItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type ProductStockResponse struct {
	ProductID   int64  `json:"productId"`
	Stock       int    `json:"stock"`
	IsAvailable bool   `json:"isAvailable"`
	Name        string `json:"name"`
}

type AvailableStockResponse struct {
	ProductID      int64 `json:"productId"`
	AvailableStock int   `json:"availableStock"`
}

type AvailabilityCheckResponse struct {
	ProductID         int64 `json:"productId"`
	RequestedQuantity int   `json:"requestedQuantity"`
	Available         bool  `json:"available"`
}

type ValidateStockRequest struct {
	Items []StockItem `json:"items"`
}

type StockIssue struct {
	ProductID         int64  `json:"productId"`
	Name              string `json:"name,omitempty"`
	RequestedQuantity int    `json:"requestedQuantity"`
	AvailableStock    int    `json:"availableStock"`
	Code              string `json:"code"`
	Message           string `json:"message"`
}

type ValidateStockResponse struct {
	IsValid  bool         `json:"isValid"`
	Errors   []StockIssue `json:"errors"`
	Warnings []StockIssue `json:"warnings"`
}

type CartItemResult struct {
	ProductID         int64  `json:"productId"`
	Name              string `json:"name,omitempty"`
	RequestedQuantity int    `json:"requestedQuantity"`
	AvailableStock    int    `json:"availableStock"`
	Available         bool   `json:"available"`
	Status            string `json:"status"`
}

type ValidateCartResponse struct {
	Success bool             `json:"success"`
	Results []CartItemResult `json:"results"`
}

type ReserveRequest struct {
	ProductID  int64  `json:"productId"`
	Quantity   int    `json:"quantity"`
	SessionID  string `json:"sessionId"`
	TTLSeconds int    `json:"ttlSeconds"`
}

type ReservationDTO struct {
	ID        string    `json:"id"`
	ProductID int64     `json:"productId"`
	SessionID string    `json:"sessionId"`
	OrderID   *int64    `json:"orderId,omitempty"`
	Quantity  int       `json:"quantity"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewReservationDTO(r domain.StockReservation) ReservationDTO {
	return ReservationDTO{
		ID:        r.ID,
		ProductID: r.ProductID,
		SessionID: r.SessionID,
		OrderID:   r.OrderID,
		Quantity:  r.Quantity,
		ExpiresAt: r.ExpiresAt,
		CreatedAt: r.CreatedAt,
	}
}

type AdjustStockRequest struct {
	ProductID int64  `json:"productId"`
	NewStock  *int   `json:"newStock"`
	Reason    string `json:"reason"`
}

type MovementDTO struct {
	ID            int64     `json:"id"`
	ProductID     int64     `json:"productId"`
	PreviousStock int       `json:"previousStock"`
	NewStock      int       `json:"newStock"`
	Delta         int       `json:"delta"`
	Reason        string    `json:"reason"`
	UserID        *int64    `json:"userId"`
	CreatedAt     time.Time `json:"createdAt"`
}

func NewMovementDTO(m domain.StockMovement) MovementDTO {
	return MovementDTO{
		ID:            m.ID,
		ProductID:     m.ProductID,
		PreviousStock: m.PreviousStock,
		NewStock:      m.NewStock,
		Delta:         m.Delta,
		Reason:        m.Reason,
		UserID:        m.UserID,
		CreatedAt:     m.CreatedAt,
	}
}

type AdjustStockResponse struct {
	Message  string      `json:"message"`
	Movement MovementDTO `json:"movement"`
}

type MovementsResponse struct {
	ProductID int64         `json:"productId"`
	Movements []MovementDTO `json:"movements"`
}

type ReasonStatsDTO struct {
	Reason   string `json:"reason"`
	Count    int    `json:"count"`
	NetDelta int    `json:"netDelta"`
}

type StockStatsResponse struct {
	Days             int              `json:"days"`
	Since            time.Time        `json:"since"`
	TotalMovements   int              `json:"totalMovements"`
	TotalIncrease    int              `json:"totalIncrease"`
	TotalDecrease    int              `json:"totalDecrease"`
	NetChange        int              `json:"netChange"`
	ProductsAffected int              `json:"productsAffected"`
	ByReason         []ReasonStatsDTO `json:"byReason"`
}

func NewStockStatsResponse(s domain.MovementStats) StockStatsResponse {
	byReason := make([]ReasonStatsDTO, 0, len(s.ByReason))
	for _, r := range s.ByReason {
		byReason = append(byReason, ReasonStatsDTO{Reason: r.Reason, Count: r.Count, NetDelta: r.NetDelta})
	}
	return StockStatsResponse{
		Days:             s.Days,
		Since:            s.Since,
		TotalMovements:   s.TotalMovements,
		TotalIncrease:    s.TotalIncrease,
		TotalDecrease:    s.TotalDecrease,
		NetChange:        s.NetChange(),
		ProductsAffected: s.ProductsAffected,
		ByReason:         byReason,
	}
}

type LowStockProductDTO struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	Stock          int    `json:"stock"`
	ReservedStock  int    `json:"reservedStock"`
	AvailableStock int    `json:"availableStock"`
	IsAvailable    bool   `json:"isAvailable"`
	Level          string `json:"level"`
}

type LowStockResponse struct {
	Products  []LowStockProductDTO `json:"products"`
	Threshold int                  `json:"threshold"`
	Total     int                  `json:"total"`
	Critical  int                  `json:"critical"`
	Warning   int                  `json:"warning"`
	Low       int                  `json:"low"`
}

type CleanupResponse struct {
	Success             bool      `json:"success"`
	DeletedReservations int       `json:"deletedReservations"`
	CancelledOrders     int       `json:"cancelledOrders"`
	Timestamp           time.Time `json:"timestamp"`
}
