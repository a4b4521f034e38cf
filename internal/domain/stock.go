package domain

import "time"

type StockBand string

const (
	StockBandCritical StockBand = "CRITICAL"
	StockBandWarning  StockBand = "WARNING"
	StockBandLow      StockBand = "LOW"
	StockBandOK       StockBand = "OK"
)

// WarningBandCeiling is the highest available quantity still classified as WARNING.
const WarningBandCeiling = 2

// ClassifyStock places an available quantity in its band: 0 is critical,
// 1..2 warning, 3..threshold low, anything above is OK.
func ClassifyStock(available, threshold int) StockBand {
	switch {
	case available <= 0:
		return StockBandCritical
	case available <= WarningBandCeiling:
		return StockBandWarning
	case available <= threshold:
		return StockBandLow
	default:
		return StockBandOK
	}
}

type StockReservation struct {
	ID        string
	ProductID int64
	SessionID string
	OrderID   *int64
	Quantity  int
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (r StockReservation) IsExpired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

// StockMovement is an append-only audit entry for a stock quantity change.
type StockMovement struct {
	ID            int64
	ProductID     int64
	PreviousStock int
	NewStock      int
	Delta         int
	Reason        string
	UserID        *int64
	CreatedAt     time.Time
}

func NewStockMovement(productID int64, previous, next int, reason string, userID *int64, now time.Time) StockMovement {
	return StockMovement{
		ProductID:     productID,
		PreviousStock: previous,
		NewStock:      next,
		Delta:         next - previous,
		Reason:        reason,
		UserID:        userID,
		CreatedAt:     now,
	}
}

type ReasonStats struct {
	Reason   string
	Count    int
	NetDelta int
}

type MovementStats struct {
	Days             int
	Since            time.Time
	TotalMovements   int
	TotalIncrease    int
	TotalDecrease    int
	ProductsAffected int
	ByReason         []ReasonStats
}

func (s MovementStats) NetChange() int {
	return s.TotalIncrease - s.TotalDecrease
}
