package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            int64
	CategoryID    *int64
	Name          string
	Slug          string
	Description   string
	Price         decimal.Decimal
	Stock         int
	ReservedStock int
	IsActive      bool
	IsAvailable   bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AvailableStock is on-hand stock net of active reservations. It never goes
// below zero, even if an adjustment set stock under the reserved amount.
func (p Product) AvailableStock() int {
	available := p.Stock - p.ReservedStock
	if available < 0 {
		return 0
	}
	return available
}

// Sellable reports whether the product may be reserved or ordered at all.
func (p Product) Sellable() bool {
	return p.IsActive && p.IsAvailable
}

type Category struct {
	ID   int64
	Name string
	Slug string
}
