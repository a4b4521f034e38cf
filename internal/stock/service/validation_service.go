package service

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"pasmino/internal/domain"
	apperrors "pasmino/internal/errors"
)

const MaxValidationItems = 100

type ItemStatus string

const (
	ItemStatusOK         ItemStatus = "OK"
	ItemStatusLowStock   ItemStatus = "LOW_STOCK"
	ItemStatusOutOfStock ItemStatus = "OUT_OF_STOCK"
	ItemStatusInactive   ItemStatus = "INACTIVE"
	ItemStatusNotFound   ItemStatus = "NOT_FOUND"
)

type ItemCheck struct {
	ProductID int64
	Name      string
	Requested int
	Available int
	Status    ItemStatus
}

// Valid is true for items that can be bought as requested.
func (c ItemCheck) Valid() bool {
	return c.Status == ItemStatusOK || c.Status == ItemStatusLowStock
}

// ValidateItems checks every requested line against current availability.
// It never fails because of stock; shortages are reported per item.
func (s *StockService) ValidateItems(ctx context.Context, items []domain.CartItem) ([]ItemCheck, error) {
	if err := ValidateCartItems(items); err != nil {
		return nil, err
	}

	s.lazySweep(ctx)

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("failed to load products for validation", zap.Error(err))
		return nil, err
	}
	byID := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	checks := make([]ItemCheck, 0, len(items))
	for _, item := range items {
		check := ItemCheck{ProductID: item.ProductID, Requested: item.Quantity}

		p, ok := byID[item.ProductID]
		if !ok {
			check.Status = ItemStatusNotFound
			checks = append(checks, check)
			continue
		}

		check.Name = p.Name
		check.Available = p.AvailableStock()
		switch {
		case !p.Sellable():
			check.Status = ItemStatusInactive
		case check.Available < item.Quantity:
			check.Status = ItemStatusOutOfStock
		case check.Available-item.Quantity <= domain.WarningBandCeiling:
			check.Status = ItemStatusLowStock
		default:
			check.Status = ItemStatusOK
		}
		checks = append(checks, check)
	}

	return checks, nil
}

// ValidateCartItems checks the shape of a cart: 1..100 lines, positive ids and
// quantities, no repeated products.
func ValidateCartItems(items []domain.CartItem) error {
	var details []apperrors.ValidationDetail

	if len(items) == 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "items",
			Message: "items must not be empty",
		})
	}
	if len(items) > MaxValidationItems {
		details = append(details, apperrors.ValidationDetail{
			Field:   "items",
			Message: "items exceeds maximum of 100",
		})
	}

	seen := make(map[int64]bool)
	for idx, item := range items {
		field := "items[" + strconv.Itoa(idx) + "]"
		if item.ProductID <= 0 {
			details = append(details, apperrors.ValidationDetail{
				Field:   field + ".productId",
				Message: "each productId must be a positive integer",
			})
		}
		if seen[item.ProductID] {
			details = append(details, apperrors.ValidationDetail{
				Field:   field + ".productId",
				Message: "productId must not be duplicated",
			})
		}
		seen[item.ProductID] = true

		if item.Quantity < 1 {
			details = append(details, apperrors.ValidationDetail{
				Field:   field + ".quantity",
				Message: "quantity must be at least 1",
			})
		}
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}
	return nil
}
