package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"pasmino/internal/domain"
	apperrors "pasmino/internal/errors"
)

const MaxLowStockThreshold = 1000

type ProductStock struct {
	ProductID   int64
	Name        string
	Stock       int
	IsAvailable bool
}

type LowStockProduct struct {
	Product   domain.Product
	Available int
	Band      domain.StockBand
}

type LowStockReport struct {
	Products  []LowStockProduct
	Threshold int
	Total     int
	Critical  int
	Warning   int
	Low       int
}

// GetProductStock returns on-hand stock, not net of reservations.
func (s *StockService) GetProductStock(ctx context.Context, productID int64) (*ProductStock, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &ProductStock{
		ProductID:   p.ID,
		Name:        p.Name,
		Stock:       p.Stock,
		IsAvailable: p.IsAvailable,
	}, nil
}

// GetAvailableStock returns on-hand stock net of active reservations.
func (s *StockService) GetAvailableStock(ctx context.Context, productID int64) (int, error) {
	s.lazySweep(ctx)

	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return 0, err
	}
	return p.AvailableStock(), nil
}

func (s *StockService) HasAvailableStock(ctx context.Context, productID int64, quantity int) (bool, error) {
	if quantity < 0 {
		return false, apperrors.NewValidationError("invalid quantity", apperrors.ValidationDetail{
			Field:   "quantity",
			Message: "quantity must not be negative",
		})
	}

	available, err := s.GetAvailableStock(ctx, productID)
	if err != nil {
		return false, err
	}
	return available >= quantity, nil
}

// GetLowStockProducts lists active products at or below threshold and raises a
// notification for each critical or warning product.
func (s *StockService) GetLowStockProducts(ctx context.Context, threshold int) (*LowStockReport, error) {
	if threshold < 0 || threshold > MaxLowStockThreshold {
		return nil, apperrors.NewValidationError("invalid threshold", apperrors.ValidationDetail{
			Field:   "threshold",
			Message: fmt.Sprintf("threshold must be between 0 and %d", MaxLowStockThreshold),
		})
	}

	s.lazySweep(ctx)

	products, err := s.products.ListLowStock(ctx, threshold)
	if err != nil {
		s.logger.Error("failed to list low stock products", zap.Error(err))
		return nil, err
	}

	report := &LowStockReport{
		Products:  make([]LowStockProduct, 0, len(products)),
		Threshold: threshold,
		Total:     len(products),
	}
	for _, p := range products {
		available := p.AvailableStock()
		band := domain.ClassifyStock(available, threshold)
		switch band {
		case domain.StockBandCritical:
			report.Critical++
		case domain.StockBandWarning:
			report.Warning++
		case domain.StockBandLow:
			report.Low++
		}
		report.Products = append(report.Products, LowStockProduct{Product: p, Available: available, Band: band})
	}

	s.notifyLowStock(ctx, report)

	return report, nil
}

func (s *StockService) notifyLowStock(ctx context.Context, report *LowStockReport) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := s.publishContext(ctx)
	defer cancel()

	for _, item := range report.Products {
		if item.Band != domain.StockBandCritical && item.Band != domain.StockBandWarning {
			continue
		}
		log := s.logger.With(zap.Int64("productId", item.Product.ID), zap.String("band", string(item.Band)))

		if s.deduper != nil {
			key := fmt.Sprintf("%d:%s", item.Product.ID, item.Band)
			first, err := s.deduper.FirstSeen(ctx, key, s.cfg.NotificationTTL)
			if err != nil {
				log.Warn("low stock dedup unavailable, notifying anyway", zap.Error(err))
			} else if !first {
				continue
			}
		}

		err := s.publisher.PublishLowStock(ctx, domain.LowStockEvent{
			ProductID:      item.Product.ID,
			Name:           item.Product.Name,
			Slug:           item.Product.Slug,
			AvailableStock: item.Available,
			Band:           item.Band,
			Threshold:      report.Threshold,
			OccurredAt:     s.now(),
		})
		if err != nil {
			log.Warn("failed to publish low stock notification", zap.Error(err))
			continue
		}
		log.Info("low stock notification sent", zap.Int("availableStock", item.Available))
	}
}
