package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"pasmino/internal/domain"
	apperrors "pasmino/internal/errors"
	"pasmino/internal/infrastructure/mysql"
)

const (
	maxReasonLength     = 255
	DefaultStatsDays    = 30
	MaxStatsDays        = 365
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

type AdjustInput struct {
	ProductID int64
	NewStock  int
	Reason    string
	ActorID   *int64
}

// AdjustProductStock sets an absolute on-hand quantity and records the change.
// Reservations are untouched; if stock drops below the reserved amount the
// product simply reports zero available.
func (s *StockService) AdjustProductStock(ctx context.Context, in AdjustInput) (*domain.StockMovement, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	if err := validateAdjustInput(in); err != nil {
		return nil, err
	}

	var movement domain.StockMovement
	err := s.tx.InTx(ctx, func(ctx context.Context, tx mysql.DBTX) error {
		product, err := s.products.FindByIDForUpdate(ctx, tx, in.ProductID)
		if err != nil {
			return err
		}

		if err := s.products.UpdateStock(ctx, tx, product.ID, in.NewStock); err != nil {
			return err
		}

		movement = domain.NewStockMovement(product.ID, product.Stock, in.NewStock, in.Reason, in.ActorID, s.now())
		return s.movements.Insert(ctx, tx, &movement)
	})
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); !ok {
			s.logger.Error("failed to adjust stock", zap.Int64("productId", in.ProductID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("stock adjusted",
		zap.Int64("productId", movement.ProductID),
		zap.Int("previousStock", movement.PreviousStock),
		zap.Int("newStock", movement.NewStock),
		zap.String("reason", movement.Reason),
	)
	s.publishMovements(ctx, []domain.StockMovement{movement})

	return &movement, nil
}

func (s *StockService) GetStockMovementStats(ctx context.Context, days int) (*domain.MovementStats, error) {
	if days < 1 || days > MaxStatsDays {
		return nil, apperrors.NewValidationError("invalid days", apperrors.ValidationDetail{
			Field:   "days",
			Message: fmt.Sprintf("days must be between 1 and %d", MaxStatsDays),
		})
	}

	since := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	stats, err := s.movements.Stats(ctx, since)
	if err != nil {
		s.logger.Error("failed to aggregate stock movements", zap.Error(err))
		return nil, err
	}
	stats.Days = days
	stats.Since = since
	return &stats, nil
}

func (s *StockService) GetProductStockHistory(ctx context.Context, productID int64, limit int) ([]domain.StockMovement, error) {
	if limit < 1 || limit > MaxHistoryLimit {
		return nil, apperrors.NewValidationError("invalid limit", apperrors.ValidationDetail{
			Field:   "limit",
			Message: fmt.Sprintf("limit must be between 1 and %d", MaxHistoryLimit),
		})
	}

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	movements, err := s.movements.ListByProduct(ctx, productID, limit)
	if err != nil {
		return nil, err
	}
	if movements == nil {
		movements = []domain.StockMovement{}
	}
	return movements, nil
}

func validateAdjustInput(in AdjustInput) error {
	var details []apperrors.ValidationDetail

	if in.ProductID <= 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "productId",
			Message: "productId must be a positive integer",
		})
	}
	if in.NewStock < 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "newStock",
			Message: "newStock must not be negative",
		})
	}
	if in.Reason == "" {
		details = append(details, apperrors.ValidationDetail{
			Field:   "reason",
			Message: "reason is required",
		})
	} else if utf8.RuneCountInString(in.Reason) > maxReasonLength {
		details = append(details, apperrors.ValidationDetail{
			Field:   "reason",
			Message: "reason must be at most 255 characters",
		})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}
	return nil
}
