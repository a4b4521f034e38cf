package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pasmino/internal/domain"
	apperrors "pasmino/internal/errors"
	"pasmino/internal/infrastructure/mysql"
)

const maxSessionIDLength = 64

type ReserveInput struct {
	ProductID int64
	Quantity  int
	SessionID string
	OrderID   *int64
	TTL       time.Duration
}

// Reserve holds quantity units of a product until the reservation expires or
// is released. Concurrent calls for the same product serialize on its row lock,
// so the last unit can only be reserved once.
func (s *StockService) Reserve(ctx context.Context, in ReserveInput) (*domain.StockReservation, error) {
	if err := validateReserveInput(in); err != nil {
		return nil, err
	}

	var reservation *domain.StockReservation
	err := s.tx.InTx(ctx, func(ctx context.Context, tx mysql.DBTX) error {
		r, err := s.reserveLocked(ctx, tx, in, s.now())
		reservation = r
		return err
	})
	if err != nil {
		if oos, ok := apperrors.IsOutOfStockError(err); ok {
			s.logger.Warn("reservation rejected",
				zap.Int64("productId", oos.ProductID),
				zap.Int("requested", oos.Requested),
				zap.Int("available", oos.Available),
			)
		}
		return nil, err
	}

	s.logger.Info("stock reserved",
		zap.String("reservationId", reservation.ID),
		zap.Int64("productId", reservation.ProductID),
		zap.Int("quantity", reservation.Quantity),
		zap.Time("expiresAt", reservation.ExpiresAt),
	)
	return reservation, nil
}

// ReserveItemsInTx reserves every item against orderID inside the caller's
// transaction, in ascending product id order. Any shortage aborts with an
// OutOfStockError and the caller is expected to roll back.
func (s *StockService) ReserveItemsInTx(ctx context.Context, tx mysql.DBTX, orderID int64, sessionID string, items []domain.CartItem, ttl time.Duration) ([]domain.StockReservation, error) {
	sorted := append([]domain.CartItem(nil), items...)
	domain.SortCartItems(sorted)

	now := s.now()
	reservations := make([]domain.StockReservation, 0, len(sorted))
	for _, item := range sorted {
		r, err := s.reserveLocked(ctx, tx, ReserveInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			SessionID: sessionID,
			OrderID:   &orderID,
			TTL:       ttl,
		}, now)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *r)
	}
	return reservations, nil
}

func (s *StockService) reserveLocked(ctx context.Context, tx mysql.DBTX, in ReserveInput, now time.Time) (*domain.StockReservation, error) {
	// 1. Lock the product row
	product, err := s.products.FindByIDForUpdate(ctx, tx, in.ProductID)
	if err != nil {
		return nil, err
	}

	if !product.Sellable() {
		return nil, apperrors.NewOutOfStockError(product.ID, in.Quantity, 0)
	}

	// 2. Give back what expired before deciding
	_, released, err := s.releaseExpiredLocked(ctx, tx, product.ID, now)
	if err != nil {
		return nil, err
	}
	product.ReservedStock -= released
	if product.ReservedStock < 0 {
		product.ReservedStock = 0
	}

	// 3. Check availability
	available := product.AvailableStock()
	if available < in.Quantity {
		return nil, apperrors.NewOutOfStockError(product.ID, in.Quantity, available)
	}

	// 4. Insert reservation and bump the counter
	reservation := domain.StockReservation{
		ID:        uuid.New().String(),
		ProductID: product.ID,
		SessionID: in.SessionID,
		OrderID:   in.OrderID,
		Quantity:  in.Quantity,
		ExpiresAt: now.Add(s.resolveTTL(in.TTL)),
		CreatedAt: now,
	}
	if err := s.reservations.Insert(ctx, tx, reservation); err != nil {
		return nil, err
	}
	if err := s.products.AddReservedStock(ctx, tx, product.ID, in.Quantity); err != nil {
		return nil, err
	}

	return &reservation, nil
}

// Release drops a session reservation before it expires. Reservations that
// belong to an order are settled through the order instead.
func (s *StockService) Release(ctx context.Context, reservationID, sessionID string) error {
	existing, err := s.reservations.FindByID(ctx, nil, reservationID)
	if err != nil {
		return err
	}
	if existing.OrderID != nil {
		return apperrors.NewConflictError("reservation belongs to an order")
	}
	if existing.SessionID != sessionID {
		return apperrors.NewForbiddenError("reservation belongs to another session")
	}

	err = s.tx.InTx(ctx, func(ctx context.Context, tx mysql.DBTX) error {
		if _, err := s.products.FindByIDForUpdate(ctx, tx, existing.ProductID); err != nil {
			return err
		}
		current, err := s.reservations.FindByID(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if err := s.reservations.Delete(ctx, tx, reservationID); err != nil {
			return err
		}
		return s.products.AddReservedStock(ctx, tx, current.ProductID, -current.Quantity)
	})
	if err != nil {
		return err
	}

	s.logger.Info("reservation released",
		zap.String("reservationId", reservationID),
		zap.Int64("productId", existing.ProductID),
		zap.Int("quantity", existing.Quantity),
	)
	return nil
}

// resolveTTL applies the default when ttl is unset and caps it at the maximum.
func (s *StockService) resolveTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = s.cfg.ReservationTTL
	}
	if s.cfg.MaxReservationTTL > 0 && ttl > s.cfg.MaxReservationTTL {
		ttl = s.cfg.MaxReservationTTL
	}
	return ttl
}

func validateReserveInput(in ReserveInput) error {
	var details []apperrors.ValidationDetail

	if in.ProductID <= 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "productId",
			Message: "productId must be a positive integer",
		})
	}
	if in.Quantity < 1 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "quantity",
			Message: "quantity must be at least 1",
		})
	}
	if strings.TrimSpace(in.SessionID) == "" || len(in.SessionID) > maxSessionIDLength {
		details = append(details, apperrors.ValidationDetail{
			Field:   "sessionId",
			Message: "sessionId is required and must be at most 64 characters",
		})
	}
	if in.TTL < 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "ttlSeconds",
			Message: "ttlSeconds must not be negative",
		})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}
	return nil
}
