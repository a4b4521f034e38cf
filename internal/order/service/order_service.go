package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pasmino/internal/auth"
	"pasmino/internal/config"
	"pasmino/internal/domain"
	apperrors "pasmino/internal/errors"
	"pasmino/internal/infrastructure/mysql"
	"pasmino/internal/payment"
)

const (
	paymentProvider  = "mercadopago"
	abandonBatchSize = 100
)

type OrderService struct {
	tx       Transactor
	orders   OrderRepository
	items    OrderItemRepository
	payments PaymentRepository
	stock    StockSettler
	gateway  PaymentGateway
	cfg      config.OrderConfig
	logger   *zap.Logger
	now      func() time.Time
}

func NewOrderService(
	tx Transactor,
	orders OrderRepository,
	items OrderItemRepository,
	payments PaymentRepository,
	stock StockSettler,
	gateway PaymentGateway,
	cfg config.OrderConfig,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		tx:       tx,
		orders:   orders,
		items:    items,
		payments: payments,
		stock:    stock,
		gateway:  gateway,
		cfg:      cfg,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// GetOrder returns the order with its lines and payment. Only the owner or an
// admin may read it.
func (s *OrderService) GetOrder(ctx context.Context, id int64, viewer *domain.User) (*domain.Order, error) {
	if viewer == nil {
		return nil, apperrors.NewUnauthorizedError("authentication required")
	}

	order, err := s.orders.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != viewer.ID && !auth.IsAdmin(viewer) {
		return nil, apperrors.NewForbiddenError("order belongs to another user")
	}

	if order.Items, err = s.items.ListByOrder(ctx, nil, id); err != nil {
		return nil, err
	}

	p, err := s.payments.FindByOrder(ctx, id)
	switch {
	case err == nil:
		order.Payment = p
	case isNotFound(err):
	default:
		return nil, err
	}

	return order, nil
}

// HandlePaymentNotification re-reads a payment from the gateway and settles
// its order. Statuses other than approved, rejected and cancelled only update
// the stored payment.
func (s *OrderService) HandlePaymentNotification(ctx context.Context, paymentID string) error {
	info, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}

	logger := s.logger.With(
		zap.String("paymentId", info.ID),
		zap.Int64("orderId", info.OrderID),
		zap.String("paymentStatus", info.Status),
	)

	switch info.Status {
	case payment.StatusApproved:
		return s.finalize(ctx, info, domain.OrderStatusPaid, logger)
	case payment.StatusRejected, payment.StatusCancelled:
		return s.finalize(ctx, info, domain.OrderStatusFailed, logger)
	default:
		if _, err := s.orders.FindByID(ctx, nil, info.OrderID); err != nil {
			return err
		}
		logger.Info("payment notification ignored")
		return s.recordPayment(ctx, nil, info)
	}
}

// finalize moves a PENDING order to a terminal status in one transaction. A
// repeated notification finds the order already settled and does nothing.
func (s *OrderService) finalize(ctx context.Context, info *payment.Info, next domain.OrderStatus, logger *zap.Logger) error {
	var (
		movements []domain.StockMovement
		settled   bool
	)

	err := s.tx.InTx(ctx, func(ctx context.Context, tx mysql.DBTX) error {
		movements, settled = nil, false

		order, err := s.orders.FindByID(ctx, tx, info.OrderID)
		if err != nil {
			return err
		}
		if !order.CanTransitionTo(next) {
			if order.Status != next {
				logger.Warn("payment result for an order that is already closed",
					zap.String("orderStatus", string(order.Status)),
				)
			}
			return s.recordPayment(ctx, tx, info)
		}

		items, err := s.items.ListByOrder(ctx, tx, order.ID)
		if err != nil {
			return err
		}

		if next == domain.OrderStatusPaid {
			if movements, err = s.stock.CommitOrderInTx(ctx, tx, order.ID, items, nil); err != nil {
				return err
			}
		} else {
			if _, err := s.stock.ReleaseOrderInTx(ctx, tx, order.ID, productIDs(items)); err != nil {
				return err
			}
		}

		if err := s.orders.UpdateStatus(ctx, tx, order.ID, next, s.now()); err != nil {
			return err
		}
		settled = true
		return s.recordPayment(ctx, tx, info)
	})
	if err != nil {
		logger.Error("failed to finalize order", zap.Error(err))
		return err
	}

	if settled {
		logger.Info("order finalized", zap.String("status", string(next)))
		s.stock.PublishMovements(ctx, movements)
	}
	return nil
}

// CancelOrder drops the order's reservations and marks it CANCELLED. An order
// that is no longer PENDING is left untouched and false is returned.
func (s *OrderService) CancelOrder(ctx context.Context, orderID int64) (bool, error) {
	var cancelled bool

	err := s.tx.InTx(ctx, func(ctx context.Context, tx mysql.DBTX) error {
		cancelled = false

		order, err := s.orders.FindByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !order.CanTransitionTo(domain.OrderStatusCancelled) {
			return nil
		}

		items, err := s.items.ListByOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		released, err := s.stock.ReleaseOrderInTx(ctx, tx, orderID, productIDs(items))
		if err != nil {
			return err
		}
		if err := s.orders.UpdateStatus(ctx, tx, orderID, domain.OrderStatusCancelled, s.now()); err != nil {
			return err
		}

		s.logger.Info("order cancelled", zap.Int64("orderId", orderID), zap.Int("releasedReservations", released))
		cancelled = true
		return nil
	})
	return cancelled, err
}

// ExpireAbandoned cancels PENDING orders older than the abandon window and
// returns how many it cancelled.
func (s *OrderService) ExpireAbandoned(ctx context.Context, now time.Time) (int, error) {
	if s.cfg.AbandonAfter <= 0 {
		return 0, nil
	}

	ids, err := s.orders.ListAbandonedIDs(ctx, now.Add(-s.cfg.AbandonAfter), abandonBatchSize)
	if err != nil {
		return 0, err
	}

	var (
		cancelled int
		errs      []error
	)
	for _, id := range ids {
		ok, err := s.CancelOrder(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("cancelling order %d: %w", id, err))
			continue
		}
		if ok {
			cancelled++
		}
	}

	if cancelled > 0 {
		s.logger.Info("abandoned orders cancelled", zap.Int("count", cancelled))
	}
	return cancelled, errors.Join(errs...)
}

func (s *OrderService) recordPayment(ctx context.Context, tx mysql.DBTX, info *payment.Info) error {
	now := s.now()
	return s.payments.Upsert(ctx, tx, &domain.Payment{
		OrderID:    info.OrderID,
		Provider:   paymentProvider,
		ExternalID: info.ID,
		Status:     info.Status,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

func productIDs(items []domain.OrderItem) []int64 {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

func isNotFound(err error) bool {
	_, ok := apperrors.IsNotFoundError(err)
	return ok
}
