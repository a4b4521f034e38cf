package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"pasmino/internal/domain"
	"pasmino/internal/infrastructure/mysql"
)

// CommitOrderInTx turns an order's reservations into a sale: on-hand stock is
// deducted per line (never below zero), the reservations are deleted and one
// movement is recorded per line. It runs inside the caller's transaction.
func (s *StockService) CommitOrderInTx(ctx context.Context, tx mysql.DBTX, orderID int64, items []domain.OrderItem, actorID *int64) ([]domain.StockMovement, error) {
	productIDs := make([]int64, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}

	locked, err := s.lockProducts(ctx, tx, productIDs)
	if err != nil {
		return nil, err
	}

	if _, err := s.releaseOrderLocked(ctx, tx, orderID); err != nil {
		return nil, err
	}

	now := s.now()
	reason := fmt.Sprintf("order #%d paid", orderID)
	movements := make([]domain.StockMovement, 0, len(items))
	for _, item := range items {
		product := locked[item.ProductID]

		next := product.Stock - item.Quantity
		if next < 0 {
			s.logger.Warn("sale exceeds on-hand stock, clamping at zero",
				zap.Int64("orderId", orderID),
				zap.Int64("productId", product.ID),
				zap.Int("stock", product.Stock),
				zap.Int("quantity", item.Quantity),
			)
			next = 0
		}

		if err := s.products.UpdateStock(ctx, tx, product.ID, next); err != nil {
			return nil, err
		}

		m := domain.NewStockMovement(product.ID, product.Stock, next, reason, actorID, now)
		if err := s.movements.Insert(ctx, tx, &m); err != nil {
			return nil, err
		}
		movements = append(movements, m)
		product.Stock = next
	}

	return movements, nil
}

// ReleaseOrderInTx drops every reservation held by an order without touching
// on-hand stock. productIDs are locked first to keep the lock order.
func (s *StockService) ReleaseOrderInTx(ctx context.Context, tx mysql.DBTX, orderID int64, productIDs []int64) (int, error) {
	if _, err := s.lockProducts(ctx, tx, productIDs); err != nil {
		return 0, err
	}
	return s.releaseOrderLocked(ctx, tx, orderID)
}

// PublishMovements emits events for movements committed by a caller's transaction.
func (s *StockService) PublishMovements(ctx context.Context, movements []domain.StockMovement) {
	s.publishMovements(ctx, movements)
}

func (s *StockService) releaseOrderLocked(ctx context.Context, tx mysql.DBTX, orderID int64) (int, error) {
	reservations, err := s.reservations.ListByOrder(ctx, tx, orderID)
	if err != nil {
		return 0, err
	}
	if len(reservations) == 0 {
		return 0, nil
	}

	held := make(map[int64]int)
	var productIDs []int64
	for _, r := range reservations {
		if _, ok := held[r.ProductID]; !ok {
			productIDs = append(productIDs, r.ProductID)
		}
		held[r.ProductID] += r.Quantity
	}
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })

	n, err := s.reservations.DeleteByOrder(ctx, tx, orderID)
	if err != nil {
		return 0, err
	}

	for _, productID := range productIDs {
		if err := s.products.AddReservedStock(ctx, tx, productID, -held[productID]); err != nil {
			return 0, err
		}
	}
	return n, nil
}
