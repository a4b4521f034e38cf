package service

import (
	"context"
	"time"

	"pasmino/internal/domain"
	"pasmino/internal/infrastructure/mysql"
)

type Transactor interface {
	InTx(ctx context.Context, fn mysql.TxFunc) error
}

type ProductStore interface {
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	FindByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)
	FindByIDForUpdate(ctx context.Context, tx mysql.DBTX, id int64) (*domain.Product, error)
	ListLowStock(ctx context.Context, threshold int) ([]domain.Product, error)
	UpdateStock(ctx context.Context, tx mysql.DBTX, id int64, stock int) error
	AddReservedStock(ctx context.Context, tx mysql.DBTX, id int64, delta int) error
}

type ReservationStore interface {
	Insert(ctx context.Context, tx mysql.DBTX, res domain.StockReservation) error
	FindByID(ctx context.Context, tx mysql.DBTX, id string) (*domain.StockReservation, error)
	Delete(ctx context.Context, tx mysql.DBTX, id string) error
	ExpiredProductIDs(ctx context.Context, now time.Time) ([]int64, error)
	DeleteExpiredForProduct(ctx context.Context, tx mysql.DBTX, productID int64, now time.Time) (int, int, error)
	ListByOrder(ctx context.Context, tx mysql.DBTX, orderID int64) ([]domain.StockReservation, error)
	DeleteByOrder(ctx context.Context, tx mysql.DBTX, orderID int64) (int, error)
}

type MovementStore interface {
	Insert(ctx context.Context, tx mysql.DBTX, m *domain.StockMovement) error
	ListByProduct(ctx context.Context, productID int64, limit int) ([]domain.StockMovement, error)
	Stats(ctx context.Context, since time.Time) (domain.MovementStats, error)
}

type EventPublisher interface {
	PublishLowStock(ctx context.Context, event domain.LowStockEvent) error
	PublishMovement(ctx context.Context, event domain.StockMovementEvent) error
}

type Deduper interface {
	FirstSeen(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
