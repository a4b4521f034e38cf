package service

import (
	"context"
	"time"

	"pasmino/internal/domain"
	"pasmino/internal/infrastructure/mysql"
	"pasmino/internal/payment"
)

type Transactor interface {
	InTx(ctx context.Context, fn mysql.TxFunc) error
}

type OrderRepository interface {
	Insert(ctx context.Context, tx mysql.DBTX, order *domain.Order) error
	FindByID(ctx context.Context, tx mysql.DBTX, id int64) (*domain.Order, error)
	UpdateStatus(ctx context.Context, tx mysql.DBTX, id int64, status domain.OrderStatus, now time.Time) error
	ListAbandonedIDs(ctx context.Context, cutoff time.Time, limit int) ([]int64, error)
}

type OrderItemRepository interface {
	Insert(ctx context.Context, tx mysql.DBTX, item domain.OrderItem) (int64, error)
	ListByOrder(ctx context.Context, tx mysql.DBTX, orderID int64) ([]domain.OrderItem, error)
}

type PaymentRepository interface {
	Upsert(ctx context.Context, tx mysql.DBTX, p *domain.Payment) error
	FindByOrder(ctx context.Context, orderID int64) (*domain.Payment, error)
}

// StockSettler is the part of the stock service an order needs to hold,
// commit or drop its reservations inside the order's own transaction.
type StockSettler interface {
	ReserveItemsInTx(ctx context.Context, tx mysql.DBTX, orderID int64, sessionID string, items []domain.CartItem, ttl time.Duration) ([]domain.StockReservation, error)
	CommitOrderInTx(ctx context.Context, tx mysql.DBTX, orderID int64, items []domain.OrderItem, actorID *int64) ([]domain.StockMovement, error)
	ReleaseOrderInTx(ctx context.Context, tx mysql.DBTX, orderID int64, productIDs []int64) (int, error)
	PublishMovements(ctx context.Context, movements []domain.StockMovement)
}

type PaymentGateway interface {
	CreatePreference(ctx context.Context, req payment.PreferenceRequest) (*payment.Preference, error)
	GetPayment(ctx context.Context, id string) (*payment.Info, error)
}
