package service

import (
	"context"
	"time"

	"pasmino/internal/domain"
	"pasmino/internal/infrastructure/mysql"
	"pasmino/internal/payment"
)

type fakeTx struct {
	calls int
}

func (f *fakeTx) InTx(ctx context.Context, fn mysql.TxFunc) error {
	f.calls++
	return fn(ctx, nil)
}

type mockOrderRepository struct {
	InsertFunc           func(ctx context.Context, tx mysql.DBTX, order *domain.Order) error
	FindByIDFunc         func(ctx context.Context, tx mysql.DBTX, id int64) (*domain.Order, error)
	UpdateStatusFunc     func(ctx context.Context, tx mysql.DBTX, id int64, status domain.OrderStatus, now time.Time) error
	ListAbandonedIDsFunc func(ctx context.Context, cutoff time.Time, limit int) ([]int64, error)
}

func (m *mockOrderRepository) Insert(ctx context.Context, tx mysql.DBTX, order *domain.Order) error {
	return m.InsertFunc(ctx, tx, order)
}

func (m *mockOrderRepository) FindByID(ctx context.Context, tx mysql.DBTX, id int64) (*domain.Order, error) {
	return m.FindByIDFunc(ctx, tx, id)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, tx mysql.DBTX, id int64, status domain.OrderStatus, now time.Time) error {
	return m.UpdateStatusFunc(ctx, tx, id, status, now)
}

func (m *mockOrderRepository) ListAbandonedIDs(ctx context.Context, cutoff time.Time, limit int) ([]int64, error) {
	return m.ListAbandonedIDsFunc(ctx, cutoff, limit)
}

type mockOrderItemRepository struct {
	InsertFunc      func(ctx context.Context, tx mysql.DBTX, item domain.OrderItem) (int64, error)
	ListByOrderFunc func(ctx context.Context, tx mysql.DBTX, orderID int64) ([]domain.OrderItem, error)
}

func (m *mockOrderItemRepository) Insert(ctx context.Context, tx mysql.DBTX, item domain.OrderItem) (int64, error) {
	return m.InsertFunc(ctx, tx, item)
}

func (m *mockOrderItemRepository) ListByOrder(ctx context.Context, tx mysql.DBTX, orderID int64) ([]domain.OrderItem, error) {
	return m.ListByOrderFunc(ctx, tx, orderID)
}

type mockPaymentRepository struct {
	upserts         []domain.Payment
	FindByOrderFunc func(ctx context.Context, orderID int64) (*domain.Payment, error)
}

func (m *mockPaymentRepository) Upsert(ctx context.Context, tx mysql.DBTX, p *domain.Payment) error {
	m.upserts = append(m.upserts, *p)
	return nil
}

func (m *mockPaymentRepository) FindByOrder(ctx context.Context, orderID int64) (*domain.Payment, error) {
	return m.FindByOrderFunc(ctx, orderID)
}

type mockStockSettler struct {
	ReserveItemsInTxFunc func(ctx context.Context, tx mysql.DBTX, orderID int64, sessionID string, items []domain.CartItem, ttl time.Duration) ([]domain.StockReservation, error)
	CommitOrderInTxFunc  func(ctx context.Context, tx mysql.DBTX, orderID int64, items []domain.OrderItem, actorID *int64) ([]domain.StockMovement, error)
	ReleaseOrderInTxFunc func(ctx context.Context, tx mysql.DBTX, orderID int64, productIDs []int64) (int, error)
	published            []domain.StockMovement
}

func (m *mockStockSettler) ReserveItemsInTx(ctx context.Context, tx mysql.DBTX, orderID int64, sessionID string, items []domain.CartItem, ttl time.Duration) ([]domain.StockReservation, error) {
	return m.ReserveItemsInTxFunc(ctx, tx, orderID, sessionID, items, ttl)
}

func (m *mockStockSettler) CommitOrderInTx(ctx context.Context, tx mysql.DBTX, orderID int64, items []domain.OrderItem, actorID *int64) ([]domain.StockMovement, error) {
	return m.CommitOrderInTxFunc(ctx, tx, orderID, items, actorID)
}

func (m *mockStockSettler) ReleaseOrderInTx(ctx context.Context, tx mysql.DBTX, orderID int64, productIDs []int64) (int, error) {
	return m.ReleaseOrderInTxFunc(ctx, tx, orderID, productIDs)
}

func (m *mockStockSettler) PublishMovements(ctx context.Context, movements []domain.StockMovement) {
	m.published = append(m.published, movements...)
}

type mockPaymentGateway struct {
	CreatePreferenceFunc func(ctx context.Context, req payment.PreferenceRequest) (*payment.Preference, error)
	GetPaymentFunc       func(ctx context.Context, id string) (*payment.Info, error)
}

func (m *mockPaymentGateway) CreatePreference(ctx context.Context, req payment.PreferenceRequest) (*payment.Preference, error) {
	return m.CreatePreferenceFunc(ctx, req)
}

func (m *mockPaymentGateway) GetPayment(ctx context.Context, id string) (*payment.Info, error) {
	return m.GetPaymentFunc(ctx, id)
}
