package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"pasmino/internal/domain"
	apperrors "pasmino/internal/errors"
	"pasmino/internal/infrastructure/mysql"
)

// serialTx runs one transaction at a time, standing in for the row lock.
type serialTx struct {
	mu    sync.Mutex
	calls int
}

func (f *serialTx) InTx(ctx context.Context, fn mysql.TxFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return fn(ctx, nil)
}

type memProducts struct {
	mu       sync.Mutex
	products map[int64]*domain.Product
	locked   []int64
}

func newMemProducts(products ...domain.Product) *memProducts {
	m := &memProducts{products: make(map[int64]*domain.Product)}
	for _, p := range products {
		p := p
		m.products[p.ID] = &p
	}
	return m
}

func (m *memProducts) get(id int64) domain.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.products[id]
}

func (m *memProducts) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("product with id %d not found", id))
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) FindByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memProducts) FindByIDForUpdate(ctx context.Context, tx mysql.DBTX, id int64) (*domain.Product, error) {
	m.mu.Lock()
	m.locked = append(m.locked, id)
	m.mu.Unlock()
	return m.FindByID(ctx, id)
}

func (m *memProducts) ListLowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Product
	for _, p := range m.products {
		if p.IsActive && p.AvailableStock() <= threshold {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memProducts) UpdateStock(ctx context.Context, tx mysql.DBTX, id int64, stock int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return apperrors.NewNotFoundError("product not found")
	}
	p.Stock = stock
	return nil
}

func (m *memProducts) AddReservedStock(ctx context.Context, tx mysql.DBTX, id int64, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return apperrors.NewNotFoundError("product not found")
	}
	p.ReservedStock += delta
	if p.ReservedStock < 0 {
		p.ReservedStock = 0
	}
	return nil
}

type memReservations struct {
	mu   sync.Mutex
	rows map[string]domain.StockReservation
}

func newMemReservations(rows ...domain.StockReservation) *memReservations {
	m := &memReservations{rows: make(map[string]domain.StockReservation)}
	for _, r := range rows {
		m.rows[r.ID] = r
	}
	return m
}

func (m *memReservations) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *memReservations) Insert(ctx context.Context, tx mysql.DBTX, res domain.StockReservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[res.ID] = res
	return nil
}

func (m *memReservations) FindByID(ctx context.Context, tx mysql.DBTX, id string) (*domain.StockReservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("reservation %s not found", id))
	}
	return &r, nil
}

func (m *memReservations) Delete(ctx context.Context, tx mysql.DBTX, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("reservation %s not found", id))
	}
	delete(m.rows, id)
	return nil
}

func (m *memReservations) ExpiredProductIDs(ctx context.Context, now time.Time) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[int64]bool{}
	var ids []int64
	for _, r := range m.rows {
		if r.IsExpired(now) && !seen[r.ProductID] {
			seen[r.ProductID] = true
			ids = append(ids, r.ProductID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *memReservations) DeleteExpiredForProduct(ctx context.Context, tx mysql.DBTX, productID int64, now time.Time) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count, qty int
	for id, r := range m.rows {
		if r.ProductID == productID && r.IsExpired(now) {
			count++
			qty += r.Quantity
			delete(m.rows, id)
		}
	}
	return count, qty, nil
}

func (m *memReservations) ListByOrder(ctx context.Context, tx mysql.DBTX, orderID int64) ([]domain.StockReservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.StockReservation
	for _, r := range m.rows {
		if r.OrderID != nil && *r.OrderID == orderID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memReservations) DeleteByOrder(ctx context.Context, tx mysql.DBTX, orderID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, r := range m.rows {
		if r.OrderID != nil && *r.OrderID == orderID {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

type memMovements struct {
	mu        sync.Mutex
	rows      []domain.StockMovement
	statsFunc func(since time.Time) (domain.MovementStats, error)
}

func (m *memMovements) Insert(ctx context.Context, tx mysql.DBTX, mv *domain.StockMovement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mv.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, *mv)
	return nil
}

func (m *memMovements) ListByProduct(ctx context.Context, productID int64, limit int) ([]domain.StockMovement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.StockMovement
	for i := len(m.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if m.rows[i].ProductID == productID {
			out = append(out, m.rows[i])
		}
	}
	return out, nil
}

func (m *memMovements) Stats(ctx context.Context, since time.Time) (domain.MovementStats, error) {
	if m.statsFunc != nil {
		return m.statsFunc(since)
	}
	return domain.MovementStats{}, nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	lowStock  []domain.LowStockEvent
	movements []domain.StockMovementEvent
	err       error
	// hang blocks every publish until ctx is done, like a broker that never acks.
	hang bool
}

func (p *recordingPublisher) PublishLowStock(ctx context.Context, event domain.LowStockEvent) error {
	if p.hang {
		<-ctx.Done()
		return ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.lowStock = append(p.lowStock, event)
	return nil
}

func (p *recordingPublisher) PublishMovement(ctx context.Context, event domain.StockMovementEvent) error {
	if p.hang {
		<-ctx.Done()
		return ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.movements = append(p.movements, event)
	return nil
}

type memDeduper struct {
	seen map[string]bool
	err  error
}

func (d *memDeduper) FirstSeen(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	if d.seen == nil {
		d.seen = map[string]bool{}
	}
	if d.seen[key] {
		return false, nil
	}
	d.seen[key] = true
	return true, nil
}
