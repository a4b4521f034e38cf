package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pasmino/internal/domain"
	apperrors "pasmino/internal/errors"
	"pasmino/internal/infrastructure/mysql"
)

const orderColumns = `id, user_id, status, total, created_at, updated_at`

type MySQLOrderRepository struct {
	db *sql.DB
}

func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

func scanOrder(row interface{ Scan(dest ...any) error }) (*domain.Order, error) {
	var order domain.Order
	if err := row.Scan(&order.ID, &order.UserID, &order.Status, &order.Total, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *MySQLOrderRepository) Insert(ctx context.Context, tx mysql.DBTX, order *domain.Order) error {
	query := `INSERT INTO orders (user_id, status, total, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`

	result, err := tx.ExecContext(ctx, query, order.UserID, order.Status, order.Total, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	order.ID = id
	return nil
}

// FindByID reads an order without its items. Pass a transaction to lock the row.
func (r *MySQLOrderRepository) FindByID(ctx context.Context, tx mysql.DBTX, id int64) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`
	var q mysql.DBTX = r.db
	if tx != nil {
		q = tx
		query += ` FOR UPDATE`
	}

	order, err := scanOrder(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by id: %w", err)
	}
	return order, nil
}

func (r *MySQLOrderRepository) UpdateStatus(ctx context.Context, tx mysql.DBTX, id int64, status domain.OrderStatus, now time.Time) error {
	query := `UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`

	result, err := tx.ExecContext(ctx, query, status, now, id)
	if err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}
	return nil
}

// ListAbandonedIDs returns PENDING orders created before cutoff, oldest first.
func (r *MySQLOrderRepository) ListAbandonedIDs(ctx context.Context, cutoff time.Time, limit int) ([]int64, error) {
	query := `
		SELECT id FROM orders
		WHERE status = ? AND created_at < ?
		ORDER BY created_at, id
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, domain.OrderStatusPending, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("querying abandoned orders: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning order id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating abandoned orders: %w", err)
	}
	return ids, nil
}
