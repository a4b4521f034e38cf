package repository

import (
	"context"
	"database/sql"
	"fmt"

	"pasmino/internal/domain"
	"pasmino/internal/infrastructure/mysql"
)

type MySQLOrderItemRepository struct {
	db *sql.DB
}

func NewMySQLOrderItemRepository(db *sql.DB) *MySQLOrderItemRepository {
	return &MySQLOrderItemRepository{db: db}
}

func (r *MySQLOrderItemRepository) Insert(ctx context.Context, tx mysql.DBTX, item domain.OrderItem) (int64, error) {
	query := `INSERT INTO order_items (order_id, product_id, quantity, price) VALUES (?, ?, ?, ?)`

	result, err := tx.ExecContext(ctx, query, item.OrderID, item.ProductID, item.Quantity, item.Price)
	if err != nil {
		return 0, fmt.Errorf("inserting order item: %w", err)
	}

	lastInsertID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}
	return lastInsertID, nil
}

// ListByOrder returns the order's lines by product id. A nil tx reads outside
// any transaction.
func (r *MySQLOrderItemRepository) ListByOrder(ctx context.Context, tx mysql.DBTX, orderID int64) ([]domain.OrderItem, error) {
	var q mysql.DBTX = r.db
	if tx != nil {
		q = tx
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, price
		FROM order_items
		WHERE order_id = ?
		ORDER BY product_id, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("querying order items: %w", err)
	}
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order items: %w", err)
	}
	return items, nil
}
