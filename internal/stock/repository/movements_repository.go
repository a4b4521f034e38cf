package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pasmino/internal/domain"
	"pasmino/internal/infrastructure/mysql"
)

type MovementRepository struct {
	db *sql.DB
}

func NewMovementRepository(db *sql.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

func (r *MovementRepository) Insert(ctx context.Context, tx mysql.DBTX, m *domain.StockMovement) error {
	query := `
		INSERT INTO stock_movements (product_id, previous_stock, new_stock, delta, reason, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	result, err := tx.ExecContext(ctx, query,
		m.ProductID, m.PreviousStock, m.NewStock, m.Delta, m.Reason, m.UserID, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting stock movement: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting movement id: %w", err)
	}
	m.ID = id
	return nil
}

// ListByProduct returns the newest movements first.
func (r *MovementRepository) ListByProduct(ctx context.Context, productID int64, limit int) ([]domain.StockMovement, error) {
	query := `
		SELECT id, product_id, previous_stock, new_stock, delta, reason, user_id, created_at
		FROM stock_movements
		WHERE product_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying stock movements: %w", err)
	}
	defer rows.Close()

	movements := []domain.StockMovement{}
	for rows.Next() {
		var (
			m      domain.StockMovement
			userID sql.NullInt64
		)
		if err := rows.Scan(&m.ID, &m.ProductID, &m.PreviousStock, &m.NewStock, &m.Delta, &m.Reason, &userID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning stock movement: %w", err)
		}
		if userID.Valid {
			m.UserID = &userID.Int64
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stock movements: %w", err)
	}
	return movements, nil
}

// Stats aggregates every movement created at or after since.
func (r *MovementRepository) Stats(ctx context.Context, since time.Time) (domain.MovementStats, error) {
	stats := domain.MovementStats{Since: since, ByReason: []domain.ReasonStats{}}

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN delta > 0 THEN delta ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN delta < 0 THEN -delta ELSE 0 END), 0),
		       COUNT(DISTINCT product_id)
		FROM stock_movements
		WHERE created_at >= ?`, since).Scan(
		&stats.TotalMovements, &stats.TotalIncrease, &stats.TotalDecrease, &stats.ProductsAffected,
	)
	if err != nil {
		return stats, fmt.Errorf("aggregating stock movements: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT reason, COUNT(*), COALESCE(SUM(delta), 0)
		FROM stock_movements
		WHERE created_at >= ?
		GROUP BY reason
		ORDER BY COUNT(*) DESC, reason`, since)
	if err != nil {
		return stats, fmt.Errorf("grouping stock movements: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rs domain.ReasonStats
		if err := rows.Scan(&rs.Reason, &rs.Count, &rs.NetDelta); err != nil {
			return stats, fmt.Errorf("scanning reason stats: %w", err)
		}
		stats.ByReason = append(stats.ByReason, rs)
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("iterating reason stats: %w", err)
	}
	return stats, nil
}
