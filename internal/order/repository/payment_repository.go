package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pasmino/internal/domain"
	apperrors "pasmino/internal/errors"
	"pasmino/internal/infrastructure/mysql"
)

type MySQLPaymentRepository struct {
	db *sql.DB
}

func NewMySQLPaymentRepository(db *sql.DB) *MySQLPaymentRepository {
	return &MySQLPaymentRepository{db: db}
}

// Upsert keeps one payment row per order. Empty identifiers never overwrite
// stored ones.
func (r *MySQLPaymentRepository) Upsert(ctx context.Context, tx mysql.DBTX, p *domain.Payment) error {
	var q mysql.DBTX = r.db
	if tx != nil {
		q = tx
	}

	query := `
		INSERT INTO payments (order_id, provider, preference_id, external_id, status, init_point, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			preference_id = IF(VALUES(preference_id) = '', preference_id, VALUES(preference_id)),
			external_id = IF(VALUES(external_id) = '', external_id, VALUES(external_id)),
			init_point = IF(VALUES(init_point) = '', init_point, VALUES(init_point)),
			status = VALUES(status),
			updated_at = VALUES(updated_at)`

	_, err := q.ExecContext(ctx, query,
		p.OrderID, p.Provider, p.PreferenceID, p.ExternalID, p.Status, p.InitPoint, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting payment: %w", err)
	}
	return nil
}

func (r *MySQLPaymentRepository) FindByOrder(ctx context.Context, orderID int64) (*domain.Payment, error) {
	query := `
		SELECT id, order_id, provider, preference_id, external_id, status, init_point, created_at, updated_at
		FROM payments
		WHERE order_id = ?`

	var p domain.Payment
	err := r.db.QueryRowContext(ctx, query, orderID).Scan(
		&p.ID, &p.OrderID, &p.Provider, &p.PreferenceID, &p.ExternalID,
		&p.Status, &p.InitPoint, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("payment for order %d not found", orderID))
	}
	if err != nil {
		return nil, fmt.Errorf("querying payment: %w", err)
	}
	return &p, nil
}
