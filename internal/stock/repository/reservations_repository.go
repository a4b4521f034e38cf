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

const reservationColumns = `id, product_id, session_id, order_id, quantity, expires_at, created_at`

type ReservationRepository struct {
	db *sql.DB
}

func NewReservationRepository(db *sql.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func scanReservation(row interface{ Scan(dest ...any) error }) (*domain.StockReservation, error) {
	var (
		r       domain.StockReservation
		orderID sql.NullInt64
	)
	if err := row.Scan(&r.ID, &r.ProductID, &r.SessionID, &orderID, &r.Quantity, &r.ExpiresAt, &r.CreatedAt); err != nil {
		return nil, err
	}
	if orderID.Valid {
		r.OrderID = &orderID.Int64
	}
	return &r, nil
}

func (r *ReservationRepository) Insert(ctx context.Context, tx mysql.DBTX, res domain.StockReservation) error {
	query := `INSERT INTO stock_reservations (` + reservationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := tx.ExecContext(ctx, query,
		res.ID, res.ProductID, res.SessionID, res.OrderID, res.Quantity, res.ExpiresAt, res.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting reservation: %w", err)
	}
	return nil
}

// FindByID reads a reservation. Pass a transaction to lock the row.
func (r *ReservationRepository) FindByID(ctx context.Context, tx mysql.DBTX, id string) (*domain.StockReservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM stock_reservations WHERE id = ?`
	var q mysql.DBTX = r.db
	if tx != nil {
		q = tx
		query += ` FOR UPDATE`
	}

	res, err := scanReservation(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("reservation %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying reservation: %w", err)
	}
	return res, nil
}

func (r *ReservationRepository) Delete(ctx context.Context, tx mysql.DBTX, id string) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM stock_reservations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting reservation: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if n == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("reservation %s not found", id))
	}
	return nil
}

// ExpiredProductIDs lists products holding at least one reservation expired at now.
func (r *ReservationRepository) ExpiredProductIDs(ctx context.Context, now time.Time) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT product_id FROM stock_reservations WHERE expires_at <= ? ORDER BY product_id`, now)
	if err != nil {
		return nil, fmt.Errorf("querying expired reservations: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning product id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expired reservations: %w", err)
	}
	return ids, nil
}

// DeleteExpiredForProduct removes the product's expired reservations and
// returns how many rows went and the quantity they held. The caller must hold
// the product row lock.
func (r *ReservationRepository) DeleteExpiredForProduct(ctx context.Context, tx mysql.DBTX, productID int64, now time.Time) (int, int, error) {
	var count, quantity int
	err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(quantity), 0)
		FROM stock_reservations
		WHERE product_id = ? AND expires_at <= ?
		FOR UPDATE`, productID, now).Scan(&count, &quantity)
	if err != nil {
		return 0, 0, fmt.Errorf("summing expired reservations: %w", err)
	}
	if count == 0 {
		return 0, 0, nil
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM stock_reservations WHERE product_id = ? AND expires_at <= ?`, productID, now); err != nil {
		return 0, 0, fmt.Errorf("deleting expired reservations: %w", err)
	}
	return count, quantity, nil
}

func (r *ReservationRepository) ListByOrder(ctx context.Context, tx mysql.DBTX, orderID int64) ([]domain.StockReservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM stock_reservations
		WHERE order_id = ?
		ORDER BY product_id
		FOR UPDATE`

	rows, err := tx.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("querying order reservations: %w", err)
	}
	defer rows.Close()

	var out []domain.StockReservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning reservation row: %w", err)
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reservation rows: %w", err)
	}
	return out, nil
}

func (r *ReservationRepository) DeleteByOrder(ctx context.Context, tx mysql.DBTX, orderID int64) (int, error) {
	result, err := tx.ExecContext(ctx, `DELETE FROM stock_reservations WHERE order_id = ?`, orderID)
	if err != nil {
		return 0, fmt.Errorf("deleting order reservations: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return int(n), nil
}
