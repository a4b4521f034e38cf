package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	apperrors "pasmino/internal/errors"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories can run the
// same statement inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type TxFunc func(ctx context.Context, tx DBTX) error

type TxManager struct {
	db          *sql.DB
	logger      *zap.Logger
	timeout     time.Duration
	maxAttempts int
}

func NewTxManager(db *sql.DB, logger *zap.Logger, timeout time.Duration, maxAttempts int) *TxManager {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &TxManager{
		db:          db,
		logger:      logger,
		timeout:     timeout,
		maxAttempts: maxAttempts,
	}
}

// InTx runs fn in a REPEATABLE READ transaction. fn is re-run from scratch when
// MySQL reports a deadlock or lock wait timeout, so it must not have side
// effects outside tx.
func (m *TxManager) InTx(ctx context.Context, fn TxFunc) error {
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		err := m.runOnce(ctx, fn)
		if err == nil {
			return nil
		}

		if !IsDeadlock(err) {
			return err
		}

		if attempt < m.maxAttempts {
			wait := backoff(attempt)
			m.logger.Warn("deadlock detected, retrying",
				zap.Int("attempt", attempt),
				zap.Int("maxAttempts", m.maxAttempts),
				zap.Duration("backoff", wait),
			)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return apperrors.NewDeadlockError("max retries exceeded")
}

func (m *TxManager) runOnce(ctx context.Context, fn TxFunc) error {
	txCtx := ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	tx, err := m.db.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		m.logger.Error("failed to begin transaction", zap.Error(err))
		return fmt.Errorf("beginning transaction: %w", err)
	}
	// MySQL ignores rollback if already committed.
	defer tx.Rollback()

	if err := fn(txCtx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// IsDeadlock reports MySQL errors 1213 (deadlock) and 1205 (lock wait timeout).
func IsDeadlock(err error) bool {
	var mysqlErr *mysqldriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1213 || mysqlErr.Number == 1205
	}
	return false
}

// backoff doubles from 50ms per attempt with ±20% jitter.
func backoff(attempt int) time.Duration {
	base := 50 * time.Millisecond << (attempt - 1)
	jitter := time.Duration(float64(base) * (rand.Float64()*0.4 - 0.2))
	return base + jitter
}
