package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pasmino/internal/domain"
	apperrors "pasmino/internal/errors"
	"pasmino/internal/testutil"
)

// Unit Tests

func TestNewMySQLOrderRepository(t *testing.T) {
	db := &sql.DB{}
	repo := NewMySQLOrderRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

// Integration Tests

func insertOrder(t *testing.T, repo *MySQLOrderRepository, db *sql.DB, userID int64, createdAt time.Time) *domain.Order {
	order := &domain.Order{
		UserID:    userID,
		Status:    domain.OrderStatusPending,
		Total:     decimal.RequireFromString("3000.00"),
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	require.NoError(t, repo.Insert(context.Background(), db, order))
	return order
}

func TestOrderRepository_InsertAndFind(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLOrderRepository(db)
	userID := testutil.InsertUser(t, db, "user_1", domain.RoleCustomer)
	now := time.Now().UTC().Truncate(time.Millisecond)

	order := insertOrder(t, repo, db, userID, now)
	assert.Greater(t, order.ID, int64(0))

	found, err := repo.FindByID(context.Background(), nil, order.ID)
	require.NoError(t, err)
	assert.Equal(t, userID, found.UserID)
	assert.Equal(t, domain.OrderStatusPending, found.Status)
	assert.True(t, decimal.RequireFromString("3000").Equal(found.Total))
	assert.True(t, now.Equal(found.CreatedAt))
}

func TestOrderRepository_FindByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	_, err := NewMySQLOrderRepository(db).FindByID(context.Background(), nil, 99999)

	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestOrderRepository_UpdateStatusInTx(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	ctx := context.Background()
	repo := NewMySQLOrderRepository(db)
	order := insertOrder(t, repo, db, 1, time.Now().UTC())

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	locked, err := repo.FindByID(ctx, tx, order.ID)
	require.NoError(t, err)
	require.NoError(t, repo.UpdateStatus(ctx, tx, locked.ID, domain.OrderStatusPaid, time.Now().UTC()))
	require.NoError(t, tx.Commit())

	found, err := repo.FindByID(ctx, nil, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, found.Status)

	err = repo.UpdateStatus(ctx, db, 99999, domain.OrderStatusPaid, time.Now().UTC())
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestOrderRepository_ListAbandonedIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	ctx := context.Background()
	repo := NewMySQLOrderRepository(db)
	now := time.Now().UTC()

	old := insertOrder(t, repo, db, 1, now.Add(-3*time.Hour))
	insertOrder(t, repo, db, 1, now.Add(-time.Minute))
	paid := insertOrder(t, repo, db, 1, now.Add(-4*time.Hour))
	require.NoError(t, repo.UpdateStatus(ctx, db, paid.ID, domain.OrderStatusPaid, now))

	ids, err := repo.ListAbandonedIDs(ctx, now.Add(-2*time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{old.ID}, ids)
}
