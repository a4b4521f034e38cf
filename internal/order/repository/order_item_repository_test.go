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
	"pasmino/internal/testutil"
)

// Unit Tests

func TestNewMySQLOrderItemRepository(t *testing.T) {
	db := &sql.DB{}
	repo := NewMySQLOrderItemRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

// Integration Tests

func TestOrderItemRepository_InsertAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	ctx := context.Background()
	order := insertOrder(t, NewMySQLOrderRepository(db), db, 1, time.Now().UTC())
	itemRepo := NewMySQLOrderItemRepository(db)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	for _, item := range []domain.OrderItem{
		{OrderID: order.ID, ProductID: 9, Quantity: 1, Price: decimal.RequireFromString("500.00")},
		{OrderID: order.ID, ProductID: 5, Quantity: 3, Price: decimal.RequireFromString("29.99")},
	} {
		itemID, err := itemRepo.Insert(ctx, tx, item)
		require.NoError(t, err)
		assert.Greater(t, itemID, int64(0))
	}

	inTx, err := itemRepo.ListByOrder(ctx, tx, order.ID)
	require.NoError(t, err)
	assert.Len(t, inTx, 2)
	require.NoError(t, tx.Commit())

	items, err := itemRepo.ListByOrder(ctx, nil, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(5), items[0].ProductID)
	assert.Equal(t, 3, items[0].Quantity)
	assert.True(t, decimal.RequireFromString("29.99").Equal(items[0].Price))
}

func TestOrderItemRepository_ListByOrder_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	items, err := NewMySQLOrderItemRepository(db).ListByOrder(context.Background(), nil, 12345)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}
