package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pasmino/internal/domain"
	apperrors "pasmino/internal/errors"
	"pasmino/internal/testutil"
)

func newReservation(productID int64, qty int, expiresAt time.Time) domain.StockReservation {
	return domain.StockReservation{
		ID:        uuid.New().String(),
		ProductID: productID,
		SessionID: "sess-1",
		Quantity:  qty,
		ExpiresAt: expiresAt,
		CreatedAt: expiresAt.Add(-15 * time.Minute),
	}
}

func TestReservationRepository_InsertFindDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	ctx := context.Background()
	productID := testutil.InsertProduct(t, db, "medialuna", 10, 0)
	repo := NewReservationRepository(db)

	res := newReservation(productID, 2, time.Now().UTC().Add(time.Hour).Truncate(time.Millisecond))
	require.NoError(t, repo.Insert(ctx, db, res))

	found, err := repo.FindByID(ctx, nil, res.ID)
	require.NoError(t, err)
	assert.Equal(t, productID, found.ProductID)
	assert.Equal(t, 2, found.Quantity)
	assert.Nil(t, found.OrderID)

	require.NoError(t, repo.Delete(ctx, db, res.ID))

	_, err = repo.FindByID(ctx, nil, res.ID)
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)

	err = repo.Delete(ctx, db, res.ID)
	_, ok = apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestReservationRepository_DeleteExpiredForProduct(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	p1 := testutil.InsertProduct(t, db, "pan", 10, 6)
	p2 := testutil.InsertProduct(t, db, "bizcocho", 10, 1)
	repo := NewReservationRepository(db)

	require.NoError(t, repo.Insert(ctx, db, newReservation(p1, 2, now.Add(-time.Minute))))
	require.NoError(t, repo.Insert(ctx, db, newReservation(p1, 3, now)))
	require.NoError(t, repo.Insert(ctx, db, newReservation(p1, 1, now.Add(time.Minute))))
	require.NoError(t, repo.Insert(ctx, db, newReservation(p2, 1, now.Add(-time.Hour))))

	ids, err := repo.ExpiredProductIDs(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, []int64{p1, p2}, ids)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	count, qty, err := repo.DeleteExpiredForProduct(ctx, tx, p1, now)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, 2, count)
	assert.Equal(t, 5, qty)

	ids, err = repo.ExpiredProductIDs(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, []int64{p2}, ids)
}

func TestReservationRepository_ByOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	ctx := context.Background()
	productID := testutil.InsertProduct(t, db, "alfajor", 10, 0)
	repo := NewReservationRepository(db)

	orderID := int64(77)
	res := newReservation(productID, 4, time.Now().UTC().Add(time.Hour))
	res.OrderID = &orderID
	require.NoError(t, repo.Insert(ctx, db, res))
	require.NoError(t, repo.Insert(ctx, db, newReservation(productID, 1, time.Now().UTC().Add(time.Hour))))

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	list, err := repo.ListByOrder(ctx, tx, orderID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, orderID, *list[0].OrderID)

	n, err := repo.DeleteByOrder(ctx, tx, orderID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
