package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pasmino/internal/domain"
	apperrors "pasmino/internal/errors"
	"pasmino/internal/testutil"
)

func TestPaymentRepository_Upsert(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	order := insertOrder(t, NewMySQLOrderRepository(db), db, 1, now)
	repo := NewMySQLPaymentRepository(db)

	require.NoError(t, repo.Upsert(ctx, nil, &domain.Payment{
		OrderID: order.ID, Provider: "mercadopago", PreferenceID: "pref-1",
		InitPoint: "https://mp/pref-1", Status: "pending", CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, repo.Upsert(ctx, nil, &domain.Payment{
		OrderID: order.ID, Provider: "mercadopago", ExternalID: "777",
		Status: "approved", CreatedAt: now, UpdatedAt: now.Add(time.Minute),
	}))

	p, err := repo.FindByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "pref-1", p.PreferenceID)
	assert.Equal(t, "https://mp/pref-1", p.InitPoint)
	assert.Equal(t, "777", p.ExternalID)
	assert.Equal(t, "approved", p.Status)

	_, err = repo.FindByOrder(ctx, order.ID+1000)
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}
