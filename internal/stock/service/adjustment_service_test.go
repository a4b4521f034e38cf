package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pasmino/internal/domain"
	apperrors "pasmino/internal/errors"
)

func TestAdjustProductStock(t *testing.T) {
	f := newFixture(sellable(1, 5, 0))
	actor := int64(3)

	m, err := f.svc.AdjustProductStock(context.Background(), AdjustInput{
		ProductID: 1, NewStock: 8, Reason: "  restock  ", ActorID: &actor,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, m.PreviousStock)
	assert.Equal(t, 8, m.NewStock)
	assert.Equal(t, 3, m.Delta)
	assert.Equal(t, "restock", m.Reason)
	assert.Equal(t, &actor, m.UserID)
	assert.Equal(t, 8, f.products.get(1).Stock)
	require.Len(t, f.movements.rows, 1)
	require.Len(t, f.publisher.movements, 1)
	assert.Equal(t, m.ID, f.publisher.movements[0].MovementID)
}

func TestAdjustProductStock_BelowReservedClampsAvailable(t *testing.T) {
	f := newFixture(sellable(1, 5, 3))

	_, err := f.svc.AdjustProductStock(context.Background(), AdjustInput{ProductID: 1, NewStock: 2, Reason: "merma"})
	require.NoError(t, err)

	assert.Equal(t, 0, f.products.get(1).AvailableStock())
	assert.Equal(t, 3, f.products.get(1).ReservedStock)
}

func TestAdjustProductStock_RejectsWithoutWriting(t *testing.T) {
	f := newFixture(sellable(1, 5, 0))

	tests := []struct {
		name  string
		in    AdjustInput
		field string
	}{
		{"negative stock", AdjustInput{ProductID: 1, NewStock: -1, Reason: "x"}, "newStock"},
		{"empty reason", AdjustInput{ProductID: 1, NewStock: 1, Reason: "   "}, "reason"},
		{"long reason", AdjustInput{ProductID: 1, NewStock: 1, Reason: strings.Repeat("a", 256)}, "reason"},
		{"bad product", AdjustInput{ProductID: 0, NewStock: 1, Reason: "x"}, "productId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.AdjustProductStock(context.Background(), tt.in)
			ve, ok := apperrors.IsValidationError(err)
			require.True(t, ok)
			assert.Equal(t, tt.field, ve.Details[0].Field)
		})
	}

	assert.Empty(t, f.movements.rows)
	assert.Equal(t, 5, f.products.get(1).Stock)
	assert.Zero(t, f.tx.calls)
}

func TestAdjustProductStock_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.AdjustProductStock(context.Background(), AdjustInput{ProductID: 9, NewStock: 1, Reason: "x"})
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
	assert.Empty(t, f.movements.rows)
}

func TestGetStockMovementStats(t *testing.T) {
	f := newFixture()
	var gotSince time.Time
	f.movements.statsFunc = func(since time.Time) (domain.MovementStats, error) {
		gotSince = since
		return domain.MovementStats{TotalMovements: 4, TotalIncrease: 10, TotalDecrease: 3}, nil
	}

	stats, err := f.svc.GetStockMovementStats(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, testNow.Add(-7*24*time.Hour), gotSince)
	assert.Equal(t, 7, stats.Days)
	assert.Equal(t, 7, stats.NetChange())

	for _, days := range []int{0, 366} {
		_, err := f.svc.GetStockMovementStats(context.Background(), days)
		_, ok := apperrors.IsValidationError(err)
		assert.True(t, ok, days)
	}
}

func TestGetProductStockHistory(t *testing.T) {
	f := newFixture(sellable(1, 5, 0))
	ctx := context.Background()

	for _, stock := range []int{6, 7, 9} {
		_, err := f.svc.AdjustProductStock(ctx, AdjustInput{ProductID: 1, NewStock: stock, Reason: "restock"})
		require.NoError(t, err)
	}

	history, err := f.svc.GetProductStockHistory(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 9, history[0].NewStock)
	assert.Equal(t, 7, history[1].NewStock)

	_, err = f.svc.GetProductStockHistory(ctx, 42, 10)
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)

	_, err = f.svc.GetProductStockHistory(ctx, 1, 201)
	_, ok = apperrors.IsValidationError(err)
	assert.True(t, ok)
}

func TestGetProductStockHistory_EmptyIsNotNil(t *testing.T) {
	f := newFixture(sellable(1, 5, 0))

	history, err := f.svc.GetProductStockHistory(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}
