package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinistock-api/internal/application/inventory"
)

func TestGenerateReplenishmentList(t *testing.T) {
	f := newFixture(t, time.Second)
	ctx := context.Background()
	uc := inventory.NewReplenishmentUseCase(f.stock, f.repos)

	// guantes: objetivo = máximo 20, stock 5 -> pedir 15 (déficit 0.75)
	_, err := f.stock.SetThresholds(ctx, itemGuantes, clinicNorte, inventory.ThresholdsCommand{ReorderPoint: intPtr(5), MaximumStock: intPtr(20)})
	require.NoError(t, err)
	f.entry(t, itemGuantes, clinicNorte, 5)

	// vacuna: sin máximo, reorden 4 -> objetivo 6, stock 0 -> pedir 6 (déficit 1)
	_, err = f.stock.SetThresholds(ctx, itemVacuna, clinicNorte, inventory.ThresholdsCommand{ReorderPoint: intPtr(4)})
	require.NoError(t, err)

	list, err := uc.GenerateReplenishmentList(ctx, clinicNorte)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, itemVacuna, list[0].ItemID)
	assert.Equal(t, 1, list[0].Priority)
	assert.Equal(t, 6, list[0].TargetStock)
	assert.Equal(t, 6, list[0].SuggestedOrderQty)
	assert.True(t, decimal.NewFromInt(30000).Equal(list[0].EstimatedOrderCost))

	assert.Equal(t, itemGuantes, list[1].ItemID)
	assert.Equal(t, 2, list[1].Priority)
	assert.Equal(t, 15, list[1].SuggestedOrderQty)
	assert.True(t, decimal.NewFromInt(1500).Equal(list[1].EstimatedOrderCost))
}

func TestGenerateReplenishmentList_SkipsPairsAtTarget(t *testing.T) {
	f := newFixture(t, time.Second)
	ctx := context.Background()
	uc := inventory.NewReplenishmentUseCase(f.stock, f.repos)

	// reorden 0 con stock 0: bajo el umbral pero objetivo 0, nada que pedir
	_, err := f.stock.GetStock(ctx, itemGuantes, clinicSur)
	require.NoError(t, err)

	list, err := uc.GenerateReplenishmentList(ctx, clinicSur)
	require.NoError(t, err)
	assert.Empty(t, list)
}
