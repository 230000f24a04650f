package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinistock-api/internal/application/inventory"
	"github.com/jhoicas/clinistock-api/internal/domain"
	"github.com/jhoicas/clinistock-api/internal/domain/entity"
	domaininv "github.com/jhoicas/clinistock-api/internal/domain/inventory"
)

func TestOpenBatch_RegistersEntry(t *testing.T) {
	f := newFixture(t, time.Second)
	ctx := context.Background()

	b := f.openBatch(t, "L-100", 12, 90)
	assert.Equal(t, 12, b.InitialStock)
	assert.Equal(t, 12, b.CurrentStock)
	assert.Equal(t, 12, f.current(t, itemVacuna, clinicNorte))

	movements, err := f.ledger.ListMovements(ctx, itemVacuna, clinicNorte)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, entity.MovementTypeENTRY, movements[0].Type)
	assert.Equal(t, b.ID, movements[0].BatchID)
}

func TestOpenBatch_Rejections(t *testing.T) {
	f := newFixture(t, time.Second)
	ctx := context.Background()
	f.openBatch(t, "L-100", 5, 90)

	_, err := f.batches.OpenBatch(ctx, inventory.OpenBatchCommand{
		ItemID: itemVacuna, ClinicID: clinicSur, BatchNumber: "L-100", InitialStock: 1,
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateBatch)

	_, err = f.batches.OpenBatch(ctx, inventory.OpenBatchCommand{
		ItemID: itemGuantes, ClinicID: clinicNorte, BatchNumber: "G-1", InitialStock: 1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.batches.OpenBatch(ctx, inventory.OpenBatchCommand{
		ItemID: itemVacuna, ClinicID: clinicNorte, BatchNumber: "L-200", InitialStock: 0,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.batches.OpenBatch(ctx, inventory.OpenBatchCommand{
		ItemID: itemVacuna, ClinicID: clinicNorte, BatchNumber: "L-300", InitialStock: 1, PurchaseCost: decimal.NewFromInt(-1),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// el duplicado no dejó stock ni lote en la sede sur
	assert.Equal(t, 0, f.current(t, itemVacuna, clinicSur))
	batches, err := f.batches.ListBatches(ctx, itemVacuna)
	require.NoError(t, err)
	assert.Len(t, batches, 1)
}

func TestSweepExpirations_FlagsWithoutChangingStock(t *testing.T) {
	f := newFixture(t, time.Second)
	ctx := context.Background()
	old := f.openBatch(t, "L-OLD", 3, -1)
	fresh := f.openBatch(t, "L-NEW", 2, 30)

	marked, err := f.batches.SweepExpirations(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	got, err := f.repos.Batches.GetByID(ctx, old.ID)
	require.NoError(t, err)
	assert.True(t, got.IsExpired)
	assert.Equal(t, 3, got.CurrentStock)
	assert.Equal(t, 5, f.current(t, itemVacuna, clinicNorte))

	// segunda pasada: nada pendiente
	marked, err = f.batches.SweepExpirations(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, marked)

	// FEFO ignora el vencido
	plan, err := f.batches.SelectForConsumption(ctx, itemVacuna, 2)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, fresh.ID, plan[0].BatchID)
	_, err = f.batches.SelectForConsumption(ctx, itemVacuna, 3)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// la baja del vencido es un ajuste explícito sobre ese lote
	_, err = f.ledger.Append(ctx, inventory.MovementRequest{
		Type: entity.MovementTypeADJUSTMENT, Direction: entity.DirectionOUT,
		ItemID: itemVacuna, ClinicID: clinicNorte, BatchID: old.ID, Quantity: 3, Reason: "baja por vencimiento",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, f.current(t, itemVacuna, clinicNorte))
}

func TestSelectForConsumption_DoesNotModify(t *testing.T) {
	f := newFixture(t, time.Second)
	ctx := context.Background()
	b := f.openBatch(t, "L-1", 4, 10)

	plan, err := f.batches.SelectForConsumption(ctx, itemVacuna, 3)
	require.NoError(t, err)
	assert.Equal(t, []domaininv.Allocation{{BatchID: b.ID, Quantity: 3}}, plan)

	got, err := f.repos.Batches.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.CurrentStock)

	_, err = f.batches.SelectForConsumption(ctx, itemGuantes, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
