package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinistock-api/internal/application/inventory"
	"github.com/jhoicas/clinistock-api/internal/domain"
	"github.com/jhoicas/clinistock-api/internal/domain/entity"
)

func TestAppend_ReplayMatchesProjection(t *testing.T) {
	f := newFixture(t, time.Second)
	ctx := context.Background()

	reqs := []inventory.MovementRequest{
		{Type: entity.MovementTypeENTRY, Quantity: 10},
		{Type: entity.MovementTypeEXIT, Quantity: 3},
		{Type: entity.MovementTypeADJUSTMENT, Direction: entity.DirectionIN, Quantity: 2},
		{Type: entity.MovementTypeADJUSTMENT, Direction: entity.DirectionOUT, Quantity: 1},
	}
	for _, req := range reqs {
		req.ItemID, req.ClinicID = itemGuantes, clinicNorte
		_, err := f.ledger.Append(ctx, req)
		require.NoError(t, err)
	}

	assert.Equal(t, 8, f.current(t, itemGuantes, clinicNorte))
	replayed, err := f.ledger.Replay(ctx, itemGuantes, clinicNorte)
	require.NoError(t, err)
	assert.Equal(t, 8, replayed)

	movements, err := f.ledger.ListMovements(ctx, itemGuantes, clinicNorte)
	require.NoError(t, err)
	require.Len(t, movements, 4)
	for i := 1; i < len(movements); i++ {
		assert.Greater(t, movements[i].Number, movements[i-1].Number)
	}
	assert.Len(t, f.events.ofType(inventory.EventMovementRecorded), 4)
}

func TestAppend_InsufficientStockLeavesNoTrace(t *testing.T) {
	f := newFixture(t, time.Second)
	ctx := context.Background()
	f.entry(t, itemGuantes, clinicNorte, 5)

	_, err := f.ledger.Append(ctx, inventory.MovementRequest{
		Type: entity.MovementTypeEXIT, ItemID: itemGuantes, ClinicID: clinicNorte, Quantity: 6,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, 5, f.current(t, itemGuantes, clinicNorte))
	movements, err := f.ledger.ListMovements(ctx, itemGuantes, clinicNorte)
	require.NoError(t, err)
	assert.Len(t, movements, 1)
}

func TestAppend_Validation(t *testing.T) {
	f := newFixture(t, time.Second)
	ctx := context.Background()

	tests := []struct {
		name string
		req  inventory.MovementRequest
		want error
	}{
		{"cantidad cero", inventory.MovementRequest{Type: entity.MovementTypeENTRY, ItemID: itemGuantes, ClinicID: clinicNorte}, domain.ErrInvalidQuantity},
		{"tipo desconocido", inventory.MovementRequest{Type: "LOAN", ItemID: itemGuantes, ClinicID: clinicNorte, Quantity: 1}, domain.ErrInvalidInput},
		{"ajuste sin dirección", inventory.MovementRequest{Type: entity.MovementTypeADJUSTMENT, ItemID: itemGuantes, ClinicID: clinicNorte, Quantity: 1}, domain.ErrInvalidInput},
		{"traslado a la misma sede", inventory.MovementRequest{Type: entity.MovementTypeTRANSFER, ItemID: itemGuantes, ClinicID: clinicNorte, TargetClinicID: clinicNorte, Quantity: 1}, domain.ErrInvalidInput},
		{"ítem inexistente", inventory.MovementRequest{Type: entity.MovementTypeENTRY, ItemID: "nope", ClinicID: clinicNorte, Quantity: 1}, domain.ErrNotFound},
		{"sede inexistente", inventory.MovementRequest{Type: entity.MovementTypeENTRY, ItemID: itemGuantes, ClinicID: "nope", Quantity: 1}, domain.ErrNotFound},
		{"entrada de ítem con lote sin lote", inventory.MovementRequest{Type: entity.MovementTypeENTRY, ItemID: itemVacuna, ClinicID: clinicNorte, Quantity: 1}, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.Append(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAppend_EntryUpdatesAverageCost(t *testing.T) {
	f := newFixture(t, time.Second)
	ctx := context.Background()

	for _, cost := range []string{"200", "100"} {
		c := decimal.RequireFromString(cost)
		_, err := f.ledger.Append(ctx, inventory.MovementRequest{
			Type: entity.MovementTypeENTRY, ItemID: itemGuantes, ClinicID: clinicNorte, Quantity: 10, UnitCost: &c,
		})
		require.NoError(t, err)
	}

	item, err := f.repos.Items.GetByID(ctx, itemGuantes)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(150).Equal(item.UnitCost), "costo promedio: %s", item.UnitCost)
}

func TestAppend_TransferMovesStockBetweenClinics(t *testing.T) {
	f := newFixture(t, time.Second)
	ctx := context.Background()
	f.entry(t, itemGuantes, clinicNorte, 10)

	movements, err := f.ledger.Append(ctx, inventory.MovementRequest{
		Type: entity.MovementTypeTRANSFER, ItemID: itemGuantes, ClinicID: clinicNorte, TargetClinicID: clinicSur, Quantity: 4,
	})
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, movements[0].CorrelationID, movements[1].CorrelationID)
	assert.Equal(t, entity.DirectionOUT, movements[0].Direction)
	assert.Equal(t, clinicSur, movements[1].ClinicID)

	assert.Equal(t, 6, f.current(t, itemGuantes, clinicNorte))
	assert.Equal(t, 4, f.current(t, itemGuantes, clinicSur))

	_, err = f.ledger.Append(ctx, inventory.MovementRequest{
		Type: entity.MovementTypeTRANSFER, ItemID: itemGuantes, ClinicID: clinicNorte, TargetClinicID: clinicSur, Quantity: 7,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 6, f.current(t, itemGuantes, clinicNorte))
}

func TestAppend_ExitConsumesBatchesFEFO(t *testing.T) {
	f := newFixture(t, time.Second)
	ctx := context.Background()
	b2 := f.openBatch(t, "L-002", 3, 60)
	b1 := f.openBatch(t, "L-001", 2, 30)

	movements, err := f.ledger.Append(ctx, inventory.MovementRequest{
		Type: entity.MovementTypeEXIT, ItemID: itemVacuna, ClinicID: clinicNorte, Quantity: 4,
	})
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, b1.ID, movements[0].BatchID)
	assert.Equal(t, 2, movements[0].Quantity)
	assert.Equal(t, b2.ID, movements[1].BatchID)
	assert.Equal(t, 2, movements[1].Quantity)

	got1, err := f.repos.Batches.GetByID(ctx, b1.ID)
	require.NoError(t, err)
	got2, err := f.repos.Batches.GetByID(ctx, b2.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got1.CurrentStock)
	assert.Equal(t, 1, got2.CurrentStock)
	assert.Equal(t, 1, f.current(t, itemVacuna, clinicNorte))
}

func TestAppend_ConcurrentExitsNeverOversell(t *testing.T) {
	f := newFixture(t, 5*time.Second)
	ctx := context.Background()
	f.entry(t, itemGuantes, clinicNorte, 10)

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		ok, rejected int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.Append(ctx, inventory.MovementRequest{
				Type: entity.MovementTypeEXIT, ItemID: itemGuantes, ClinicID: clinicNorte, Quantity: 1,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 15, rejected)
	assert.Equal(t, 0, f.current(t, itemGuantes, clinicNorte))
	replayed, err := f.ledger.Replay(ctx, itemGuantes, clinicNorte)
	require.NoError(t, err)
	assert.Equal(t, 0, replayed)
}

func TestAppend_LockTimeoutIsRetryable(t *testing.T) {
	f := newFixture(t, 50*time.Millisecond)
	ctx := context.Background()
	f.entry(t, itemGuantes, clinicNorte, 10)

	var appendErr error
	err := f.store.Run(ctx, func(r inventory.Repos) error {
		if _, err := r.Stock.GetForUpdate(ctx, itemGuantes, clinicNorte); err != nil {
			return err
		}
		// otra transacción compite por la misma fila mientras esta la retiene
		_, appendErr = f.ledger.Append(ctx, inventory.MovementRequest{
			Type: entity.MovementTypeEXIT, ItemID: itemGuantes, ClinicID: clinicNorte, Quantity: 1,
		})
		return nil
	})
	require.NoError(t, err)
	require.ErrorIs(t, appendErr, domain.ErrLockTimeout)
	assert.True(t, domain.IsRetryable(appendErr))
	assert.Equal(t, 10, f.current(t, itemGuantes, clinicNorte))
}

func TestNotify_LowStockAfterExit(t *testing.T) {
	f := newFixture(t, time.Second)
	ctx := context.Background()
	_, err := f.stock.SetThresholds(ctx, itemGuantes, clinicNorte, inventory.ThresholdsCommand{ReorderPoint: intPtr(5)})
	require.NoError(t, err)
	f.entry(t, itemGuantes, clinicNorte, 10)
	assert.Empty(t, f.events.ofType(inventory.EventLowStockDetected))

	_, err = f.ledger.Append(ctx, inventory.MovementRequest{
		Type: entity.MovementTypeEXIT, ItemID: itemGuantes, ClinicID: clinicNorte, Quantity: 5,
	})
	require.NoError(t, err)

	low := f.events.ofType(inventory.EventLowStockDetected)
	require.Len(t, low, 1)
	assert.Equal(t, 5, low[0].CurrentStock)
	assert.Equal(t, 5, low[0].ReorderPoint)
}
