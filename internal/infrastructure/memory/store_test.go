package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinistock-api/internal/application/inventory"
	"github.com/jhoicas/clinistock-api/internal/domain"
	"github.com/jhoicas/clinistock-api/internal/domain/entity"
	"github.com/jhoicas/clinistock-api/internal/infrastructure/memory"
)

func TestRun_RollbackHidesWrites(t *testing.T) {
	store := memory.NewStore(time.Second)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.Run(ctx, func(r inventory.Repos) error {
		require.NoError(t, r.Clinics.Create(ctx, &entity.Clinic{ID: "c1", Code: "C1", Name: "Centro"}))
		// visible dentro de la propia transacción
		c, err := r.Clinics.GetByID(ctx, "c1")
		require.NoError(t, err)
		require.NotNil(t, c)
		// pero no fuera de ella
		outside, err := store.Repos().Clinics.GetByID(ctx, "c1")
		require.NoError(t, err)
		assert.Nil(t, outside)
		return boom
	})
	require.ErrorIs(t, err, boom)

	c, err := store.Repos().Clinics.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestRun_CommitPublishes(t *testing.T) {
	store := memory.NewStore(time.Second)
	ctx := context.Background()

	err := store.Run(ctx, func(r inventory.Repos) error {
		return r.Clinics.Create(ctx, &entity.Clinic{ID: "c1", Code: "C1", Name: "Centro"})
	})
	require.NoError(t, err)

	c, err := store.Repos().Clinics.GetByID(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Centro", c.Name)
}

func TestGetForUpdate_LockTimeoutAndReentrancy(t *testing.T) {
	store := memory.NewStore(30 * time.Millisecond)
	ctx := context.Background()

	err := store.Run(ctx, func(r inventory.Repos) error {
		s, err := r.Stock.GetForUpdate(ctx, "i1", "c1")
		require.NoError(t, err)
		assert.Zero(t, s.CurrentStock)

		// reentrante dentro de la misma transacción
		_, err = r.Stock.GetForUpdate(ctx, "i1", "c1")
		require.NoError(t, err)

		inner := store.Run(ctx, func(r2 inventory.Repos) error {
			_, err := r2.Stock.GetForUpdate(ctx, "i1", "c1")
			return err
		})
		assert.ErrorIs(t, inner, domain.ErrLockTimeout)

		// otra fila no está bloqueada
		return store.Run(ctx, func(r2 inventory.Repos) error {
			_, err := r2.Stock.GetForUpdate(ctx, "i1", "c2")
			return err
		})
	})
	require.NoError(t, err)

	// liberado tras el fin de la transacción
	err = store.Run(ctx, func(r inventory.Repos) error {
		_, err := r.Stock.GetForUpdate(ctx, "i1", "c1")
		return err
	})
	assert.NoError(t, err)
}

func TestRun_CancelledContext(t *testing.T) {
	store := memory.NewStore(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.Run(ctx, func(inventory.Repos) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestBatches_DuplicateNumberPerItem(t *testing.T) {
	store := memory.NewStore(time.Second)
	ctx := context.Background()
	repos := store.Repos()

	require.NoError(t, repos.Batches.Create(ctx, &entity.Batch{ID: "b1", ItemID: "i1", BatchNumber: "L-1"}))
	assert.ErrorIs(t, repos.Batches.Create(ctx, &entity.Batch{ID: "b2", ItemID: "i1", BatchNumber: "L-1"}), domain.ErrDuplicateBatch)
	assert.NoError(t, repos.Batches.Create(ctx, &entity.Batch{ID: "b3", ItemID: "i2", BatchNumber: "L-1"}))
}
