//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/jhoicas/clinistock-api/internal/application/inventory"
	"github.com/jhoicas/clinistock-api/internal/application/purchasing"
	"github.com/jhoicas/clinistock-api/internal/domain"
	"github.com/jhoicas/clinistock-api/internal/domain/entity"
	"github.com/jhoicas/clinistock-api/internal/domain/repository"
	"github.com/jhoicas/clinistock-api/internal/infrastructure/postgres"
	"github.com/jhoicas/clinistock-api/pkg/config"
)

// go test -tags integration ./internal/infrastructure/postgres/...
func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("clinistock_test"),
		tcPostgres.WithUsername("clinistock"),
		tcPostgres.WithPassword("clinistock"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	url, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: url, MaxConns: 10})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(ctx, pool))
	// idempotente
	require.NoError(t, postgres.Migrate(ctx, pool))
	return pool
}

type pgEnv struct {
	repos     inventory.Repos
	tx        *postgres.TxRunner
	suppliers repository.SupplierRepository
	stock     *inventory.ClinicStockProjection
	batches   *inventory.BatchTracker
	ledger    *inventory.StockLedger
}

func newPgEnv(t *testing.T, pool *pgxpool.Pool, lockTimeout time.Duration) *pgEnv {
	t.Helper()
	ctx := context.Background()
	repos := postgres.NewRepos(pool)
	tx := postgres.NewTxRunner(pool, lockTimeout)
	now := time.Now()

	require.NoError(t, repos.Clinics.Create(ctx, &entity.Clinic{ID: "c1", Code: "C1", Name: "Centro", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, repos.Clinics.Create(ctx, &entity.Clinic{ID: "c2", Code: "C2", Name: "Norte", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, repos.Items.Create(ctx, &entity.Item{ID: "gasas", Code: "GAS", Name: "Gasas", UnitMeasure: "UND", UnitCost: decimal.NewFromInt(100), CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, repos.Items.Create(ctx, &entity.Item{ID: "vacuna", Code: "VAC", Name: "Vacuna", UnitMeasure: "UND", RequiresBatchControl: true, CreatedAt: now, UpdatedAt: now}))

	stock := inventory.NewClinicStockProjection(tx, repos)
	batches := inventory.NewBatchTracker(tx, repos)
	ledger := inventory.NewStockLedger(tx, repos, batches, stock, nil)
	return &pgEnv{
		repos:     repos,
		tx:        tx,
		suppliers: postgres.NewSupplierRepository(pool),
		stock:     stock,
		batches:   batches,
		ledger:    ledger,
	}
}

func TestLedger_Postgres(t *testing.T) {
	pool := setupPool(t)
	env := newPgEnv(t, pool, 2*time.Second)
	ctx := context.Background()

	_, err := env.ledger.Append(ctx, inventory.MovementRequest{Type: entity.MovementTypeENTRY, ItemID: "gasas", ClinicID: "c1", Quantity: 10})
	require.NoError(t, err)
	_, err = env.ledger.Append(ctx, inventory.MovementRequest{Type: entity.MovementTypeEXIT, ItemID: "gasas", ClinicID: "c1", Quantity: 11})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	moves, err := env.ledger.Append(ctx, inventory.MovementRequest{Type: entity.MovementTypeTRANSFER, ItemID: "gasas", ClinicID: "c1", TargetClinicID: "c2", Quantity: 4})
	require.NoError(t, err)
	require.Len(t, moves, 2)

	pair, err := env.repos.Movements.ListByCorrelation(ctx, moves[0].CorrelationID)
	require.NoError(t, err)
	assert.Len(t, pair, 2)

	for clinic, want := range map[string]int{"c1": 6, "c2": 4} {
		s, err := env.stock.GetStock(ctx, "gasas", clinic)
		require.NoError(t, err)
		assert.Equal(t, want, s.CurrentStock)
		replayed, err := env.ledger.Replay(ctx, "gasas", clinic)
		require.NoError(t, err)
		assert.Equal(t, want, replayed)
	}
}

func TestLedger_ConcurrentExitsPostgres(t *testing.T) {
	pool := setupPool(t)
	env := newPgEnv(t, pool, 5*time.Second)
	ctx := context.Background()

	_, err := env.ledger.Append(ctx, inventory.MovementRequest{Type: entity.MovementTypeENTRY, ItemID: "gasas", ClinicID: "c1", Quantity: 5})
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.ledger.Append(ctx, inventory.MovementRequest{Type: entity.MovementTypeEXIT, ItemID: "gasas", ClinicID: "c1", Quantity: 1})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, domain.ErrInsufficientStock) {
				fail++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, 7, fail)
	s, err := env.stock.GetStock(ctx, "gasas", "c1")
	require.NoError(t, err)
	assert.Zero(t, s.CurrentStock)
}

func TestBatches_FEFOAndSweepPostgres(t *testing.T) {
	pool := setupPool(t)
	env := newPgEnv(t, pool, 2*time.Second)
	ctx := context.Background()

	soon := time.Now().AddDate(0, 0, 10)
	later := time.Now().AddDate(0, 0, 40)
	past := time.Now().AddDate(0, 0, -2)
	b1, err := env.batches.OpenBatch(ctx, inventory.OpenBatchCommand{ItemID: "vacuna", ClinicID: "c1", BatchNumber: "L1", InitialStock: 2, ExpirationDate: &soon})
	require.NoError(t, err)
	b2, err := env.batches.OpenBatch(ctx, inventory.OpenBatchCommand{ItemID: "vacuna", ClinicID: "c1", BatchNumber: "L2", InitialStock: 3, ExpirationDate: &later})
	require.NoError(t, err)
	_, err = env.batches.OpenBatch(ctx, inventory.OpenBatchCommand{ItemID: "vacuna", ClinicID: "c1", BatchNumber: "L0", InitialStock: 1, ExpirationDate: &past})
	require.NoError(t, err)
	_, err = env.batches.OpenBatch(ctx, inventory.OpenBatchCommand{ItemID: "vacuna", ClinicID: "c1", BatchNumber: "L1", InitialStock: 1})
	require.ErrorIs(t, err, domain.ErrDuplicateBatch)

	marked, err := env.batches.SweepExpirations(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	moves, err := env.ledger.Append(ctx, inventory.MovementRequest{Type: entity.MovementTypeEXIT, ItemID: "vacuna", ClinicID: "c1", Quantity: 4})
	require.NoError(t, err)
	require.Len(t, moves, 2)
	assert.Equal(t, b1.ID, moves[0].BatchID)
	assert.Equal(t, b2.ID, moves[1].BatchID)

	s, err := env.stock.GetStock(ctx, "vacuna", "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, s.CurrentStock) // 1 del lote L2 + 1 del vencido L0
}

func TestLockTimeoutPostgres(t *testing.T) {
	pool := setupPool(t)
	env := newPgEnv(t, pool, 100*time.Millisecond)
	ctx := context.Background()

	var inner error
	err := env.tx.Run(ctx, func(r inventory.Repos) error {
		if _, err := r.Stock.GetForUpdate(ctx, "gasas", "c1"); err != nil {
			return err
		}
		_, inner = env.ledger.Append(ctx, inventory.MovementRequest{Type: entity.MovementTypeENTRY, ItemID: "gasas", ClinicID: "c1", Quantity: 1})
		return nil
	})
	require.NoError(t, err)
	assert.ErrorIs(t, inner, domain.ErrLockTimeout)
}

func TestPurchaseOrderReceivePostgres(t *testing.T) {
	pool := setupPool(t)
	env := newPgEnv(t, pool, 2*time.Second)
	ctx := context.Background()
	require.NoError(t, env.suppliers.Create(ctx, &entity.Supplier{ID: "s1", Code: "S1", CompanyName: "Proveedor", Active: true, CreatedAt: time.Now(), UpdatedAt: time.Now()}))

	wf := purchasing.NewPurchaseOrderWorkflow(env.tx, env.repos, env.suppliers, env.batches, env.ledger, nil)
	order, err := wf.Create(ctx, purchasing.CreateOrderCommand{
		SupplierID: "s1", ClinicID: "c1",
		Lines: []purchasing.LineCommand{{ItemID: "gasas", Quantity: 5, UnitCost: decimal.NewFromInt(200)}},
	})
	require.NoError(t, err)
	_, err = wf.Send(ctx, order.ID)
	require.NoError(t, err)
	_, err = wf.Confirm(ctx, order.ID)
	require.NoError(t, err)

	lineID := order.Items[0].ID
	got, err := wf.Receive(ctx, order.ID, []purchasing.LineReceipt{{LineID: lineID, Quantity: 3}}, "u1")
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusPartiallyReceived, got.Status)

	_, err = wf.Receive(ctx, order.ID, []purchasing.LineReceipt{{LineID: lineID, Quantity: 4}}, "u1")
	require.ErrorIs(t, err, domain.ErrOverReceipt)

	got, err = wf.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Items[0].QuantityReceived)

	open, err := env.repos.Orders.HasOpenLinesForItem(ctx, "gasas")
	require.NoError(t, err)
	assert.True(t, open)

	list, err := wf.List(ctx, repository.PurchaseOrderFilter{Status: entity.POStatusPartiallyReceived})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Items, 1)
}
