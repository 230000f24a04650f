package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinistock-api/internal/application/inventory"
	"github.com/jhoicas/clinistock-api/internal/domain/entity"
	"github.com/jhoicas/clinistock-api/internal/infrastructure/memory"
)

const (
	clinicNorte = "clinic-norte"
	clinicSur   = "clinic-sur"
	itemGuantes = "item-guantes" // sin control de lote
	itemVacuna  = "item-vacuna"  // con control de lote
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []inventory.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev inventory.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) ofType(t string) []inventory.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []inventory.Event
	for _, ev := range p.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type fixture struct {
	store   *memory.Store
	repos   inventory.Repos
	stock   *inventory.ClinicStockProjection
	batches *inventory.BatchTracker
	ledger  *inventory.StockLedger
	events  *recordingPublisher
}

func newFixture(t *testing.T, lockTimeout time.Duration) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore(lockTimeout)
	repos := store.Repos()
	now := time.Now()
	for _, c := range []*entity.Clinic{
		{ID: clinicNorte, Code: "NTE", Name: "Sede Norte", CreatedAt: now},
		{ID: clinicSur, Code: "SUR", Name: "Sede Sur", CreatedAt: now},
	} {
		require.NoError(t, repos.Clinics.Create(ctx, c))
	}
	for _, it := range []*entity.Item{
		{ID: itemGuantes, Code: "GUA-001", Name: "Guantes de nitrilo", UnitCost: decimal.NewFromInt(100), CreatedAt: now},
		{ID: itemVacuna, Code: "VAC-001", Name: "Vacuna antitetánica", UnitCost: decimal.NewFromInt(5000), RequiresBatchControl: true, CreatedAt: now},
	} {
		require.NoError(t, repos.Items.Create(ctx, it))
	}

	events := &recordingPublisher{}
	stock := inventory.NewClinicStockProjection(store, repos)
	batches := inventory.NewBatchTracker(store, repos)
	ledger := inventory.NewStockLedger(store, repos, batches, stock, events)
	return &fixture{store: store, repos: repos, stock: stock, batches: batches, ledger: ledger, events: events}
}

func (f *fixture) entry(t *testing.T, itemID, clinicID string, qty int) {
	t.Helper()
	_, err := f.ledger.Append(context.Background(), inventory.MovementRequest{
		Type: entity.MovementTypeENTRY, ItemID: itemID, ClinicID: clinicID, Quantity: qty,
	})
	require.NoError(t, err)
}

func (f *fixture) current(t *testing.T, itemID, clinicID string) int {
	t.Helper()
	s, err := f.stock.GetStock(context.Background(), itemID, clinicID)
	require.NoError(t, err)
	return s.CurrentStock
}

func (f *fixture) openBatch(t *testing.T, number string, qty int, expiresInDays int) *entity.Batch {
	t.Helper()
	exp := time.Now().AddDate(0, 0, expiresInDays)
	b, err := f.batches.OpenBatch(context.Background(), inventory.OpenBatchCommand{
		ItemID:         itemVacuna,
		ClinicID:       clinicNorte,
		BatchNumber:    number,
		InitialStock:   qty,
		ExpirationDate: &exp,
		PurchaseCost:   decimal.NewFromInt(5000),
	})
	require.NoError(t, err)
	return b
}

func intPtr(v int) *int { return &v }
