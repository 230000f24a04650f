package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/clinistock-api/internal/domain"
	"github.com/jhoicas/clinistock-api/internal/domain/entity"
	"github.com/jhoicas/clinistock-api/internal/domain/inventory"
)

// BatchTracker administra los lotes de ítems con control de lote: alta, selección FEFO,
// consumo y marcado de vencidos. El stock de los lotes solo cambia a través del StockLedger.
type BatchTracker struct {
	txRunner TxRunner
	repos    Repos
	ledger   *StockLedger // lo asigna NewStockLedger
}

// NewBatchTracker construye el tracker.
func NewBatchTracker(txRunner TxRunner, repos Repos) *BatchTracker {
	return &BatchTracker{txRunner: txRunner, repos: repos}
}

// OpenBatchCommand alta manual de un lote con su ENTRY inicial en la sede indicada.
type OpenBatchCommand struct {
	ItemID         string
	ClinicID       string
	BatchNumber    string
	InitialStock   int
	ExpirationDate *time.Time
	PurchaseCost   decimal.Decimal
	CreatedBy      string
}

// OpenBatch crea el lote y registra su ENTRY en el libro en una sola transacción.
// Solo para ítems con control de lote; ErrDuplicateBatch si el número ya existe para el ítem.
func (t *BatchTracker) OpenBatch(ctx context.Context, cmd OpenBatchCommand) (*entity.Batch, error) {
	cmd.BatchNumber = strings.TrimSpace(cmd.BatchNumber)
	if cmd.BatchNumber == "" || cmd.ClinicID == "" || cmd.PurchaseCost.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if cmd.InitialStock <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	var (
		batchID   string
		movements []*entity.Movement
	)
	err := t.txRunner.Run(ctx, func(r Repos) error {
		item, err := r.Items.GetByID(ctx, cmd.ItemID)
		if err != nil {
			return err
		}
		if item == nil || item.IsDeleted() {
			return domain.ErrNotFound
		}
		if !item.RequiresBatchControl {
			return domain.ErrInvalidInput
		}
		// Orden de bloqueo: fila de stock, lotes, ítem.
		if _, err := r.Stock.GetForUpdate(ctx, cmd.ItemID, cmd.ClinicID); err != nil {
			return err
		}
		b, err := t.open(ctx, r, cmd.ItemID, cmd.BatchNumber, cmd.InitialStock, cmd.ExpirationDate, cmd.PurchaseCost, "")
		if err != nil {
			return err
		}
		batchID = b.ID
		cost := cmd.PurchaseCost
		movements, err = t.ledger.AppendInTx(ctx, r, MovementRequest{
			Type:      entity.MovementTypeENTRY,
			ItemID:    cmd.ItemID,
			ClinicID:  cmd.ClinicID,
			BatchID:   b.ID,
			Quantity:  cmd.InitialStock,
			UnitCost:  &cost,
			Reason:    "alta manual de lote " + cmd.BatchNumber,
			CreatedBy: cmd.CreatedBy,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	t.ledger.Notify(ctx, movements)
	return t.repos.Batches.GetByID(ctx, batchID)
}

// open crea el lote con CurrentStock 0; la ENTRY del libro lo lleva a su cantidad.
func (t *BatchTracker) open(ctx context.Context, r Repos, itemID, number string, initial int, exp *time.Time, cost decimal.Decimal, orderID string) (*entity.Batch, error) {
	if _, err := r.Batches.ListByItemForUpdate(ctx, itemID); err != nil {
		return nil, err
	}
	existing, err := r.Batches.GetByItemAndNumber(ctx, itemID, number)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicateBatch
	}
	now := time.Now()
	b := &entity.Batch{
		ID:              uuid.New().String(),
		ItemID:          itemID,
		BatchNumber:     number,
		ExpirationDate:  exp,
		InitialStock:    initial,
		CurrentStock:    0,
		PurchaseCost:    cost,
		PurchaseOrderID: orderID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := r.Batches.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ReceiveInto abre el lote o, si el número ya existe con el mismo vencimiento, amplía su InitialStock.
// Un mismo número con otro vencimiento es un lote distinto y se rechaza. Se usa dentro de la
// transacción de una recepción (r atado a la tx); la ENTRY del libro lleva luego CurrentStock.
func (t *BatchTracker) ReceiveInto(ctx context.Context, r Repos, itemID, number string, quantity int, exp *time.Time, cost decimal.Decimal, orderID string) (*entity.Batch, error) {
	if _, err := r.Batches.ListByItemForUpdate(ctx, itemID); err != nil {
		return nil, err
	}
	existing, err := r.Batches.GetByItemAndNumber(ctx, itemID, number)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return t.open(ctx, r, itemID, number, quantity, exp, cost, orderID)
	}
	if !sameDate(existing.ExpirationDate, exp) {
		return nil, domain.ErrDuplicateBatch
	}
	existing.InitialStock += quantity
	existing.UpdatedAt = time.Now()
	if err := r.Batches.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// topUp suma quantity al lote (entradas del libro). InitialStock acompaña si CurrentStock lo supera.
func (t *BatchTracker) topUp(ctx context.Context, r Repos, itemID, batchID string, quantity int) (*entity.Batch, error) {
	b, err := t.lockedBatch(ctx, r, itemID, batchID)
	if err != nil {
		return nil, err
	}
	b.CurrentStock += quantity
	if b.CurrentStock > b.InitialStock {
		b.InitialStock = b.CurrentStock
	}
	b.UpdatedAt = time.Now()
	if err := r.Batches.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// consume descuenta quantity del lote de forma atómica dentro de la tx del libro.
func (t *BatchTracker) consume(ctx context.Context, r Repos, batchID string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	b, err := r.Batches.GetByID(ctx, batchID)
	if err != nil {
		return err
	}
	if b == nil {
		return domain.ErrNotFound
	}
	if quantity > b.CurrentStock {
		return domain.ErrInsufficientStock
	}
	b.CurrentStock -= quantity
	b.UpdatedAt = time.Now()
	return r.Batches.Update(ctx, b)
}

// allocate resuelve de qué lotes sale una cantidad: el lote explícito (se admite vencido, para bajas)
// o la selección FEFO sobre los lotes abiertos.
func (t *BatchTracker) allocate(ctx context.Context, r Repos, itemID, batchID string, quantity int, asOf time.Time) ([]inventory.Allocation, error) {
	if batchID != "" {
		b, err := t.lockedBatch(ctx, r, itemID, batchID)
		if err != nil {
			return nil, err
		}
		if b.CurrentStock < quantity {
			return nil, domain.ErrInsufficientStock
		}
		return []inventory.Allocation{{BatchID: b.ID, Quantity: quantity}}, nil
	}
	batches, err := r.Batches.ListByItemForUpdate(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return inventory.SelectFEFO(batches, quantity, asOf)
}

// lockedBatch bloquea el conjunto de lotes del ítem y devuelve el pedido (debe pertenecer al ítem).
func (t *BatchTracker) lockedBatch(ctx context.Context, r Repos, itemID, batchID string) (*entity.Batch, error) {
	batches, err := r.Batches.ListByItemForUpdate(ctx, itemID)
	if err != nil {
		return nil, err
	}
	for _, b := range batches {
		if b.ID == batchID {
			return b, nil
		}
	}
	return nil, domain.ErrNotFound
}

// SelectForConsumption propone la asignación FEFO para requiredQuantity sin modificar nada.
func (t *BatchTracker) SelectForConsumption(ctx context.Context, itemID string, requiredQuantity int) ([]inventory.Allocation, error) {
	item, err := t.repos.Items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.IsDeleted() {
		return nil, domain.ErrNotFound
	}
	if !item.RequiresBatchControl {
		return nil, domain.ErrInvalidInput
	}
	batches, err := t.repos.Batches.ListByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return inventory.SelectFEFO(batches, requiredQuantity, time.Now())
}

// SweepExpirations marca IsExpired en los lotes con stock cuyo vencimiento es anterior a asOf.
// No cambia cantidades: la baja del stock vencido es un ADJUSTMENT explícito con BatchID.
func (t *BatchTracker) SweepExpirations(ctx context.Context, asOf time.Time) (int, error) {
	marked := 0
	err := t.txRunner.Run(ctx, func(r Repos) error {
		marked = 0
		batches, err := r.Batches.ListExpirable(ctx, asOf)
		if err != nil {
			return err
		}
		for _, b := range batches {
			b.IsExpired = true
			b.UpdatedAt = time.Now()
			if err := r.Batches.Update(ctx, b); err != nil {
				return err
			}
			marked++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if marked > 0 {
		log.Info().Int("batches", marked).Time("as_of", asOf).Msg("lotes marcados como vencidos")
	}
	return marked, nil
}

// ListBatches lotes del ítem (vencidos y agotados incluidos).
func (t *BatchTracker) ListBatches(ctx context.Context, itemID string) ([]*entity.Batch, error) {
	item, err := t.repos.Items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return t.repos.Batches.ListByItem(ctx, itemID)
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
