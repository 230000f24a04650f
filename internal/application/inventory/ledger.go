package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/clinistock-api/internal/domain"
	"github.com/jhoicas/clinistock-api/internal/domain/entity"
	"github.com/jhoicas/clinistock-api/internal/domain/inventory"
)

// StockLedger es la única vía para cambiar cantidades: cada Append valida, bloquea las filas
// afectadas (SELECT FOR UPDATE), persiste los movimientos y aplica los deltas a la proyección
// por sede y a los lotes en una sola transacción.
type StockLedger struct {
	txRunner  TxRunner
	repos     Repos
	batches   *BatchTracker
	stock     *ClinicStockProjection
	publisher EventPublisher
}

// NewStockLedger construye el libro y enlaza el BatchTracker para que OpenBatch registre su ENTRY.
func NewStockLedger(
	txRunner TxRunner,
	repos Repos,
	batches *BatchTracker,
	stock *ClinicStockProjection,
	publisher EventPublisher,
) *StockLedger {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	l := &StockLedger{
		txRunner:  txRunner,
		repos:     repos,
		batches:   batches,
		stock:     stock,
		publisher: publisher,
	}
	batches.ledger = l
	return l
}

// MovementRequest entrada para registrar un movimiento.
// ENTRY y EXIT fijan la dirección; ADJUSTMENT exige Direction (IN | OUT).
// TRANSFER usa ClinicID como origen y TargetClinicID como destino.
type MovementRequest struct {
	Type                 string
	Direction            string
	ItemID               string
	ClinicID             string
	TargetClinicID       string
	BatchID              string // obligatorio en entradas de ítems con lote; opcional en salidas (si no, FEFO)
	Quantity             int
	UnitCost             *decimal.Decimal
	MovementDate         time.Time
	Reason               string
	Notes                string
	InvoiceItemReference string
	TreatmentReference   string
	PurchaseOrderItemID  string
	CreatedBy            string
}

// direction resuelve la dirección efectiva o error si la combinación no es válida.
func (req MovementRequest) direction() (string, error) {
	switch req.Type {
	case entity.MovementTypeENTRY:
		return entity.DirectionIN, nil
	case entity.MovementTypeEXIT, entity.MovementTypeTRANSFER:
		return entity.DirectionOUT, nil
	case entity.MovementTypeADJUSTMENT:
		if req.Direction == entity.DirectionIN || req.Direction == entity.DirectionOUT {
			return req.Direction, nil
		}
	}
	return "", domain.ErrInvalidInput
}

func (req MovementRequest) validate() error {
	if req.Quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	if !entity.ValidMovementType(req.Type) || req.ItemID == "" || req.ClinicID == "" {
		return domain.ErrInvalidInput
	}
	if req.Type == entity.MovementTypeTRANSFER && (req.TargetClinicID == "" || req.TargetClinicID == req.ClinicID) {
		return domain.ErrInvalidInput
	}
	if req.UnitCost != nil && req.UnitCost.IsNegative() {
		return domain.ErrInvalidInput
	}
	_, err := req.direction()
	return err
}

// Append registra el movimiento en su propia transacción y publica los eventos tras el Commit.
// Devuelve las filas creadas (una por lote afectado; dos en TRANSFER), todas con el mismo CorrelationID.
func (l *StockLedger) Append(ctx context.Context, req MovementRequest) ([]*entity.Movement, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	var movements []*entity.Movement
	err := l.txRunner.Run(ctx, func(r Repos) error {
		var err error
		movements, err = l.AppendInTx(ctx, r, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	l.Notify(ctx, movements)
	return movements, nil
}

// AppendInTx ejecuta Append usando los repositorios de una transacción en curso (recepción de compras,
// alta de lotes). El llamador hace Commit y luego Notify.
func (l *StockLedger) AppendInTx(ctx context.Context, r Repos, req MovementRequest) ([]*entity.Movement, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	item, err := r.Items.GetByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.IsDeleted() {
		return nil, domain.ErrNotFound
	}
	if err := l.requireClinic(ctx, r, req.ClinicID); err != nil {
		return nil, err
	}

	now := time.Now()
	if req.MovementDate.IsZero() {
		req.MovementDate = now
	}
	correlationID := uuid.New().String()

	if req.Type == entity.MovementTypeTRANSFER {
		if err := l.requireClinic(ctx, r, req.TargetClinicID); err != nil {
			return nil, err
		}
		return l.transfer(ctx, r, item, req, correlationID)
	}

	dir, _ := req.direction()
	if dir == entity.DirectionOUT {
		return l.decrease(ctx, r, item, req, correlationID)
	}
	return l.increase(ctx, r, item, req, correlationID)
}

// decrease: bloquea la fila de la sede, valida stock, resuelve lotes (explícito o FEFO) y descuenta.
func (l *StockLedger) decrease(ctx context.Context, r Repos, item *entity.Item, req MovementRequest, correlationID string) ([]*entity.Movement, error) {
	stock, err := r.Stock.GetForUpdate(ctx, item.ID, req.ClinicID)
	if err != nil {
		return nil, err
	}
	if stock.CurrentStock < req.Quantity {
		return nil, domain.ErrInsufficientStock
	}

	unitCost := item.UnitCost
	if req.UnitCost != nil {
		unitCost = *req.UnitCost
	}

	var allocations []inventory.Allocation
	if item.RequiresBatchControl {
		allocations, err = l.batches.allocate(ctx, r, item.ID, req.BatchID, req.Quantity, req.MovementDate)
		if err != nil {
			return nil, err
		}
	} else {
		allocations = []inventory.Allocation{{Quantity: req.Quantity}}
	}

	movements := make([]*entity.Movement, 0, len(allocations))
	for _, a := range allocations {
		if a.BatchID != "" {
			if err := l.batches.consume(ctx, r, a.BatchID, a.Quantity); err != nil {
				return nil, err
			}
		}
		m := newMovement(req, correlationID, entity.DirectionOUT, req.ClinicID, a.BatchID, a.Quantity, unitCost)
		if err := r.Movements.Create(ctx, m); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	if err := applyDelta(ctx, r.Stock, stock, -req.Quantity); err != nil {
		return nil, err
	}
	return movements, nil
}

// increase: bloquea la fila de la sede, suma al lote indicado (ítems con lote) y, en ENTRY con costo,
// recalcula el costo promedio ponderado del ítem.
func (l *StockLedger) increase(ctx context.Context, r Repos, item *entity.Item, req MovementRequest, correlationID string) ([]*entity.Movement, error) {
	stock, err := r.Stock.GetForUpdate(ctx, item.ID, req.ClinicID)
	if err != nil {
		return nil, err
	}

	unitCost := item.UnitCost
	batchID := ""
	if item.RequiresBatchControl {
		if req.BatchID == "" {
			return nil, domain.ErrInvalidInput
		}
		batch, err := l.batches.topUp(ctx, r, item.ID, req.BatchID, req.Quantity)
		if err != nil {
			return nil, err
		}
		batchID = batch.ID
		if batch.PurchaseCost.IsPositive() {
			unitCost = batch.PurchaseCost
		}
	}
	if req.UnitCost != nil {
		unitCost = *req.UnitCost
	}

	if req.Type == entity.MovementTypeENTRY && !unitCost.Equal(item.UnitCost) {
		if err := l.updateAverageCost(ctx, r, item.ID, req.Quantity, unitCost); err != nil {
			return nil, err
		}
	}

	m := newMovement(req, correlationID, entity.DirectionIN, req.ClinicID, batchID, req.Quantity, unitCost)
	if err := r.Movements.Create(ctx, m); err != nil {
		return nil, err
	}
	if err := applyDelta(ctx, r.Stock, stock, req.Quantity); err != nil {
		return nil, err
	}
	return []*entity.Movement{m}, nil
}

// transfer: fila OUT en origen y fila IN en destino con el mismo CorrelationID.
// Ambas filas de stock se bloquean en orden de ClinicID para evitar interbloqueos; los lotes no cambian.
func (l *StockLedger) transfer(ctx context.Context, r Repos, item *entity.Item, req MovementRequest, correlationID string) ([]*entity.Movement, error) {
	clinics := []string{req.ClinicID, req.TargetClinicID}
	sort.Strings(clinics)
	locked := make(map[string]*entity.ClinicStock, 2)
	for _, clinicID := range clinics {
		s, err := r.Stock.GetForUpdate(ctx, item.ID, clinicID)
		if err != nil {
			return nil, err
		}
		locked[clinicID] = s
	}
	origin, dest := locked[req.ClinicID], locked[req.TargetClinicID]
	if origin.CurrentStock < req.Quantity {
		return nil, domain.ErrInsufficientStock
	}

	out := newMovement(req, correlationID, entity.DirectionOUT, req.ClinicID, "", req.Quantity, item.UnitCost)
	in := newMovement(req, correlationID, entity.DirectionIN, req.TargetClinicID, "", req.Quantity, item.UnitCost)
	for _, m := range []*entity.Movement{out, in} {
		if err := r.Movements.Create(ctx, m); err != nil {
			return nil, err
		}
	}
	if err := applyDelta(ctx, r.Stock, origin, -req.Quantity); err != nil {
		return nil, err
	}
	if err := applyDelta(ctx, r.Stock, dest, req.Quantity); err != nil {
		return nil, err
	}
	return []*entity.Movement{out, in}, nil
}

// updateAverageCost bloquea el ítem y aplica CostCalculator con el stock total previo a la entrada.
func (l *StockLedger) updateAverageCost(ctx context.Context, r Repos, itemID string, quantity int, unitCost decimal.Decimal) error {
	item, err := r.Items.GetForUpdate(ctx, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrNotFound
	}
	rows, err := r.Stock.ListByItem(ctx, itemID)
	if err != nil {
		return err
	}
	newCost := inventory.CostCalculator(
		decimal.NewFromInt(int64(sumStock(rows))),
		item.UnitCost,
		decimal.NewFromInt(int64(quantity)),
		unitCost,
	)
	return r.Items.UpdateCost(ctx, itemID, newCost)
}

func (l *StockLedger) requireClinic(ctx context.Context, r Repos, clinicID string) error {
	c, err := r.Clinics.GetByID(ctx, clinicID)
	if err != nil {
		return err
	}
	if c == nil {
		return domain.ErrNotFound
	}
	return nil
}

// ListMovements movimientos del par ítem+sede en orden de registro.
func (l *StockLedger) ListMovements(ctx context.Context, itemID, clinicID string) ([]*entity.Movement, error) {
	if itemID == "" || clinicID == "" {
		return nil, domain.ErrInvalidInput
	}
	return l.repos.Movements.ListByItemAndClinic(ctx, itemID, clinicID)
}

// Replay reconstruye el stock del par sumando las cantidades con signo del libro.
// Debe coincidir con ClinicStock.CurrentStock.
func (l *StockLedger) Replay(ctx context.Context, itemID, clinicID string) (int, error) {
	movements, err := l.ListMovements(ctx, itemID, clinicID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, m := range movements {
		total += m.SignedQuantity()
	}
	return total, nil
}

// Notify publica MovementRecorded por cada fila y LowStockDetected para los pares que bajaron
// al punto de reorden. Solo debe llamarse después del Commit; los errores se registran y no se propagan.
func (l *StockLedger) Notify(ctx context.Context, movements []*entity.Movement) {
	checked := make(map[string]bool)
	for _, m := range movements {
		l.publish(ctx, Event{
			Type:       EventMovementRecorded,
			ItemID:     m.ItemID,
			ClinicID:   m.ClinicID,
			Movement:   m,
			OccurredAt: m.CreatedAt,
		})
		key := m.ItemID + "|" + m.ClinicID
		if m.Direction != entity.DirectionOUT || checked[key] {
			continue
		}
		checked[key] = true
		s, err := l.repos.Stock.Get(ctx, m.ItemID, m.ClinicID)
		if err != nil || s == nil || !s.IsLowStock() {
			continue
		}
		l.publish(ctx, Event{
			Type:         EventLowStockDetected,
			ItemID:       s.ItemID,
			ClinicID:     s.ClinicID,
			CurrentStock: s.CurrentStock,
			ReorderPoint: s.ReorderPoint,
			OccurredAt:   time.Now(),
		})
	}
}

func (l *StockLedger) publish(ctx context.Context, ev Event) {
	if err := l.publisher.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("event", ev.Type).Str("item_id", ev.ItemID).Msg("no se pudo publicar evento de inventario")
	}
}

func newMovement(req MovementRequest, correlationID, direction, clinicID, batchID string, quantity int, unitCost decimal.Decimal) *entity.Movement {
	now := time.Now()
	return &entity.Movement{
		ID:                   uuid.New().String(),
		CorrelationID:        correlationID,
		Type:                 req.Type,
		Direction:            direction,
		Quantity:             quantity,
		UnitCost:             unitCost,
		TotalCost:            unitCost.Mul(decimal.NewFromInt(int64(quantity))),
		MovementDate:         req.MovementDate,
		Reason:               req.Reason,
		Notes:                req.Notes,
		ItemID:               req.ItemID,
		ClinicID:             clinicID,
		BatchID:              batchID,
		InvoiceItemReference: req.InvoiceItemReference,
		TreatmentReference:   req.TreatmentReference,
		PurchaseOrderItemID:  req.PurchaseOrderItemID,
		CreatedBy:            req.CreatedBy,
		CreatedAt:            now,
	}
}
