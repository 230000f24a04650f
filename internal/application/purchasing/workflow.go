package purchasing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/clinistock-api/internal/application/inventory"
	"github.com/jhoicas/clinistock-api/internal/domain"
	"github.com/jhoicas/clinistock-api/internal/domain/entity"
	domainpurchasing "github.com/jhoicas/clinistock-api/internal/domain/purchasing"
	"github.com/jhoicas/clinistock-api/internal/domain/repository"
)

// PurchaseOrderWorkflow administra el ciclo de vida de las órdenes de compra y convierte
// las recepciones en lotes y entradas del libro de stock.
type PurchaseOrderWorkflow struct {
	txRunner  inventory.TxRunner
	repos     inventory.Repos
	suppliers repository.SupplierRepository
	batches   *inventory.BatchTracker
	ledger    *inventory.StockLedger
	pdf       DocumentGenerator
}

// NewPurchaseOrderWorkflow construye el flujo de compras. pdf puede ser nil si no se generan documentos.
func NewPurchaseOrderWorkflow(
	txRunner inventory.TxRunner,
	repos inventory.Repos,
	suppliers repository.SupplierRepository,
	batches *inventory.BatchTracker,
	ledger *inventory.StockLedger,
	pdf DocumentGenerator,
) *PurchaseOrderWorkflow {
	return &PurchaseOrderWorkflow{
		txRunner:  txRunner,
		repos:     repos,
		suppliers: suppliers,
		batches:   batches,
		ledger:    ledger,
		pdf:       pdf,
	}
}

// LineCommand línea solicitada.
type LineCommand struct {
	ItemID   string
	Quantity int
	UnitCost decimal.Decimal
}

// CreateOrderCommand entrada para crear una orden en DRAFT.
type CreateOrderCommand struct {
	SupplierID           string
	ClinicID             string
	ExpectedDeliveryDate *time.Time
	TaxRate              decimal.Decimal
	Notes                string
	Lines                []LineCommand
	CreatedBy            string
}

// LineReceipt cantidad recibida de una línea. BatchNumber es obligatorio para ítems con lote.
type LineReceipt struct {
	LineID         string
	Quantity       int
	BatchNumber    string
	ExpirationDate *time.Time
}

// Create crea la orden en DRAFT. El proveedor debe estar activo y la sede e ítems existir.
func (w *PurchaseOrderWorkflow) Create(ctx context.Context, cmd CreateOrderCommand) (*entity.PurchaseOrder, error) {
	if cmd.TaxRate.IsNegative() || cmd.ClinicID == "" {
		return nil, domain.ErrInvalidInput
	}
	supplier, err := w.suppliers.GetByID(ctx, cmd.SupplierID)
	if err != nil {
		return nil, err
	}
	if supplier == nil || supplier.DeletedAt != nil {
		return nil, domain.ErrNotFound
	}
	if !supplier.Active {
		return nil, domain.ErrInvalidInput
	}
	clinic, err := w.repos.Clinics.GetByID(ctx, cmd.ClinicID)
	if err != nil {
		return nil, err
	}
	if clinic == nil {
		return nil, domain.ErrNotFound
	}

	now := time.Now()
	order := &entity.PurchaseOrder{
		ID:                   uuid.New().String(),
		OrderNumber:          newOrderNumber(now),
		SupplierID:           supplier.ID,
		ClinicID:             clinic.ID,
		Status:               entity.POStatusDraft,
		OrderDate:            now,
		ExpectedDeliveryDate: cmd.ExpectedDeliveryDate,
		TaxRate:              cmd.TaxRate,
		Notes:                cmd.Notes,
		CreatedBy:            cmd.CreatedBy,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	for _, lc := range cmd.Lines {
		line, err := w.newLine(ctx, order.ID, lc)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, line)
	}
	domainpurchasing.Recalculate(order)
	err = w.txRunner.Run(ctx, func(r inventory.Repos) error {
		return r.Orders.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("order_id", order.ID).Str("order_number", order.OrderNumber).Msg("orden de compra creada")
	return order, nil
}

// AddLine agrega una línea a una orden en DRAFT y recalcula totales.
func (w *PurchaseOrderWorkflow) AddLine(ctx context.Context, orderID string, lc LineCommand) (*entity.PurchaseOrder, error) {
	var out *entity.PurchaseOrder
	err := w.txRunner.Run(ctx, func(r inventory.Repos) error {
		order, err := lockOrder(ctx, r, orderID)
		if err != nil {
			return err
		}
		if order.Status != entity.POStatusDraft {
			return domain.ErrInvalidState
		}
		line, err := w.newLine(ctx, order.ID, lc)
		if err != nil {
			return err
		}
		if err := r.Orders.AddLine(ctx, line); err != nil {
			return err
		}
		order.Items = append(order.Items, line)
		domainpurchasing.Recalculate(order)
		order.UpdatedAt = time.Now()
		if err := r.Orders.Update(ctx, order); err != nil {
			return err
		}
		out = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (w *PurchaseOrderWorkflow) newLine(ctx context.Context, orderID string, lc LineCommand) (*entity.PurchaseOrderItem, error) {
	if lc.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if lc.UnitCost.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	item, err := w.repos.Items.GetByID(ctx, lc.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.IsDeleted() {
		return nil, domain.ErrNotFound
	}
	return &entity.PurchaseOrderItem{
		ID:              uuid.New().String(),
		PurchaseOrderID: orderID,
		ItemID:          item.ID,
		Quantity:        lc.Quantity,
		UnitCost:        lc.UnitCost,
		LineTotal:       lc.UnitCost.Mul(decimal.NewFromInt(int64(lc.Quantity))),
	}, nil
}

// Get devuelve la orden con sus líneas.
func (w *PurchaseOrderWorkflow) Get(ctx context.Context, orderID string) (*entity.PurchaseOrder, error) {
	order, err := w.repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

// List lista órdenes con filtros opcionales.
func (w *PurchaseOrderWorkflow) List(ctx context.Context, filter repository.PurchaseOrderFilter) ([]*entity.PurchaseOrder, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return w.repos.Orders.List(ctx, filter)
}

// Send DRAFT -> SENT. Una orden sin líneas no se envía.
func (w *PurchaseOrderWorkflow) Send(ctx context.Context, orderID string) (*entity.PurchaseOrder, error) {
	return w.transition(ctx, orderID, entity.POStatusSent, func(o *entity.PurchaseOrder) error {
		if len(o.Items) == 0 {
			return domain.ErrInvalidState
		}
		return nil
	})
}

// Confirm SENT -> CONFIRMED.
func (w *PurchaseOrderWorkflow) Confirm(ctx context.Context, orderID string) (*entity.PurchaseOrder, error) {
	return w.transition(ctx, orderID, entity.POStatusConfirmed, nil)
}

// Cancel desde DRAFT, SENT o CONFIRMED. Una orden con recepciones ya no se cancela.
func (w *PurchaseOrderWorkflow) Cancel(ctx context.Context, orderID string) (*entity.PurchaseOrder, error) {
	return w.transition(ctx, orderID, entity.POStatusCancelled, nil)
}

func (w *PurchaseOrderWorkflow) transition(ctx context.Context, orderID, to string, guard func(*entity.PurchaseOrder) error) (*entity.PurchaseOrder, error) {
	var out *entity.PurchaseOrder
	err := w.txRunner.Run(ctx, func(r inventory.Repos) error {
		order, err := lockOrder(ctx, r, orderID)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(order); err != nil {
				return err
			}
		}
		from := order.Status
		if err := domainpurchasing.Transition(order, to); err != nil {
			return err
		}
		order.UpdatedAt = time.Now()
		if err := r.Orders.Update(ctx, order); err != nil {
			return err
		}
		log.Info().Str("order_id", order.ID).Str("from", from).Str("to", to).Msg("orden de compra actualizada")
		out = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Receive registra la recepción de una o más líneas en una sola transacción. Para cada línea con
// cantidad > 0 abre o amplía el lote (ítems con control de lote) y agrega una ENTRY al libro que
// referencia la línea. Luego recalcula el estado: RECEIVED, PARTIALLY_RECEIVED o sin cambio.
// Si alguna línea excede lo pedido no se aplica nada (ErrOverReceipt).
func (w *PurchaseOrderWorkflow) Receive(ctx context.Context, orderID string, receipts []LineReceipt, receivedBy string) (*entity.PurchaseOrder, error) {
	if len(receipts) == 0 {
		return nil, domain.ErrInvalidInput
	}
	var (
		out       *entity.PurchaseOrder
		movements []*entity.Movement
	)
	err := w.txRunner.Run(ctx, func(r inventory.Repos) error {
		movements = nil
		order, err := lockOrder(ctx, r, orderID)
		if err != nil {
			return err
		}
		if !domainpurchasing.CanReceive(order.Status) {
			return domain.ErrInvalidState
		}

		// Validar todo antes de tocar stock; acumula por línea por si se repite en el mismo llamado.
		pending := make(map[string]int)
		items := make(map[string]*entity.Item)
		for _, rc := range receipts {
			if rc.Quantity < 0 {
				return domain.ErrInvalidQuantity
			}
			line := order.Line(rc.LineID)
			if line == nil {
				return domain.ErrNotFound
			}
			pending[line.ID] += rc.Quantity
			if line.QuantityReceived+pending[line.ID] > line.Quantity {
				return domain.ErrOverReceipt
			}
			if _, ok := items[line.ItemID]; !ok {
				item, err := r.Items.GetByID(ctx, line.ItemID)
				if err != nil {
					return err
				}
				if item == nil || item.IsDeleted() {
					return domain.ErrNotFound
				}
				items[line.ItemID] = item
			}
			if rc.Quantity > 0 && items[line.ItemID].RequiresBatchControl && strings.TrimSpace(rc.BatchNumber) == "" {
				return domain.ErrInvalidInput
			}
		}

		// Bloqueos de stock por (ítem, sede) tomados por adelantado en orden determinista.
		itemIDs := make([]string, 0, len(items))
		for id := range items {
			itemIDs = append(itemIDs, id)
		}
		sort.Strings(itemIDs)
		for _, id := range itemIDs {
			if _, err := r.Stock.GetForUpdate(ctx, id, order.ClinicID); err != nil {
				return err
			}
		}

		ordered := make([]LineReceipt, len(receipts))
		copy(ordered, receipts)
		sort.SliceStable(ordered, func(i, j int) bool {
			return order.Line(ordered[i].LineID).ItemID < order.Line(ordered[j].LineID).ItemID
		})

		for _, rc := range ordered {
			if rc.Quantity == 0 {
				continue
			}
			line := order.Line(rc.LineID)
			item := items[line.ItemID]
			req := inventory.MovementRequest{
				Type:                entity.MovementTypeENTRY,
				ItemID:              line.ItemID,
				ClinicID:            order.ClinicID,
				Quantity:            rc.Quantity,
				UnitCost:            &line.UnitCost,
				Reason:              "recepción orden " + order.OrderNumber,
				PurchaseOrderItemID: line.ID,
				CreatedBy:           receivedBy,
			}
			if item.RequiresBatchControl {
				batch, err := w.batches.ReceiveInto(ctx, r, line.ItemID, strings.TrimSpace(rc.BatchNumber), rc.Quantity, rc.ExpirationDate, line.UnitCost, order.ID)
				if err != nil {
					return err
				}
				req.BatchID = batch.ID
			}
			movs, err := w.ledger.AppendInTx(ctx, r, req)
			if err != nil {
				return err
			}
			movements = append(movements, movs...)

			line.QuantityReceived += rc.Quantity
			if err := r.Orders.UpdateLine(ctx, line); err != nil {
				return err
			}
		}

		now := time.Now()
		order.Status = domainpurchasing.DeriveStatus(order.Status, order.Items)
		if order.Status == entity.POStatusReceived {
			order.ActualDeliveryDate = &now
		}
		order.UpdatedAt = now
		if err := r.Orders.Update(ctx, order); err != nil {
			return err
		}
		out = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	w.ledger.Notify(ctx, movements)
	log.Info().Str("order_id", out.ID).Str("status", out.Status).Int("movements", len(movements)).Msg("recepción registrada")
	return out, nil
}

// Document genera el PDF de la orden para enviarlo al proveedor.
func (w *PurchaseOrderWorkflow) Document(ctx context.Context, orderID string) ([]byte, error) {
	if w.pdf == nil {
		return nil, fmt.Errorf("generador de documentos no configurado")
	}
	order, err := w.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	supplier, err := w.suppliers.GetByID(ctx, order.SupplierID)
	if err != nil {
		return nil, err
	}
	clinic, err := w.repos.Clinics.GetByID(ctx, order.ClinicID)
	if err != nil {
		return nil, err
	}
	if supplier == nil || clinic == nil {
		return nil, domain.ErrNotFound
	}
	items := make(map[string]*entity.Item, len(order.Items))
	for _, l := range order.Items {
		item, err := w.repos.Items.GetByID(ctx, l.ItemID)
		if err != nil {
			return nil, err
		}
		if item != nil {
			items[item.ID] = item
		}
	}
	return w.pdf.GeneratePurchaseOrder(ctx, OrderDocument{Order: order, Supplier: supplier, Clinic: clinic, Items: items})
}

func lockOrder(ctx context.Context, r inventory.Repos, orderID string) (*entity.PurchaseOrder, error) {
	order, err := r.Orders.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

// newOrderNumber formato OC-AAAAMMDD-XXXXXXXX.
func newOrderNumber(now time.Time) string {
	return fmt.Sprintf("OC-%s-%s", now.Format("20060102"), strings.ToUpper(uuid.New().String()[:8]))
}
