package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de la orden de compra.
const (
	POStatusDraft             = "DRAFT"
	POStatusSent              = "SENT"
	POStatusConfirmed         = "CONFIRMED"
	POStatusPartiallyReceived = "PARTIALLY_RECEIVED"
	POStatusReceived          = "RECEIVED"
	POStatusCancelled         = "CANCELLED"
)

// PurchaseOrder cabecera de una orden de compra a proveedor para una sede.
type PurchaseOrder struct {
	ID                   string
	OrderNumber          string
	SupplierID           string
	ClinicID             string
	Status               string
	OrderDate            time.Time
	ExpectedDeliveryDate *time.Time
	ActualDeliveryDate   *time.Time
	TaxRate              decimal.Decimal // fracción, ej. 0.19
	Subtotal             decimal.Decimal
	Tax                  decimal.Decimal
	Total                decimal.Decimal
	Notes                string
	CreatedBy            string
	CreatedAt            time.Time
	UpdatedAt            time.Time
	Items                []*PurchaseOrderItem
}

// PurchaseOrderItem línea de la orden. Invariante: QuantityReceived <= Quantity.
type PurchaseOrderItem struct {
	ID               string
	PurchaseOrderID  string
	ItemID           string
	Quantity         int
	QuantityReceived int
	UnitCost         decimal.Decimal
	LineTotal        decimal.Decimal
}

// Pending cantidad aún no recibida.
func (l *PurchaseOrderItem) Pending() int {
	return l.Quantity - l.QuantityReceived
}

// Line busca una línea por ID.
func (o *PurchaseOrder) Line(lineID string) *PurchaseOrderItem {
	for _, l := range o.Items {
		if l.ID == lineID {
			return l
		}
	}
	return nil
}

// IsOpen indica si la orden todavía puede recibir o cancelarse.
func (o *PurchaseOrder) IsOpen() bool {
	return o.Status != POStatusReceived && o.Status != POStatusCancelled
}
