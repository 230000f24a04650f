package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del libro de stock.
const (
	MovementTypeENTRY      = "ENTRY"      // entrada (recepción de compra, alta manual de lote)
	MovementTypeEXIT       = "EXIT"       // salida (consumo clínico, facturación)
	MovementTypeADJUSTMENT = "ADJUSTMENT" // ajuste manual, positivo o negativo
	MovementTypeTRANSFER   = "TRANSFER"   // traslado entre sedes (par OUT + IN)
)

// Dirección del movimiento: define el signo de Quantity.
const (
	DirectionIN  = "IN"
	DirectionOUT = "OUT"
)

// ValidMovementType indica si t es uno de los cuatro tipos admitidos.
func ValidMovementType(t string) bool {
	switch t {
	case MovementTypeENTRY, MovementTypeEXIT, MovementTypeADJUSTMENT, MovementTypeTRANSFER:
		return true
	}
	return false
}

// Movement es una entrada inmutable del libro de stock. Quantity siempre es positiva;
// el signo lo da Direction. Las correcciones se hacen con un ADJUSTMENT compensatorio.
type Movement struct {
	ID                   string
	Number               int64  // consecutivo monótono
	CorrelationID        string // compartido por todas las filas de un mismo Append
	Type                 string
	Direction            string
	Quantity             int
	UnitCost             decimal.Decimal
	TotalCost            decimal.Decimal
	MovementDate         time.Time
	Reason               string
	Notes                string
	ItemID               string
	ClinicID             string
	BatchID              string
	InvoiceItemReference string
	TreatmentReference   string
	PurchaseOrderItemID  string
	CreatedBy            string
	CreatedAt            time.Time
}

// SignedQuantity devuelve la cantidad con signo según la dirección.
func (m *Movement) SignedQuantity() int {
	if m.Direction == DirectionOUT {
		return -m.Quantity
	}
	return m.Quantity
}
