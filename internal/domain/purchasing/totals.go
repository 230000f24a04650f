package purchasing

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/clinistock-api/internal/domain/entity"
)

// Recalculate recalcula LineTotal de cada línea y subtotal/impuesto/total de la cabecera.
func Recalculate(order *entity.PurchaseOrder) {
	subtotal := decimal.Zero
	for _, l := range order.Items {
		l.LineTotal = l.UnitCost.Mul(decimal.NewFromInt(int64(l.Quantity)))
		subtotal = subtotal.Add(l.LineTotal)
	}
	order.Subtotal = subtotal.Round(2)
	order.Tax = subtotal.Mul(order.TaxRate).Round(2)
	order.Total = order.Subtotal.Add(order.Tax)
}
