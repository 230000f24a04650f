package purchasing

import (
	"context"

	"github.com/jhoicas/clinistock-api/internal/domain/entity"
)

// OrderDocument datos que necesita el generador para renderizar la orden enviada al proveedor.
type OrderDocument struct {
	Order    *entity.PurchaseOrder
	Supplier *entity.Supplier
	Clinic   *entity.Clinic
	Items    map[string]*entity.Item // por ItemID
}

// DocumentGenerator puerto de salida para generar el PDF de una orden de compra.
type DocumentGenerator interface {
	GeneratePurchaseOrder(ctx context.Context, doc OrderDocument) ([]byte, error)
}
