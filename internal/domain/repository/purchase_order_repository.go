package repository

import (
	"context"

	"github.com/jhoicas/clinistock-api/internal/domain/entity"
)

// PurchaseOrderFilter filtros opcionales para el listado de órdenes.
type PurchaseOrderFilter struct {
	Status     string
	SupplierID string
	ClinicID   string
	Limit      int
	Offset     int
}

// PurchaseOrderRepository define el puerto de persistencia de órdenes de compra y sus líneas.
// GetByID y GetForUpdate cargan las líneas en Items.
type PurchaseOrderRepository interface {
	Create(ctx context.Context, order *entity.PurchaseOrder) error
	GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	// Update persiste la cabecera (estado, totales, fechas).
	Update(ctx context.Context, order *entity.PurchaseOrder) error
	AddLine(ctx context.Context, line *entity.PurchaseOrderItem) error
	UpdateLine(ctx context.Context, line *entity.PurchaseOrderItem) error
	List(ctx context.Context, filter PurchaseOrderFilter) ([]*entity.PurchaseOrder, error)
	// HasOpenLinesForItem indica si alguna orden abierta tiene una línea pendiente del ítem.
	HasOpenLinesForItem(ctx context.Context, itemID string) (bool, error)
}
