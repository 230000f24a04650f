package repository

import (
	"context"

	"github.com/jhoicas/clinistock-api/internal/domain/entity"
)

// ClinicStockRepository define el puerto para consultar/actualizar stock por ítem+sede.
// Usado dentro de transacciones para garantizar consistencia.
type ClinicStockRepository interface {
	// Get devuelve nil, nil si el par aún no tiene fila.
	Get(ctx context.Context, itemID, clinicID string) (*entity.ClinicStock, error)
	// GetForUpdate crea la fila en cero si no existe y la bloquea (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, itemID, clinicID string) (*entity.ClinicStock, error)
	Upsert(ctx context.Context, stock *entity.ClinicStock) error
	ListByItem(ctx context.Context, itemID string) ([]*entity.ClinicStock, error)
	// ListLowStock filas con current_stock <= reorder_point, ascendente por stock. clinicID vacío = todas.
	ListLowStock(ctx context.Context, clinicID string) ([]*entity.ClinicStock, error)
}
