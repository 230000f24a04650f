package repository

import (
	"context"
	"time"

	"github.com/jhoicas/clinistock-api/internal/domain/entity"
)

// BatchRepository define el puerto de persistencia para lotes.
// Los métodos ForUpdate bloquean las filas hasta el fin de la transacción.
type BatchRepository interface {
	Create(ctx context.Context, batch *entity.Batch) error
	GetByID(ctx context.Context, id string) (*entity.Batch, error)
	GetByItemAndNumber(ctx context.Context, itemID, batchNumber string) (*entity.Batch, error)
	ListByItem(ctx context.Context, itemID string) ([]*entity.Batch, error)
	// ListByItemForUpdate bloquea el conjunto de lotes del ítem.
	ListByItemForUpdate(ctx context.Context, itemID string) ([]*entity.Batch, error)
	// ListExpirable lotes no marcados, con stock y vencimiento anterior a asOf (bloqueados).
	ListExpirable(ctx context.Context, asOf time.Time) ([]*entity.Batch, error)
	Update(ctx context.Context, batch *entity.Batch) error
}
