package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/clinistock-api/internal/domain/entity"
)

// ItemRepository define el puerto de persistencia para Item (DIP).
// GetByID devuelve también ítems dados de baja; el caso de uso decide qué hacer con ellos.
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	// GetForUpdate bloquea la fila del ítem (costo promedio).
	GetForUpdate(ctx context.Context, id string) (*entity.Item, error)
	// GetActiveByCode busca entre ítems no eliminados.
	GetActiveByCode(ctx context.Context, code string) (*entity.Item, error)
	Update(ctx context.Context, item *entity.Item) error
	UpdateCost(ctx context.Context, itemID string, cost decimal.Decimal) error
	ListByCategories(ctx context.Context, categoryIDs []string) ([]*entity.Item, error)
}
