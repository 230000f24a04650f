package repository

import (
	"context"

	"github.com/jhoicas/clinistock-api/internal/domain/entity"
)

// MovementRepository define el puerto del libro de movimientos (solo inserción).
type MovementRepository interface {
	// Create persiste el movimiento y asigna Number (consecutivo monótono).
	Create(ctx context.Context, m *entity.Movement) error
	// ListByItemAndClinic en orden de Number ascendente.
	ListByItemAndClinic(ctx context.Context, itemID, clinicID string) ([]*entity.Movement, error)
	ListByCorrelation(ctx context.Context, correlationID string) ([]*entity.Movement, error)
}
