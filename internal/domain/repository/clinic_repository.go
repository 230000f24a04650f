package repository

import (
	"context"

	"github.com/jhoicas/clinistock-api/internal/domain/entity"
)

// ClinicRepository define el puerto de persistencia para Clinic (DIP).
type ClinicRepository interface {
	Create(ctx context.Context, clinic *entity.Clinic) error
	GetByID(ctx context.Context, id string) (*entity.Clinic, error)
	GetByCode(ctx context.Context, code string) (*entity.Clinic, error)
	List(ctx context.Context) ([]*entity.Clinic, error)
}
