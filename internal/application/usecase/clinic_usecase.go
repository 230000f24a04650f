package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/clinistock-api/internal/application/dto"
	"github.com/jhoicas/clinistock-api/internal/domain"
	"github.com/jhoicas/clinistock-api/internal/domain/entity"
	"github.com/jhoicas/clinistock-api/internal/domain/repository"
)

// ClinicUseCase casos de uso para sedes.
type ClinicUseCase struct {
	repo repository.ClinicRepository
}

// NewClinicUseCase construye el caso de uso.
func NewClinicUseCase(repo repository.ClinicRepository) *ClinicUseCase {
	return &ClinicUseCase{repo: repo}
}

// Create crea una nueva sede. El código es único.
func (uc *ClinicUseCase) Create(ctx context.Context, in dto.CreateClinicRequest) (*dto.ClinicResponse, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	if in.Code == "" || in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	existing, err := uc.repo.GetByCode(ctx, in.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	now := time.Now()
	clinic := &entity.Clinic{
		ID:        uuid.New().String(),
		Code:      in.Code,
		Name:      in.Name,
		Address:   in.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, clinic); err != nil {
		return nil, err
	}
	return toClinicResponse(clinic), nil
}

// GetByID obtiene una sede por ID.
func (uc *ClinicUseCase) GetByID(ctx context.Context, id string) (*dto.ClinicResponse, error) {
	clinic, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if clinic == nil {
		return nil, domain.ErrNotFound
	}
	return toClinicResponse(clinic), nil
}

// List lista todas las sedes.
func (uc *ClinicUseCase) List(ctx context.Context) ([]dto.ClinicResponse, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ClinicResponse, 0, len(list))
	for _, c := range list {
		out = append(out, *toClinicResponse(c))
	}
	return out, nil
}

func toClinicResponse(c *entity.Clinic) *dto.ClinicResponse {
	return &dto.ClinicResponse{
		ID:        c.ID,
		Code:      c.Code,
		Name:      c.Name,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
	}
}
