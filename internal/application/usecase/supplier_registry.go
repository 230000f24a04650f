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

// SupplierRegistry datos de referencia de proveedores. Un proveedor nunca se elimina:
// Deactivate solo apaga el flag Active para que las órdenes históricas sigan resolviendo.
type SupplierRegistry struct {
	repo repository.SupplierRepository
}

// NewSupplierRegistry construye el registro de proveedores.
func NewSupplierRegistry(repo repository.SupplierRepository) *SupplierRegistry {
	return &SupplierRegistry{repo: repo}
}

// Create registra un proveedor activo. Código único entre proveedores no eliminados.
func (uc *SupplierRegistry) Create(ctx context.Context, in dto.CreateSupplierRequest) (*dto.SupplierResponse, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	if in.Code == "" || in.CompanyName == "" {
		return nil, domain.ErrInvalidInput
	}
	existing, err := uc.repo.GetActiveByCode(ctx, in.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	now := time.Now()
	s := &entity.Supplier{
		ID:           uuid.New().String(),
		Code:         in.Code,
		CompanyName:  in.CompanyName,
		ContactName:  in.ContactName,
		Email:        in.Email,
		Phone:        in.Phone,
		Address:      in.Address,
		TaxID:        in.TaxID,
		PaymentTerms: in.PaymentTerms,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.repo.Create(ctx, s); err != nil {
		return nil, err
	}
	return toSupplierResponse(s), nil
}

// Get obtiene un proveedor (activo o no).
func (uc *SupplierRegistry) Get(ctx context.Context, id string) (*dto.SupplierResponse, error) {
	s, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSupplierResponse(s), nil
}

// List lista proveedores; activeOnly filtra los desactivados.
func (uc *SupplierRegistry) List(ctx context.Context, activeOnly bool) ([]dto.SupplierResponse, error) {
	list, err := uc.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SupplierResponse, 0, len(list))
	for _, s := range list {
		out = append(out, *toSupplierResponse(s))
	}
	return out, nil
}

// Update aplica los campos presentes en el comando.
func (uc *SupplierRegistry) Update(ctx context.Context, id string, in dto.UpdateSupplierRequest) (*dto.SupplierResponse, error) {
	s, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.CompanyName != nil {
		if strings.TrimSpace(*in.CompanyName) == "" {
			return nil, domain.ErrInvalidInput
		}
		s.CompanyName = strings.TrimSpace(*in.CompanyName)
	}
	if in.ContactName != nil {
		s.ContactName = *in.ContactName
	}
	if in.Email != nil {
		s.Email = *in.Email
	}
	if in.Phone != nil {
		s.Phone = *in.Phone
	}
	if in.Address != nil {
		s.Address = *in.Address
	}
	if in.TaxID != nil {
		s.TaxID = *in.TaxID
	}
	if in.PaymentTerms != nil {
		s.PaymentTerms = *in.PaymentTerms
	}
	s.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, s); err != nil {
		return nil, err
	}
	return toSupplierResponse(s), nil
}

// Deactivate marca el proveedor como inactivo; deja de aceptarse en órdenes nuevas.
func (uc *SupplierRegistry) Deactivate(ctx context.Context, id string) error {
	s, err := uc.get(ctx, id)
	if err != nil {
		return err
	}
	if !s.Active {
		return nil
	}
	s.Active = false
	s.UpdatedAt = time.Now()
	return uc.repo.Update(ctx, s)
}

func (uc *SupplierRegistry) get(ctx context.Context, id string) (*entity.Supplier, error) {
	s, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil || s.DeletedAt != nil {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func toSupplierResponse(s *entity.Supplier) *dto.SupplierResponse {
	return &dto.SupplierResponse{
		ID:           s.ID,
		Code:         s.Code,
		CompanyName:  s.CompanyName,
		ContactName:  s.ContactName,
		Email:        s.Email,
		Phone:        s.Phone,
		Address:      s.Address,
		TaxID:        s.TaxID,
		PaymentTerms: s.PaymentTerms,
		Active:       s.Active,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}
