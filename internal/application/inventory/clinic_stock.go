package inventory

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jhoicas/clinistock-api/internal/domain"
	"github.com/jhoicas/clinistock-api/internal/domain/entity"
	"github.com/jhoicas/clinistock-api/internal/domain/repository"
)

// ClinicStockProjection mantiene el stock materializado por ítem+sede.
// Solo el libro de stock modifica CurrentStock (ApplyDelta dentro de su transacción).
type ClinicStockProjection struct {
	txRunner TxRunner
	repos    Repos
}

// NewClinicStockProjection construye la proyección.
func NewClinicStockProjection(txRunner TxRunner, repos Repos) *ClinicStockProjection {
	return &ClinicStockProjection{txRunner: txRunner, repos: repos}
}

// ThresholdsCommand umbrales opcionales a modificar.
type ThresholdsCommand struct {
	MinimumStock    *int
	MaximumStock    *int
	ReorderPoint    *int
	StorageLocation *string
}

// GetStock devuelve el stock del par; la primera consulta crea la fila en cero.
func (p *ClinicStockProjection) GetStock(ctx context.Context, itemID, clinicID string) (*entity.ClinicStock, error) {
	if err := p.ensurePair(ctx, p.repos, itemID, clinicID); err != nil {
		return nil, err
	}
	s, err := p.repos.Stock.Get(ctx, itemID, clinicID)
	if err != nil {
		return nil, err
	}
	if s != nil {
		return s, nil
	}
	s = &entity.ClinicStock{ItemID: itemID, ClinicID: clinicID, UpdatedAt: time.Now()}
	if err := p.repos.Stock.Upsert(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// IsLowStock indica si el par alcanzó su punto de reorden (CurrentStock <= ReorderPoint).
func (p *ClinicStockProjection) IsLowStock(ctx context.Context, itemID, clinicID string) (bool, error) {
	s, err := p.GetStock(ctx, itemID, clinicID)
	if err != nil {
		return false, err
	}
	return s.IsLowStock(), nil
}

// ListLowStock filas en o bajo el punto de reorden, de menor a mayor stock. clinicID vacío = todas las sedes.
func (p *ClinicStockProjection) ListLowStock(ctx context.Context, clinicID string) ([]*entity.ClinicStock, error) {
	if clinicID != "" {
		c, err := p.repos.Clinics.GetByID(ctx, clinicID)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, domain.ErrNotFound
		}
	}
	return p.repos.Stock.ListLowStock(ctx, clinicID)
}

// ItemTotal stock total del ítem sumando todas las sedes (derivado, no se almacena).
func (p *ClinicStockProjection) ItemTotal(ctx context.Context, itemID string) (int, error) {
	rows, err := p.repos.Stock.ListByItem(ctx, itemID)
	if err != nil {
		return 0, err
	}
	return sumStock(rows), nil
}

// SetThresholds actualiza mínimo, máximo, punto de reorden y ubicación. No toca CurrentStock.
func (p *ClinicStockProjection) SetThresholds(ctx context.Context, itemID, clinicID string, cmd ThresholdsCommand) (*entity.ClinicStock, error) {
	var out *entity.ClinicStock
	err := p.txRunner.Run(ctx, func(r Repos) error {
		if err := p.ensurePair(ctx, r, itemID, clinicID); err != nil {
			return err
		}
		s, err := r.Stock.GetForUpdate(ctx, itemID, clinicID)
		if err != nil {
			return err
		}
		if cmd.MinimumStock != nil {
			s.MinimumStock = *cmd.MinimumStock
		}
		if cmd.MaximumStock != nil {
			s.MaximumStock = *cmd.MaximumStock
		}
		if cmd.ReorderPoint != nil {
			s.ReorderPoint = *cmd.ReorderPoint
		}
		if cmd.StorageLocation != nil {
			s.StorageLocation = *cmd.StorageLocation
		}
		if s.MinimumStock < 0 || s.MaximumStock < 0 || s.ReorderPoint < 0 {
			return domain.ErrInvalidInput
		}
		if s.MaximumStock > 0 && s.MinimumStock > s.MaximumStock {
			return domain.ErrInvalidInput
		}
		s.UpdatedAt = time.Now()
		if err := r.Stock.Upsert(ctx, s); err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyDelta suma signedDelta al stock del par dentro de la transacción del libro (r atado a la tx).
// Un resultado negativo se recorta a 0 y se registra como advertencia; el libro valida antes de llegar aquí.
func (p *ClinicStockProjection) ApplyDelta(ctx context.Context, r Repos, itemID, clinicID string, signedDelta int) (*entity.ClinicStock, error) {
	s, err := r.Stock.GetForUpdate(ctx, itemID, clinicID)
	if err != nil {
		return nil, err
	}
	return s, applyDelta(ctx, r.Stock, s, signedDelta)
}

// applyDelta opera sobre una fila ya bloqueada.
func applyDelta(ctx context.Context, repo repository.ClinicStockRepository, s *entity.ClinicStock, signedDelta int) error {
	next := s.CurrentStock + signedDelta
	if next < 0 {
		log.Warn().
			Str("item_id", s.ItemID).
			Str("clinic_id", s.ClinicID).
			Int("current_stock", s.CurrentStock).
			Int("delta", signedDelta).
			Msg("stock negativo evitado, se recorta a 0")
		next = 0
	}
	s.CurrentStock = next
	s.UpdatedAt = time.Now()
	return repo.Upsert(ctx, s)
}

// ensurePair valida que el ítem (no eliminado) y la sede existan.
func (p *ClinicStockProjection) ensurePair(ctx context.Context, r Repos, itemID, clinicID string) error {
	if itemID == "" || clinicID == "" {
		return domain.ErrInvalidInput
	}
	item, err := r.Items.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item == nil || item.IsDeleted() {
		return domain.ErrNotFound
	}
	clinic, err := r.Clinics.GetByID(ctx, clinicID)
	if err != nil {
		return err
	}
	if clinic == nil {
		return domain.ErrNotFound
	}
	return nil
}

func sumStock(rows []*entity.ClinicStock) int {
	total := 0
	for _, s := range rows {
		total += s.CurrentStock
	}
	return total
}
