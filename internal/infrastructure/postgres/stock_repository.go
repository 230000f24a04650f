package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/clinistock-api/internal/domain/entity"
	"github.com/jhoicas/clinistock-api/internal/domain/repository"
)

var _ repository.ClinicStockRepository = (*ClinicStockRepo)(nil)

// ClinicStockRepo implementación de ClinicStockRepository sobre PostgreSQL (usable con pool o tx).
type ClinicStockRepo struct {
	q Querier
}

// NewClinicStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewClinicStockRepository(q Querier) *ClinicStockRepo {
	return &ClinicStockRepo{q: q}
}

const stockColumns = `item_id, clinic_id, current_stock, minimum_stock, maximum_stock, reorder_point, storage_location, updated_at`

func scanStock(row pgx.Row) (*entity.ClinicStock, error) {
	var s entity.ClinicStock
	err := row.Scan(&s.ItemID, &s.ClinicID, &s.CurrentStock, &s.MinimumStock, &s.MaximumStock,
		&s.ReorderPoint, &s.StorageLocation, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Get obtiene el stock actual de un ítem en una sede; nil si no hay fila.
func (r *ClinicStockRepo) Get(ctx context.Context, itemID, clinicID string) (*entity.ClinicStock, error) {
	s, err := scanStock(r.q.QueryRow(ctx,
		`SELECT `+stockColumns+` FROM clinic_stock WHERE item_id = $1 AND clinic_id = $2`, itemID, clinicID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("get stock", err)
	}
	return s, nil
}

// GetForUpdate crea la fila en cero si falta y la bloquea (SELECT FOR UPDATE).
func (r *ClinicStockRepo) GetForUpdate(ctx context.Context, itemID, clinicID string) (*entity.ClinicStock, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO clinic_stock (item_id, clinic_id) VALUES ($1, $2)
		ON CONFLICT (item_id, clinic_id) DO NOTHING`, itemID, clinicID)
	if err != nil {
		return nil, wrapErr("ensure stock row", err)
	}
	s, err := scanStock(r.q.QueryRow(ctx,
		`SELECT `+stockColumns+` FROM clinic_stock WHERE item_id = $1 AND clinic_id = $2 FOR UPDATE`, itemID, clinicID))
	if err != nil {
		return nil, wrapErr("get stock for update", err)
	}
	return s, nil
}

// Upsert inserta o actualiza la fila del par ítem+sede.
func (r *ClinicStockRepo) Upsert(ctx context.Context, s *entity.ClinicStock) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO clinic_stock (item_id, clinic_id, current_stock, minimum_stock, maximum_stock, reorder_point,
			storage_location, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (item_id, clinic_id)
		DO UPDATE SET current_stock = EXCLUDED.current_stock, minimum_stock = EXCLUDED.minimum_stock,
			maximum_stock = EXCLUDED.maximum_stock, reorder_point = EXCLUDED.reorder_point,
			storage_location = EXCLUDED.storage_location, updated_at = EXCLUDED.updated_at`,
		s.ItemID, s.ClinicID, s.CurrentStock, s.MinimumStock, s.MaximumStock, s.ReorderPoint,
		s.StorageLocation, s.UpdatedAt)
	if err != nil {
		return wrapErr("upsert stock", err)
	}
	return nil
}

func (r *ClinicStockRepo) ListByItem(ctx context.Context, itemID string) ([]*entity.ClinicStock, error) {
	return r.list(ctx, "list stock by item",
		`SELECT `+stockColumns+` FROM clinic_stock WHERE item_id = $1 ORDER BY clinic_id`, itemID)
}

// ListLowStock filas con current_stock <= reorder_point ascendente por stock. clinicID vacío = todas.
func (r *ClinicStockRepo) ListLowStock(ctx context.Context, clinicID string) ([]*entity.ClinicStock, error) {
	return r.list(ctx, "list low stock", `
		SELECT `+stockColumns+` FROM clinic_stock
		WHERE current_stock <= reorder_point AND ($1 = '' OR clinic_id = $1)
		ORDER BY current_stock, item_id, clinic_id`, clinicID)
}

func (r *ClinicStockRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.ClinicStock, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()
	var out []*entity.ClinicStock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
