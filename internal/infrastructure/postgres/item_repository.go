package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/clinistock-api/internal/domain"
	"github.com/jhoicas/clinistock-api/internal/domain/entity"
	"github.com/jhoicas/clinistock-api/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

// ItemRepo implementación del puerto ItemRepository sobre PostgreSQL (usable con pool o tx).
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador de persistencia para ítems. Pasar pool o tx (Querier).
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

const itemColumns = `id, code, name, description, unit_measure, unit_cost, sale_price, COALESCE(category_id, ''),
	requires_batch_control, auto_reorder, requires_prescription, created_at, updated_at, deleted_at`

func scanItem(row pgx.Row) (*entity.Item, error) {
	var i entity.Item
	err := row.Scan(
		&i.ID, &i.Code, &i.Name, &i.Description, &i.UnitMeasure, &i.UnitCost, &i.SalePrice, &i.CategoryID,
		&i.RequiresBatchControl, &i.AutoReorder, &i.RequiresPrescription, &i.CreatedAt, &i.UpdatedAt, &i.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// Create persiste un nuevo ítem.
func (r *ItemRepo) Create(ctx context.Context, i *entity.Item) error {
	query := `
		INSERT INTO items (id, code, name, description, unit_measure, unit_cost, sale_price, category_id,
			requires_batch_control, auto_reorder, requires_prescription, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		i.ID, i.Code, i.Name, i.Description, i.UnitMeasure, i.UnitCost, i.SalePrice, nullIfEmpty(i.CategoryID),
		i.RequiresBatchControl, i.AutoReorder, i.RequiresPrescription, i.CreatedAt, i.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return wrapErr("insert item", err)
	}
	return nil
}

// GetByID obtiene un ítem por ID (incluye dados de baja).
func (r *ItemRepo) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	return r.getOne(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, "get item", id)
}

// GetForUpdate obtiene el ítem y bloquea la fila (costo promedio).
func (r *ItemRepo) GetForUpdate(ctx context.Context, id string) (*entity.Item, error) {
	return r.getOne(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1 FOR UPDATE`, "get item for update", id)
}

// GetActiveByCode busca por código entre ítems no eliminados.
func (r *ItemRepo) GetActiveByCode(ctx context.Context, code string) (*entity.Item, error) {
	return r.getOne(ctx, `SELECT `+itemColumns+` FROM items WHERE code = $1 AND deleted_at IS NULL`, "get item by code", code)
}

func (r *ItemRepo) getOne(ctx context.Context, query, op string, args ...any) (*entity.Item, error) {
	i, err := scanItem(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr(op, err)
	}
	return i, nil
}

// Update persiste los campos editables y el tombstone. El costo se cambia con UpdateCost.
func (r *ItemRepo) Update(ctx context.Context, i *entity.Item) error {
	query := `
		UPDATE items SET name = $2, description = $3, unit_measure = $4, sale_price = $5, category_id = $6,
			requires_batch_control = $7, auto_reorder = $8, requires_prescription = $9, updated_at = $10, deleted_at = $11
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		i.ID, i.Name, i.Description, i.UnitMeasure, i.SalePrice, nullIfEmpty(i.CategoryID),
		i.RequiresBatchControl, i.AutoReorder, i.RequiresPrescription, i.UpdatedAt, i.DeletedAt,
	)
	if err != nil {
		return wrapErr("update item", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateCost actualiza el costo promedio ponderado.
func (r *ItemRepo) UpdateCost(ctx context.Context, itemID string, cost decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `UPDATE items SET unit_cost = $2, updated_at = now() WHERE id = $1`, itemID, cost)
	if err != nil {
		return wrapErr("update item cost", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByCategories ítems no eliminados de cualquiera de las categorías.
func (r *ItemRepo) ListByCategories(ctx context.Context, categoryIDs []string) ([]*entity.Item, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+itemColumns+` FROM items WHERE category_id = ANY($1) AND deleted_at IS NULL ORDER BY code`,
		categoryIDs)
	if err != nil {
		return nil, wrapErr("list items", err)
	}
	defer rows.Close()
	var out []*entity.Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}
