package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/clinistock-api/internal/domain"
	"github.com/jhoicas/clinistock-api/internal/domain/entity"
	"github.com/jhoicas/clinistock-api/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

// BatchRepo implementación de BatchRepository sobre PostgreSQL.
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

const batchColumns = `id, item_id, batch_number, expiration_date, initial_stock, current_stock, purchase_cost,
	is_expired, COALESCE(purchase_order_id, ''), created_at, updated_at`

func scanBatch(row pgx.Row) (*entity.Batch, error) {
	var b entity.Batch
	err := row.Scan(&b.ID, &b.ItemID, &b.BatchNumber, &b.ExpirationDate, &b.InitialStock, &b.CurrentStock,
		&b.PurchaseCost, &b.IsExpired, &b.PurchaseOrderID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BatchRepo) Create(ctx context.Context, b *entity.Batch) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO batches (id, item_id, batch_number, expiration_date, initial_stock, current_stock, purchase_cost,
			is_expired, purchase_order_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		b.ID, b.ItemID, b.BatchNumber, b.ExpirationDate, b.InitialStock, b.CurrentStock, b.PurchaseCost,
		b.IsExpired, nullIfEmpty(b.PurchaseOrderID), b.CreatedAt, b.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateBatch
		}
		return wrapErr("insert batch", err)
	}
	return nil
}

func (r *BatchRepo) GetByID(ctx context.Context, id string) (*entity.Batch, error) {
	b, err := scanBatch(r.q.QueryRow(ctx, `SELECT `+batchColumns+` FROM batches WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("get batch", err)
	}
	return b, nil
}

func (r *BatchRepo) GetByItemAndNumber(ctx context.Context, itemID, batchNumber string) (*entity.Batch, error) {
	b, err := scanBatch(r.q.QueryRow(ctx,
		`SELECT `+batchColumns+` FROM batches WHERE item_id = $1 AND batch_number = $2`, itemID, batchNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("get batch by number", err)
	}
	return b, nil
}

func (r *BatchRepo) ListByItem(ctx context.Context, itemID string) ([]*entity.Batch, error) {
	return r.list(ctx, "list batches",
		`SELECT `+batchColumns+` FROM batches WHERE item_id = $1 ORDER BY created_at, id`, itemID)
}

// ListByItemForUpdate bloquea todos los lotes del ítem (SELECT FOR UPDATE).
func (r *BatchRepo) ListByItemForUpdate(ctx context.Context, itemID string) ([]*entity.Batch, error) {
	return r.list(ctx, "list batches for update",
		`SELECT `+batchColumns+` FROM batches WHERE item_id = $1 ORDER BY created_at, id FOR UPDATE`, itemID)
}

// ListExpirable bloquea los lotes a marcar; SKIP LOCKED evita esperar a consumos en curso
// (esos lotes se marcan en el siguiente barrido).
func (r *BatchRepo) ListExpirable(ctx context.Context, asOf time.Time) ([]*entity.Batch, error) {
	return r.list(ctx, "list expirable batches", `
		SELECT `+batchColumns+` FROM batches
		WHERE NOT is_expired AND current_stock > 0 AND expiration_date < $1
		ORDER BY expiration_date
		FOR UPDATE SKIP LOCKED`, asOf)
}

func (r *BatchRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.Batch, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()
	var out []*entity.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return out, nil
}

func (r *BatchRepo) Update(ctx context.Context, b *entity.Batch) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE batches SET initial_stock = $2, current_stock = $3, is_expired = $4, updated_at = $5
		WHERE id = $1`,
		b.ID, b.InitialStock, b.CurrentStock, b.IsExpired, b.UpdatedAt)
	if err != nil {
		return wrapErr("update batch", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
