package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/clinistock-api/internal/domain/entity"
	"github.com/jhoicas/clinistock-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo persiste el libro de movimientos (solo INSERT; las filas son inmutables).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, number, correlation_id, type, direction, quantity, unit_cost, total_cost, movement_date,
	reason, notes, item_id, clinic_id, COALESCE(batch_id, ''), invoice_item_reference, treatment_reference,
	COALESCE(purchase_order_item_id, ''), created_by, created_at`

// Create inserta el movimiento; number lo asigna la secuencia BIGSERIAL.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO stock_movements (id, correlation_id, type, direction, quantity, unit_cost, total_cost,
			movement_date, reason, notes, item_id, clinic_id, batch_id, invoice_item_reference, treatment_reference,
			purchase_order_item_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING number`,
		m.ID, m.CorrelationID, m.Type, m.Direction, m.Quantity, m.UnitCost, m.TotalCost,
		m.MovementDate, m.Reason, m.Notes, m.ItemID, m.ClinicID, nullIfEmpty(m.BatchID), m.InvoiceItemReference,
		m.TreatmentReference, nullIfEmpty(m.PurchaseOrderItemID), m.CreatedBy, m.CreatedAt,
	).Scan(&m.Number)
	if err != nil {
		return wrapErr("insert movement", err)
	}
	return nil
}

func (r *MovementRepo) ListByItemAndClinic(ctx context.Context, itemID, clinicID string) ([]*entity.Movement, error) {
	return r.list(ctx, `SELECT `+movementColumns+` FROM stock_movements
		WHERE item_id = $1 AND clinic_id = $2 ORDER BY number`, itemID, clinicID)
}

func (r *MovementRepo) ListByCorrelation(ctx context.Context, correlationID string) ([]*entity.Movement, error) {
	return r.list(ctx, `SELECT `+movementColumns+` FROM stock_movements
		WHERE correlation_id = $1 ORDER BY number`, correlationID)
}

func (r *MovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Movement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list movements", err)
	}
	defer rows.Close()
	var out []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	err := row.Scan(&m.ID, &m.Number, &m.CorrelationID, &m.Type, &m.Direction, &m.Quantity, &m.UnitCost,
		&m.TotalCost, &m.MovementDate, &m.Reason, &m.Notes, &m.ItemID, &m.ClinicID, &m.BatchID,
		&m.InvoiceItemReference, &m.TreatmentReference, &m.PurchaseOrderItemID, &m.CreatedBy, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
