package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/clinistock-api/internal/domain"
	"github.com/jhoicas/clinistock-api/internal/domain/entity"
	"github.com/jhoicas/clinistock-api/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo implementación de PurchaseOrderRepository sobre PostgreSQL.
type PurchaseOrderRepo struct {
	q Querier
}

// NewPurchaseOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

const orderColumns = `id, order_number, supplier_id, clinic_id, status, order_date, expected_delivery_date,
	actual_delivery_date, tax_rate, subtotal, tax, total, notes, created_by, created_at, updated_at`

func scanOrder(row pgx.Row) (*entity.PurchaseOrder, error) {
	var o entity.PurchaseOrder
	err := row.Scan(&o.ID, &o.OrderNumber, &o.SupplierID, &o.ClinicID, &o.Status, &o.OrderDate,
		&o.ExpectedDeliveryDate, &o.ActualDeliveryDate, &o.TaxRate, &o.Subtotal, &o.Tax, &o.Total,
		&o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create inserta cabecera y líneas. Debe ejecutarse dentro de una tx para que sea atómico.
func (r *PurchaseOrderRepo) Create(ctx context.Context, o *entity.PurchaseOrder) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO purchase_orders (id, order_number, supplier_id, clinic_id, status, order_date,
			expected_delivery_date, actual_delivery_date, tax_rate, subtotal, tax, total, notes, created_by,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		o.ID, o.OrderNumber, o.SupplierID, o.ClinicID, o.Status, o.OrderDate, o.ExpectedDeliveryDate,
		o.ActualDeliveryDate, o.TaxRate, o.Subtotal, o.Tax, o.Total, o.Notes, o.CreatedBy, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return wrapErr("insert purchase order", err)
	}
	for _, l := range o.Items {
		l.PurchaseOrderID = o.ID
		if err := r.AddLine(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

func (r *PurchaseOrderRepo) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM purchase_orders WHERE id = $1`, id)
}

// GetForUpdate bloquea la cabecera; las líneas quedan protegidas por ese bloqueo.
func (r *PurchaseOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM purchase_orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *PurchaseOrderRepo) get(ctx context.Context, query, id string) (*entity.PurchaseOrder, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("get purchase order", err)
	}
	lines, err := r.lines(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = lines
	return o, nil
}

func (r *PurchaseOrderRepo) lines(ctx context.Context, orderID string) ([]*entity.PurchaseOrderItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, purchase_order_id, item_id, quantity, quantity_received, unit_cost, line_total
		FROM purchase_order_items WHERE purchase_order_id = $1 ORDER BY seq`, orderID)
	if err != nil {
		return nil, wrapErr("list purchase order lines", err)
	}
	defer rows.Close()
	var out []*entity.PurchaseOrderItem
	for rows.Next() {
		var l entity.PurchaseOrderItem
		if err := rows.Scan(&l.ID, &l.PurchaseOrderID, &l.ItemID, &l.Quantity, &l.QuantityReceived,
			&l.UnitCost, &l.LineTotal); err != nil {
			return nil, fmt.Errorf("scan purchase order line: %w", err)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

func (r *PurchaseOrderRepo) Update(ctx context.Context, o *entity.PurchaseOrder) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE purchase_orders SET status = $2, expected_delivery_date = $3, actual_delivery_date = $4,
			tax_rate = $5, subtotal = $6, tax = $7, total = $8, notes = $9, updated_at = $10
		WHERE id = $1`,
		o.ID, o.Status, o.ExpectedDeliveryDate, o.ActualDeliveryDate, o.TaxRate, o.Subtotal, o.Tax, o.Total,
		o.Notes, o.UpdatedAt)
	if err != nil {
		return wrapErr("update purchase order", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PurchaseOrderRepo) AddLine(ctx context.Context, l *entity.PurchaseOrderItem) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO purchase_order_items (id, purchase_order_id, item_id, quantity, quantity_received, unit_cost, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		l.ID, l.PurchaseOrderID, l.ItemID, l.Quantity, l.QuantityReceived, l.UnitCost, l.LineTotal)
	if err != nil {
		return wrapErr("insert purchase order line", err)
	}
	return nil
}

func (r *PurchaseOrderRepo) UpdateLine(ctx context.Context, l *entity.PurchaseOrderItem) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE purchase_order_items SET quantity = $2, quantity_received = $3, unit_cost = $4, line_total = $5
		WHERE id = $1`,
		l.ID, l.Quantity, l.QuantityReceived, l.UnitCost, l.LineTotal)
	if err != nil {
		return wrapErr("update purchase order line", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List devuelve órdenes con sus líneas ordenadas por fecha de creación descendente.
func (r *PurchaseOrderRepo) List(ctx context.Context, f repository.PurchaseOrderFilter) ([]*entity.PurchaseOrder, error) {
	var (
		where []string
		args  []any
	)
	add := func(col, val string) {
		if val == "" {
			return
		}
		args = append(args, val)
		where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("status", f.Status)
	add("supplier_id", f.SupplierID)
	add("clinic_id", f.ClinicID)

	query := `SELECT ` + orderColumns + ` FROM purchase_orders`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY order_date DESC, id"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list purchase orders", err)
	}
	defer rows.Close()
	var out []*entity.PurchaseOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list purchase orders", err)
	}
	rows.Close()
	for _, o := range out {
		if o.Items, err = r.lines(ctx, o.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *PurchaseOrderRepo) HasOpenLinesForItem(ctx context.Context, itemID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM purchase_order_items l
			JOIN purchase_orders o ON o.id = l.purchase_order_id
			WHERE l.item_id = $1 AND o.status NOT IN ('RECEIVED', 'CANCELLED')
				AND l.quantity_received < l.quantity
		)`, itemID).Scan(&exists)
	if err != nil {
		return false, wrapErr("check open purchase order lines", err)
	}
	return exists, nil
}
