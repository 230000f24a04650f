package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/clinistock-api/internal/domain"
	"github.com/jhoicas/clinistock-api/internal/domain/entity"
	"github.com/jhoicas/clinistock-api/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*orderRepo)(nil)

type orderRepo struct{ tx *tx }

func (r *orderRepo) Create(_ context.Context, o *entity.PurchaseOrder) error {
	for _, x := range r.tx.orders.all() {
		if x.OrderNumber == o.OrderNumber {
			return domain.ErrDuplicate
		}
	}
	header := *o
	header.Items = nil
	r.tx.orders.put(o.ID, header)
	for _, l := range o.Items {
		r.putLine(l)
	}
	return nil
}

func (r *orderRepo) putLine(l *entity.PurchaseOrderItem) {
	row, ok := r.tx.lines.get(l.ID)
	if !ok {
		row.seq = r.tx.store.seq.Add(1)
	}
	row.line = *l
	r.tx.lines.put(l.ID, row)
}

func (r *orderRepo) GetByID(_ context.Context, id string) (*entity.PurchaseOrder, error) {
	x, ok := r.tx.orders.get(id)
	if !ok {
		return nil, nil
	}
	x.Items = r.linesOf(id)
	return &x, nil
}

func (r *orderRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	if err := r.tx.lock(ctx, "po:"+id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *orderRepo) linesOf(orderID string) []*entity.PurchaseOrderItem {
	var rows []lineRow
	for _, row := range r.tx.lines.all() {
		if row.line.PurchaseOrderID == orderID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	out := make([]*entity.PurchaseOrderItem, 0, len(rows))
	for i := range rows {
		out = append(out, &rows[i].line)
	}
	return out
}

func (r *orderRepo) Update(_ context.Context, o *entity.PurchaseOrder) error {
	if _, ok := r.tx.orders.get(o.ID); !ok {
		return domain.ErrNotFound
	}
	header := *o
	header.Items = nil
	r.tx.orders.put(o.ID, header)
	return nil
}

func (r *orderRepo) AddLine(_ context.Context, l *entity.PurchaseOrderItem) error {
	if _, ok := r.tx.orders.get(l.PurchaseOrderID); !ok {
		return domain.ErrNotFound
	}
	r.putLine(l)
	return nil
}

func (r *orderRepo) UpdateLine(_ context.Context, l *entity.PurchaseOrderItem) error {
	if _, ok := r.tx.lines.get(l.ID); !ok {
		return domain.ErrNotFound
	}
	r.putLine(l)
	return nil
}

func (r *orderRepo) List(_ context.Context, f repository.PurchaseOrderFilter) ([]*entity.PurchaseOrder, error) {
	var out []*entity.PurchaseOrder
	for _, x := range r.tx.orders.all() {
		if f.Status != "" && x.Status != f.Status {
			continue
		}
		if f.SupplierID != "" && x.SupplierID != f.SupplierID {
			continue
		}
		if f.ClinicID != "" && x.ClinicID != f.ClinicID {
			continue
		}
		x.Items = r.linesOf(x.ID)
		out = append(out, &x)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderDate.After(out[j].OrderDate) })
	if f.Offset >= len(out) {
		return []*entity.PurchaseOrder{}, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *orderRepo) HasOpenLinesForItem(_ context.Context, itemID string) (bool, error) {
	for _, row := range r.tx.lines.all() {
		if row.line.ItemID != itemID || row.line.Pending() <= 0 {
			continue
		}
		o, ok := r.tx.orders.get(row.line.PurchaseOrderID)
		if ok && o.IsOpen() {
			return true, nil
		}
	}
	return false, nil
}
