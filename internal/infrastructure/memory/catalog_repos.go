package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/clinistock-api/internal/domain"
	"github.com/jhoicas/clinistock-api/internal/domain/entity"
	"github.com/jhoicas/clinistock-api/internal/domain/repository"
)

var (
	_ repository.ItemRepository     = (*itemRepo)(nil)
	_ repository.CategoryRepository = (*categoryRepo)(nil)
	_ repository.SupplierRepository = (*supplierRepo)(nil)
	_ repository.ClinicRepository   = (*clinicRepo)(nil)
)

type itemRepo struct{ tx *tx }

func (r *itemRepo) Create(_ context.Context, item *entity.Item) error {
	for _, x := range r.tx.items.all() {
		if x.DeletedAt == nil && x.Code == item.Code {
			return domain.ErrDuplicate
		}
	}
	r.tx.items.put(item.ID, *item)
	return nil
}

func (r *itemRepo) GetByID(_ context.Context, id string) (*entity.Item, error) {
	x, ok := r.tx.items.get(id)
	if !ok {
		return nil, nil
	}
	return &x, nil
}

func (r *itemRepo) GetForUpdate(ctx context.Context, id string) (*entity.Item, error) {
	if err := r.tx.lock(ctx, "item:"+id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *itemRepo) GetActiveByCode(_ context.Context, code string) (*entity.Item, error) {
	for _, x := range r.tx.items.all() {
		if x.DeletedAt == nil && x.Code == code {
			return &x, nil
		}
	}
	return nil, nil
}

func (r *itemRepo) Update(_ context.Context, item *entity.Item) error {
	if _, ok := r.tx.items.get(item.ID); !ok {
		return domain.ErrNotFound
	}
	r.tx.items.put(item.ID, *item)
	return nil
}

func (r *itemRepo) UpdateCost(_ context.Context, itemID string, cost decimal.Decimal) error {
	x, ok := r.tx.items.get(itemID)
	if !ok {
		return domain.ErrNotFound
	}
	x.UnitCost = cost
	x.UpdatedAt = time.Now()
	r.tx.items.put(itemID, x)
	return nil
}

func (r *itemRepo) ListByCategories(_ context.Context, categoryIDs []string) ([]*entity.Item, error) {
	want := make(map[string]bool, len(categoryIDs))
	for _, id := range categoryIDs {
		want[id] = true
	}
	var out []*entity.Item
	for _, x := range r.tx.items.all() {
		if x.DeletedAt == nil && want[x.CategoryID] {
			out = append(out, &x)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type categoryRepo struct{ tx *tx }

func (r *categoryRepo) Create(_ context.Context, c *entity.Category) error {
	for _, x := range r.tx.categories.all() {
		if x.Code == c.Code {
			return domain.ErrDuplicate
		}
	}
	r.tx.categories.put(c.ID, *c)
	return nil
}

func (r *categoryRepo) GetByID(_ context.Context, id string) (*entity.Category, error) {
	x, ok := r.tx.categories.get(id)
	if !ok {
		return nil, nil
	}
	return &x, nil
}

func (r *categoryRepo) GetByCode(_ context.Context, code string) (*entity.Category, error) {
	for _, x := range r.tx.categories.all() {
		if x.Code == code {
			return &x, nil
		}
	}
	return nil, nil
}

func (r *categoryRepo) Update(_ context.Context, c *entity.Category) error {
	if _, ok := r.tx.categories.get(c.ID); !ok {
		return domain.ErrNotFound
	}
	r.tx.categories.put(c.ID, *c)
	return nil
}

func (r *categoryRepo) List(_ context.Context) ([]*entity.Category, error) {
	all := r.tx.categories.all()
	out := make([]*entity.Category, 0, len(all))
	for i := range all {
		out = append(out, &all[i])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

type supplierRepo struct{ tx *tx }

func (r *supplierRepo) Create(_ context.Context, s *entity.Supplier) error {
	for _, x := range r.tx.suppliers.all() {
		if x.DeletedAt == nil && x.Code == s.Code {
			return domain.ErrDuplicate
		}
	}
	r.tx.suppliers.put(s.ID, *s)
	return nil
}

func (r *supplierRepo) GetByID(_ context.Context, id string) (*entity.Supplier, error) {
	x, ok := r.tx.suppliers.get(id)
	if !ok {
		return nil, nil
	}
	return &x, nil
}

func (r *supplierRepo) GetActiveByCode(_ context.Context, code string) (*entity.Supplier, error) {
	for _, x := range r.tx.suppliers.all() {
		if x.DeletedAt == nil && x.Code == code {
			return &x, nil
		}
	}
	return nil, nil
}

func (r *supplierRepo) Update(_ context.Context, s *entity.Supplier) error {
	if _, ok := r.tx.suppliers.get(s.ID); !ok {
		return domain.ErrNotFound
	}
	r.tx.suppliers.put(s.ID, *s)
	return nil
}

func (r *supplierRepo) List(_ context.Context, activeOnly bool) ([]*entity.Supplier, error) {
	var out []*entity.Supplier
	for _, x := range r.tx.suppliers.all() {
		if x.DeletedAt != nil || (activeOnly && !x.Active) {
			continue
		}
		out = append(out, &x)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompanyName < out[j].CompanyName })
	return out, nil
}

type clinicRepo struct{ tx *tx }

func (r *clinicRepo) Create(_ context.Context, c *entity.Clinic) error {
	for _, x := range r.tx.clinics.all() {
		if x.Code == c.Code {
			return domain.ErrDuplicate
		}
	}
	r.tx.clinics.put(c.ID, *c)
	return nil
}

func (r *clinicRepo) GetByID(_ context.Context, id string) (*entity.Clinic, error) {
	x, ok := r.tx.clinics.get(id)
	if !ok {
		return nil, nil
	}
	return &x, nil
}

func (r *clinicRepo) GetByCode(_ context.Context, code string) (*entity.Clinic, error) {
	for _, x := range r.tx.clinics.all() {
		if x.Code == code {
			return &x, nil
		}
	}
	return nil, nil
}

func (r *clinicRepo) List(_ context.Context) ([]*entity.Clinic, error) {
	all := r.tx.clinics.all()
	out := make([]*entity.Clinic, 0, len(all))
	for i := range all {
		out = append(out, &all[i])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
