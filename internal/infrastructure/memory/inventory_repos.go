package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/clinistock-api/internal/domain"
	"github.com/jhoicas/clinistock-api/internal/domain/entity"
	"github.com/jhoicas/clinistock-api/internal/domain/repository"
)

var (
	_ repository.BatchRepository       = (*batchRepo)(nil)
	_ repository.ClinicStockRepository = (*stockRepo)(nil)
	_ repository.MovementRepository    = (*movementRepo)(nil)
)

type batchRepo struct{ tx *tx }

func (r *batchRepo) Create(_ context.Context, b *entity.Batch) error {
	for _, x := range r.tx.batches.all() {
		if x.ItemID == b.ItemID && x.BatchNumber == b.BatchNumber {
			return domain.ErrDuplicateBatch
		}
	}
	r.tx.batches.put(b.ID, *b)
	return nil
}

func (r *batchRepo) GetByID(_ context.Context, id string) (*entity.Batch, error) {
	x, ok := r.tx.batches.get(id)
	if !ok {
		return nil, nil
	}
	return &x, nil
}

func (r *batchRepo) GetByItemAndNumber(_ context.Context, itemID, batchNumber string) (*entity.Batch, error) {
	for _, x := range r.tx.batches.all() {
		if x.ItemID == itemID && x.BatchNumber == batchNumber {
			return &x, nil
		}
	}
	return nil, nil
}

func (r *batchRepo) ListByItem(_ context.Context, itemID string) ([]*entity.Batch, error) {
	var out []*entity.Batch
	for _, x := range r.tx.batches.all() {
		if x.ItemID == itemID {
			out = append(out, &x)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *batchRepo) ListByItemForUpdate(ctx context.Context, itemID string) ([]*entity.Batch, error) {
	if err := r.tx.lock(ctx, "batches:"+itemID); err != nil {
		return nil, err
	}
	return r.ListByItem(ctx, itemID)
}

func (r *batchRepo) ListExpirable(ctx context.Context, asOf time.Time) ([]*entity.Batch, error) {
	var keys []string
	seen := make(map[string]bool)
	for _, x := range r.tx.batches.all() {
		if isExpirable(x, asOf) && !seen[x.ItemID] {
			seen[x.ItemID] = true
			keys = append(keys, "batches:"+x.ItemID)
		}
	}
	if err := r.tx.lockSorted(ctx, keys); err != nil {
		return nil, err
	}
	// Releer con los bloqueos tomados
	var out []*entity.Batch
	for _, x := range r.tx.batches.all() {
		if isExpirable(x, asOf) {
			out = append(out, &x)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpirationDate.Before(*out[j].ExpirationDate) })
	return out, nil
}

func isExpirable(b entity.Batch, asOf time.Time) bool {
	return !b.IsExpired && b.CurrentStock > 0 && b.ExpiresBefore(asOf)
}

func (r *batchRepo) Update(_ context.Context, b *entity.Batch) error {
	if _, ok := r.tx.batches.get(b.ID); !ok {
		return domain.ErrNotFound
	}
	r.tx.batches.put(b.ID, *b)
	return nil
}

type stockRepo struct{ tx *tx }

func (r *stockRepo) Get(_ context.Context, itemID, clinicID string) (*entity.ClinicStock, error) {
	x, ok := r.tx.stock.get(stockKey{itemID, clinicID})
	if !ok {
		return nil, nil
	}
	return &x, nil
}

func (r *stockRepo) GetForUpdate(ctx context.Context, itemID, clinicID string) (*entity.ClinicStock, error) {
	if err := r.tx.lock(ctx, "stock:"+itemID+":"+clinicID); err != nil {
		return nil, err
	}
	key := stockKey{itemID, clinicID}
	x, ok := r.tx.stock.get(key)
	if !ok {
		x = entity.ClinicStock{ItemID: itemID, ClinicID: clinicID, UpdatedAt: time.Now()}
		r.tx.stock.put(key, x)
	}
	return &x, nil
}

func (r *stockRepo) Upsert(_ context.Context, s *entity.ClinicStock) error {
	r.tx.stock.put(stockKey{s.ItemID, s.ClinicID}, *s)
	return nil
}

func (r *stockRepo) ListByItem(_ context.Context, itemID string) ([]*entity.ClinicStock, error) {
	var out []*entity.ClinicStock
	for _, x := range r.tx.stock.all() {
		if x.ItemID == itemID {
			out = append(out, &x)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClinicID < out[j].ClinicID })
	return out, nil
}

func (r *stockRepo) ListLowStock(_ context.Context, clinicID string) ([]*entity.ClinicStock, error) {
	var out []*entity.ClinicStock
	for _, x := range r.tx.stock.all() {
		if clinicID != "" && x.ClinicID != clinicID {
			continue
		}
		if x.IsLowStock() {
			out = append(out, &x)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CurrentStock != out[j].CurrentStock {
			return out[i].CurrentStock < out[j].CurrentStock
		}
		if out[i].ItemID != out[j].ItemID {
			return out[i].ItemID < out[j].ItemID
		}
		return out[i].ClinicID < out[j].ClinicID
	})
	return out, nil
}

type movementRepo struct{ tx *tx }

func (r *movementRepo) Create(_ context.Context, m *entity.Movement) error {
	m.Number = r.tx.store.seq.Add(1)
	r.tx.movements.put(m.ID, *m)
	return nil
}

func (r *movementRepo) ListByItemAndClinic(_ context.Context, itemID, clinicID string) ([]*entity.Movement, error) {
	return r.filter(func(m entity.Movement) bool { return m.ItemID == itemID && m.ClinicID == clinicID }), nil
}

func (r *movementRepo) ListByCorrelation(_ context.Context, correlationID string) ([]*entity.Movement, error) {
	return r.filter(func(m entity.Movement) bool { return m.CorrelationID == correlationID }), nil
}

func (r *movementRepo) filter(keep func(entity.Movement) bool) []*entity.Movement {
	var out []*entity.Movement
	for _, x := range r.tx.movements.all() {
		if keep(x) {
			out = append(out, &x)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}
