// Package memory implementa los repositorios sobre estructuras en memoria (STORAGE_DRIVER=memory).
// Reproduce la semántica transaccional del driver PostgreSQL: escrituras preparadas por transacción
// que se publican en el Commit y bloqueos de fila con tiempo máximo de espera.
package memory

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jhoicas/clinistock-api/internal/application/inventory"
	"github.com/jhoicas/clinistock-api/internal/domain"
	"github.com/jhoicas/clinistock-api/internal/domain/entity"
	"github.com/jhoicas/clinistock-api/internal/domain/repository"
)

var _ inventory.TxRunner = (*Store)(nil)

type stockKey struct {
	itemID   string
	clinicID string
}

type lineRow struct {
	line entity.PurchaseOrderItem
	seq  int64
}

// Store datos compartidos por todas las transacciones.
type Store struct {
	mu          sync.RWMutex
	items       map[string]entity.Item
	categories  map[string]entity.Category
	suppliers   map[string]entity.Supplier
	clinics     map[string]entity.Clinic
	batches     map[string]entity.Batch
	stock       map[stockKey]entity.ClinicStock
	movements   map[string]entity.Movement
	orders      map[string]entity.PurchaseOrder
	lines       map[string]lineRow
	seq         atomic.Int64
	locks       *lockTable
	lockTimeout time.Duration
}

// NewStore crea un almacén vacío. lockTimeout acota la espera de cada bloqueo de fila.
func NewStore(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	return &Store{
		items:       make(map[string]entity.Item),
		categories:  make(map[string]entity.Category),
		suppliers:   make(map[string]entity.Supplier),
		clinics:     make(map[string]entity.Clinic),
		batches:     make(map[string]entity.Batch),
		stock:       make(map[stockKey]entity.ClinicStock),
		movements:   make(map[string]entity.Movement),
		orders:      make(map[string]entity.PurchaseOrder),
		lines:       make(map[string]lineRow),
		locks:       newLockTable(),
		lockTimeout: lockTimeout,
	}
}

// Repos repositorios en modo autocommit (cada escritura se publica de inmediato, sin bloqueos).
func (s *Store) Repos() inventory.Repos {
	return s.newTx(true).repos()
}

// Categories repositorio de categorías en modo autocommit.
func (s *Store) Categories() repository.CategoryRepository {
	return &categoryRepo{tx: s.newTx(true)}
}

// Suppliers repositorio de proveedores en modo autocommit.
func (s *Store) Suppliers() repository.SupplierRepository {
	return &supplierRepo{tx: s.newTx(true)}
}

// Run ejecuta fn dentro de una transacción: si fn devuelve error nada de lo escrito es visible.
func (s *Store) Run(ctx context.Context, fn func(r inventory.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := s.newTx(false)
	defer tx.release()
	if err := fn(tx.repos()); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// view combina la tabla compartida con las escrituras preparadas de una transacción.
type view[K comparable, V any] struct {
	mu     *sync.RWMutex
	base   map[K]V
	staged map[K]V // nil en modo autocommit
}

func newView[K comparable, V any](mu *sync.RWMutex, base map[K]V, auto bool) *view[K, V] {
	v := &view[K, V]{mu: mu, base: base}
	if !auto {
		v.staged = make(map[K]V)
	}
	return v
}

func (v *view[K, V]) get(k K) (V, bool) {
	if v.staged != nil {
		if x, ok := v.staged[k]; ok {
			return x, true
		}
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	x, ok := v.base[k]
	return x, ok
}

func (v *view[K, V]) put(k K, x V) {
	if v.staged != nil {
		v.staged[k] = x
		return
	}
	v.mu.Lock()
	v.base[k] = x
	v.mu.Unlock()
}

func (v *view[K, V]) all() []V {
	v.mu.RLock()
	merged := make(map[K]V, len(v.base)+len(v.staged))
	for k, x := range v.base {
		merged[k] = x
	}
	v.mu.RUnlock()
	for k, x := range v.staged {
		merged[k] = x
	}
	out := make([]V, 0, len(merged))
	for _, x := range merged {
		out = append(out, x)
	}
	return out
}

// publish vuelca lo preparado en la tabla compartida; el llamador sostiene mu.
func (v *view[K, V]) publish() {
	for k, x := range v.staged {
		v.base[k] = x
	}
}

// tx transacción en memoria con sus vistas y los bloqueos que sostiene.
type tx struct {
	store      *Store
	auto       bool
	held       []string
	heldSet    map[string]bool
	items      *view[string, entity.Item]
	categories *view[string, entity.Category]
	suppliers  *view[string, entity.Supplier]
	clinics    *view[string, entity.Clinic]
	batches    *view[string, entity.Batch]
	stock      *view[stockKey, entity.ClinicStock]
	movements  *view[string, entity.Movement]
	orders     *view[string, entity.PurchaseOrder]
	lines      *view[string, lineRow]
}

func (s *Store) newTx(auto bool) *tx {
	return &tx{
		store:      s,
		auto:       auto,
		heldSet:    make(map[string]bool),
		items:      newView(&s.mu, s.items, auto),
		categories: newView(&s.mu, s.categories, auto),
		suppliers:  newView(&s.mu, s.suppliers, auto),
		clinics:    newView(&s.mu, s.clinics, auto),
		batches:    newView(&s.mu, s.batches, auto),
		stock:      newView(&s.mu, s.stock, auto),
		movements:  newView(&s.mu, s.movements, auto),
		orders:     newView(&s.mu, s.orders, auto),
		lines:      newView(&s.mu, s.lines, auto),
	}
}

func (t *tx) repos() inventory.Repos {
	return inventory.Repos{
		Items:     &itemRepo{tx: t},
		Clinics:   &clinicRepo{tx: t},
		Batches:   &batchRepo{tx: t},
		Stock:     &stockRepo{tx: t},
		Movements: &movementRepo{tx: t},
		Orders:    &orderRepo{tx: t},
	}
}

// lock toma el bloqueo de fila key hasta el fin de la transacción (reentrante).
// En modo autocommit no bloquea.
func (t *tx) lock(ctx context.Context, key string) error {
	if t.auto || t.heldSet[key] {
		return nil
	}
	if err := t.store.locks.acquire(ctx, key, t.store.lockTimeout); err != nil {
		return err
	}
	t.heldSet[key] = true
	t.held = append(t.held, key)
	return nil
}

// lockSorted bloquea varias claves en orden lexicográfico.
func (t *tx) lockSorted(ctx context.Context, keys []string) error {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	for _, k := range sorted {
		if err := t.lock(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

func (t *tx) commit() {
	s := t.store
	s.mu.Lock()
	t.items.publish()
	t.categories.publish()
	t.suppliers.publish()
	t.clinics.publish()
	t.batches.publish()
	t.stock.publish()
	t.movements.publish()
	t.orders.publish()
	t.lines.publish()
	s.mu.Unlock()
}

func (t *tx) release() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.store.locks.release(t.held[i])
	}
	t.held = nil
	t.heldSet = make(map[string]bool)
}

// lockTable bloqueos por clave con espera acotada.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]chan struct{})}
}

func (lt *lockTable) slot(key string) chan struct{} {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	ch, ok := lt.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		lt.locks[key] = ch
	}
	return ch
}

// acquire espera el bloqueo; al vencer timeout devuelve domain.ErrLockTimeout.
func (lt *lockTable) acquire(ctx context.Context, key string, timeout time.Duration) error {
	ch := lt.slot(key)
	select {
	case ch <- struct{}{}:
		return nil
	default:
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		return domain.ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (lt *lockTable) release(key string) {
	<-lt.slot(key)
}
