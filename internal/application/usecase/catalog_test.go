package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinistock-api/internal/application/dto"
	"github.com/jhoicas/clinistock-api/internal/application/usecase"
	"github.com/jhoicas/clinistock-api/internal/domain"
	"github.com/jhoicas/clinistock-api/internal/domain/entity"
	"github.com/jhoicas/clinistock-api/internal/infrastructure/memory"
)

type catalogEnv struct {
	store      *memory.Store
	items      *usecase.ItemCatalog
	categories *usecase.CategoryUseCase
	suppliers  *usecase.SupplierRegistry
	clinics    *usecase.ClinicUseCase
}

func newCatalogEnv() *catalogEnv {
	store := memory.NewStore(time.Second)
	repos := store.Repos()
	return &catalogEnv{
		store:      store,
		items:      usecase.NewItemCatalog(repos.Items, store.Categories(), repos.Stock, repos.Orders),
		categories: usecase.NewCategoryUseCase(store.Categories()),
		suppliers:  usecase.NewSupplierRegistry(store.Suppliers()),
		clinics:    usecase.NewClinicUseCase(repos.Clinics),
	}
}

func TestCategory_ReparentRejectsCycles(t *testing.T) {
	e := newCatalogEnv()
	ctx := context.Background()

	med, err := e.categories.Create(ctx, dto.CreateCategoryRequest{Code: "MED", Name: "Medicamentos"})
	require.NoError(t, err)
	anti, err := e.categories.Create(ctx, dto.CreateCategoryRequest{Code: "ANT", Name: "Antibióticos", ParentID: med.ID})
	require.NoError(t, err)
	oral, err := e.categories.Create(ctx, dto.CreateCategoryRequest{Code: "ORA", Name: "Orales", ParentID: anti.ID})
	require.NoError(t, err)

	_, err = e.categories.Reparent(ctx, med.ID, oral.ID)
	require.ErrorIs(t, err, domain.ErrCycleDetected)
	_, err = e.categories.Reparent(ctx, med.ID, med.ID)
	require.ErrorIs(t, err, domain.ErrCycleDetected)

	got, err := e.categories.Get(ctx, med.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ParentID, "el árbol no cambia tras el rechazo")

	moved, err := e.categories.Reparent(ctx, oral.ID, med.ID)
	require.NoError(t, err)
	assert.Equal(t, med.ID, moved.ParentID)

	_, err = e.categories.Create(ctx, dto.CreateCategoryRequest{Code: "MED", Name: "Otra"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	_, err = e.categories.Reparent(ctx, oral.ID, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItemCatalog_ListByCategoryWithDescendants(t *testing.T) {
	e := newCatalogEnv()
	ctx := context.Background()

	root, err := e.categories.Create(ctx, dto.CreateCategoryRequest{Code: "INS", Name: "Insumos"})
	require.NoError(t, err)
	child, err := e.categories.Create(ctx, dto.CreateCategoryRequest{Code: "CUR", Name: "Curación", ParentID: root.ID})
	require.NoError(t, err)

	_, err = e.items.Create(ctx, dto.CreateItemRequest{Code: "JER-5", Name: "Jeringa 5ml", CategoryID: root.ID})
	require.NoError(t, err)
	_, err = e.items.Create(ctx, dto.CreateItemRequest{Code: "GAS-1", Name: "Gasa", CategoryID: child.ID})
	require.NoError(t, err)

	direct, err := e.items.ListByCategory(ctx, root.ID, false)
	require.NoError(t, err)
	assert.Len(t, direct.Items, 1)

	all, err := e.items.ListByCategory(ctx, root.ID, true)
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	_, err = e.items.Create(ctx, dto.CreateItemRequest{Code: "X", Name: "Sin categoría válida", CategoryID: "nope"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = e.items.Create(ctx, dto.CreateItemRequest{Code: "NEG", Name: "Costo negativo", UnitCost: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = e.items.Create(ctx, dto.CreateItemRequest{Code: "JER-5", Name: "Duplicado"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestItemCatalog_DeactivateConflicts(t *testing.T) {
	e := newCatalogEnv()
	ctx := context.Background()
	repos := e.store.Repos()

	item, err := e.items.Create(ctx, dto.CreateItemRequest{Code: "ALC-1", Name: "Alcohol"})
	require.NoError(t, err)
	require.NoError(t, repos.Clinics.Create(ctx, &entity.Clinic{ID: "c1", Code: "C1", Name: "Centro"}))

	// stock en una sede
	require.NoError(t, repos.Stock.Upsert(ctx, &entity.ClinicStock{ItemID: item.ID, ClinicID: "c1", CurrentStock: 2}))
	assert.ErrorIs(t, e.items.Deactivate(ctx, item.ID), domain.ErrConflict)
	require.NoError(t, repos.Stock.Upsert(ctx, &entity.ClinicStock{ItemID: item.ID, ClinicID: "c1", CurrentStock: 0}))

	// línea pendiente en una orden abierta
	order := &entity.PurchaseOrder{
		ID: "po-1", OrderNumber: "OC-1", SupplierID: "s1", ClinicID: "c1", Status: entity.POStatusConfirmed,
		OrderDate: time.Now(),
		Items: []*entity.PurchaseOrderItem{
			{ID: "l1", PurchaseOrderID: "po-1", ItemID: item.ID, Quantity: 3},
		},
	}
	require.NoError(t, repos.Orders.Create(ctx, order))
	assert.ErrorIs(t, e.items.Deactivate(ctx, item.ID), domain.ErrConflict)

	order.Status = entity.POStatusCancelled
	require.NoError(t, repos.Orders.Update(ctx, order))
	require.NoError(t, e.items.Deactivate(ctx, item.ID))

	_, err = e.items.Get(ctx, item.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// el código queda libre para un ítem nuevo
	_, err = e.items.Create(ctx, dto.CreateItemRequest{Code: "ALC-1", Name: "Alcohol 70%"})
	assert.NoError(t, err)
}

func TestSupplierRegistry(t *testing.T) {
	e := newCatalogEnv()
	ctx := context.Background()

	s, err := e.suppliers.Create(ctx, dto.CreateSupplierRequest{Code: "PRV-1", CompanyName: "Distribuidora Médica"})
	require.NoError(t, err)
	_, err = e.suppliers.Create(ctx, dto.CreateSupplierRequest{Code: "PRV-1", CompanyName: "Otra"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	terms := "60 días"
	updated, err := e.suppliers.Update(ctx, s.ID, dto.UpdateSupplierRequest{PaymentTerms: &terms})
	require.NoError(t, err)
	assert.Equal(t, terms, updated.PaymentTerms)

	require.NoError(t, e.suppliers.Deactivate(ctx, s.ID))
	require.NoError(t, e.suppliers.Deactivate(ctx, s.ID))

	active, err := e.suppliers.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := e.suppliers.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestClinicUseCase(t *testing.T) {
	e := newCatalogEnv()
	ctx := context.Background()

	c, err := e.clinics.Create(ctx, dto.CreateClinicRequest{Code: "NTE", Name: "Sede Norte"})
	require.NoError(t, err)
	_, err = e.clinics.Create(ctx, dto.CreateClinicRequest{Code: "NTE", Name: "Duplicada"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	_, err = e.clinics.Create(ctx, dto.CreateClinicRequest{Code: " ", Name: "Sin código"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	got, err := e.clinics.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sede Norte", got.Name)
}
