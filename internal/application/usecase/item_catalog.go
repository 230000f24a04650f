package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/clinistock-api/internal/application/dto"
	"github.com/jhoicas/clinistock-api/internal/domain"
	"github.com/jhoicas/clinistock-api/internal/domain/catalog"
	"github.com/jhoicas/clinistock-api/internal/domain/entity"
	"github.com/jhoicas/clinistock-api/internal/domain/repository"
)

// ItemCatalog casos de uso del catálogo de ítems. Costo y stock se manejan vía movimientos.
type ItemCatalog struct {
	items      repository.ItemRepository
	categories repository.CategoryRepository
	stock      repository.ClinicStockRepository
	orders     repository.PurchaseOrderRepository
}

// NewItemCatalog construye el caso de uso.
func NewItemCatalog(
	items repository.ItemRepository,
	categories repository.CategoryRepository,
	stock repository.ClinicStockRepository,
	orders repository.PurchaseOrderRepository,
) *ItemCatalog {
	return &ItemCatalog{items: items, categories: categories, stock: stock, orders: orders}
}

// Create crea un ítem. Código único entre ítems no eliminados; costos no negativos.
func (uc *ItemCatalog) Create(ctx context.Context, in dto.CreateItemRequest) (*dto.ItemResponse, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	if in.Code == "" || in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.UnitCost.IsNegative() || in.SalePrice.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.requireCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	existing, err := uc.items.GetActiveByCode(ctx, in.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	if in.UnitMeasure == "" {
		in.UnitMeasure = "UND"
	}
	now := time.Now()
	item := &entity.Item{
		ID:                   uuid.New().String(),
		Code:                 in.Code,
		Name:                 in.Name,
		Description:          in.Description,
		UnitMeasure:          in.UnitMeasure,
		UnitCost:             in.UnitCost,
		SalePrice:            in.SalePrice,
		CategoryID:           in.CategoryID,
		RequiresBatchControl: in.RequiresBatchControl,
		AutoReorder:          in.AutoReorder,
		RequiresPrescription: in.RequiresPrescription,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := uc.items.Create(ctx, item); err != nil {
		return nil, err
	}
	return toItemResponse(item, 0), nil
}

// Get obtiene un ítem no eliminado con su stock total derivado de todas las sedes.
func (uc *ItemCatalog) Get(ctx context.Context, id string) (*dto.ItemResponse, error) {
	item, err := uc.active(ctx, id)
	if err != nil {
		return nil, err
	}
	total, err := uc.total(ctx, id)
	if err != nil {
		return nil, err
	}
	return toItemResponse(item, total), nil
}

// ListByCategory ítems no eliminados de la categoría; includeDescendants recorre el subárbol.
func (uc *ItemCatalog) ListByCategory(ctx context.Context, categoryID string, includeDescendants bool) (*dto.ItemListResponse, error) {
	cat, err := uc.categories.GetByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, domain.ErrNotFound
	}
	ids := []string{categoryID}
	if includeDescendants {
		all, err := uc.categories.List(ctx)
		if err != nil {
			return nil, err
		}
		ids = catalog.Subtree(categoryID, all)
	}
	list, err := uc.items.ListByCategories(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := &dto.ItemListResponse{Items: make([]dto.ItemResponse, 0, len(list))}
	for _, item := range list {
		total, err := uc.total(ctx, item.ID)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, *toItemResponse(item, total))
	}
	return out, nil
}

// Update actualiza campos descriptivos. No permite modificar costo ni stock.
func (uc *ItemCatalog) Update(ctx context.Context, id string, in dto.UpdateItemRequest) (*dto.ItemResponse, error) {
	item, err := uc.active(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.ErrInvalidInput
		}
		item.Name = name
	}
	if in.Description != nil {
		item.Description = *in.Description
	}
	if in.UnitMeasure != nil {
		item.UnitMeasure = *in.UnitMeasure
	}
	if in.SalePrice != nil {
		if in.SalePrice.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		item.SalePrice = *in.SalePrice
	}
	if in.CategoryID != nil {
		if err := uc.requireCategory(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
		item.CategoryID = *in.CategoryID
	}
	if in.RequiresBatchControl != nil && *in.RequiresBatchControl != item.RequiresBatchControl {
		// Cambiar el control de lote con stock rompería la conciliación lotes/sedes
		total, err := uc.total(ctx, id)
		if err != nil {
			return nil, err
		}
		if total > 0 {
			return nil, domain.ErrConflict
		}
		item.RequiresBatchControl = *in.RequiresBatchControl
	}
	if in.AutoReorder != nil {
		item.AutoReorder = *in.AutoReorder
	}
	if in.RequiresPrescription != nil {
		item.RequiresPrescription = *in.RequiresPrescription
	}
	item.UpdatedAt = time.Now()
	if err := uc.items.Update(ctx, item); err != nil {
		return nil, err
	}
	total, err := uc.total(ctx, id)
	if err != nil {
		return nil, err
	}
	return toItemResponse(item, total), nil
}

// Deactivate da de baja el ítem (DeletedAt). Conflict si una orden abierta tiene una línea
// pendiente del ítem o si queda stock en alguna sede.
func (uc *ItemCatalog) Deactivate(ctx context.Context, id string) error {
	item, err := uc.active(ctx, id)
	if err != nil {
		return err
	}
	open, err := uc.orders.HasOpenLinesForItem(ctx, id)
	if err != nil {
		return err
	}
	if open {
		return domain.ErrConflict
	}
	total, err := uc.total(ctx, id)
	if err != nil {
		return err
	}
	if total > 0 {
		return domain.ErrConflict
	}
	now := time.Now()
	item.DeletedAt = &now
	item.UpdatedAt = now
	return uc.items.Update(ctx, item)
}

func (uc *ItemCatalog) active(ctx context.Context, id string) (*entity.Item, error) {
	item, err := uc.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil || item.IsDeleted() {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (uc *ItemCatalog) total(ctx context.Context, itemID string) (int, error) {
	rows, err := uc.stock.ListByItem(ctx, itemID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, r := range rows {
		total += r.CurrentStock
	}
	return total, nil
}

// requireCategory valida la categoría si se indicó (vacía = sin categoría).
func (uc *ItemCatalog) requireCategory(ctx context.Context, categoryID string) error {
	if categoryID == "" {
		return nil
	}
	cat, err := uc.categories.GetByID(ctx, categoryID)
	if err != nil {
		return err
	}
	if cat == nil {
		return domain.ErrNotFound
	}
	return nil
}

func toItemResponse(i *entity.Item, currentStock int) *dto.ItemResponse {
	return &dto.ItemResponse{
		ID:                   i.ID,
		Code:                 i.Code,
		Name:                 i.Name,
		Description:          i.Description,
		UnitMeasure:          i.UnitMeasure,
		UnitCost:             i.UnitCost,
		SalePrice:            i.SalePrice,
		CategoryID:           i.CategoryID,
		RequiresBatchControl: i.RequiresBatchControl,
		AutoReorder:          i.AutoReorder,
		RequiresPrescription: i.RequiresPrescription,
		CurrentStock:         currentStock,
		CreatedAt:            i.CreatedAt,
		UpdatedAt:            i.UpdatedAt,
	}
}
