package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/clinistock-api/internal/domain/entity"
)

// ReplenishmentSuggestion sugerencia de pedido para un par ítem+sede en o bajo su punto de reorden.
type ReplenishmentSuggestion struct {
	ItemID             string
	ItemCode           string
	ItemName           string
	ClinicID           string
	CurrentStock       int
	ReorderPoint       int
	TargetStock        int // MaximumStock, o ReorderPoint * 1.5 si no hay máximo
	SuggestedOrderQty  int
	UnitCost           decimal.Decimal
	EstimatedOrderCost decimal.Decimal
	AutoReorder        bool
	Priority           int // 1 = más urgente
}

// ReplenishmentUseCase genera la lista de reposición de una sede (o de todas) a partir de la
// proyección de stock bajo y el costo promedio de cada ítem.
type ReplenishmentUseCase struct {
	stock *ClinicStockProjection
	repos Repos
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(stock *ClinicStockProjection, repos Repos) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{stock: stock, repos: repos}
}

// GenerateReplenishmentList devuelve los pares bajo punto de reorden con la cantidad sugerida de
// pedido. Orden: mayor déficit relativo primero; a igual déficit, mayor costo estimado.
// clinicID puede ser vacío para considerar todas las sedes.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context, clinicID string) ([]ReplenishmentSuggestion, error) {
	rows, err := uc.stock.ListLowStock(ctx, clinicID)
	if err != nil {
		return nil, err
	}

	items := make(map[string]*entity.Item)
	out := make([]ReplenishmentSuggestion, 0, len(rows))
	for _, s := range rows {
		item, ok := items[s.ItemID]
		if !ok {
			item, err = uc.repos.Items.GetByID(ctx, s.ItemID)
			if err != nil {
				return nil, err
			}
			items[s.ItemID] = item
		}
		// Ítems dados de baja no se reponen
		if item == nil || item.IsDeleted() {
			continue
		}

		target := s.MaximumStock
		if target <= 0 {
			target = int(decimal.NewFromInt(int64(s.ReorderPoint)).Mul(decimal.NewFromFloat(1.5)).Ceil().IntPart())
		}
		qty := target - s.CurrentStock
		if qty <= 0 {
			continue
		}
		out = append(out, ReplenishmentSuggestion{
			ItemID:             item.ID,
			ItemCode:           item.Code,
			ItemName:           item.Name,
			ClinicID:           s.ClinicID,
			CurrentStock:       s.CurrentStock,
			ReorderPoint:       s.ReorderPoint,
			TargetStock:        target,
			SuggestedOrderQty:  qty,
			UnitCost:           item.UnitCost,
			EstimatedOrderCost: item.UnitCost.Mul(decimal.NewFromInt(int64(qty))),
			AutoReorder:        item.AutoReorder,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		da, db := deficitRatio(a), deficitRatio(b)
		if !da.Equal(db) {
			return da.GreaterThan(db)
		}
		return a.EstimatedOrderCost.GreaterThan(b.EstimatedOrderCost)
	})
	for i := range out {
		out[i].Priority = i + 1
	}
	return out, nil
}

// deficitRatio fracción faltante respecto del objetivo (1 = sin stock).
func deficitRatio(s ReplenishmentSuggestion) decimal.Decimal {
	if s.TargetStock <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(s.TargetStock - s.CurrentStock)).Div(decimal.NewFromInt(int64(s.TargetStock)))
}
