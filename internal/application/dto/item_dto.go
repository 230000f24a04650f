package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateItemRequest entrada para crear un ítem del catálogo. UnitCost inicia en 0 salvo que se indique.
type CreateItemRequest struct {
	Code                 string          `json:"code" validate:"required,min=1,max=50"`
	Name                 string          `json:"name" validate:"required,min=1,max=200"`
	Description          string          `json:"description"`
	UnitMeasure          string          `json:"unit_measure"`
	UnitCost             decimal.Decimal `json:"unit_cost"`
	SalePrice            decimal.Decimal `json:"sale_price"`
	CategoryID           string          `json:"category_id"`
	RequiresBatchControl bool            `json:"requires_batch_control"`
	AutoReorder          bool            `json:"auto_reorder"`
	RequiresPrescription bool            `json:"requires_prescription"`
}

// UpdateItemRequest campos opcionales editables (sin costo ni stock, que se manejan vía movimientos).
type UpdateItemRequest struct {
	Name                 *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description          *string          `json:"description"`
	UnitMeasure          *string          `json:"unit_measure"`
	SalePrice            *decimal.Decimal `json:"sale_price"`
	CategoryID           *string          `json:"category_id"`
	RequiresBatchControl *bool            `json:"requires_batch_control"`
	AutoReorder          *bool            `json:"auto_reorder"`
	RequiresPrescription *bool            `json:"requires_prescription"`
}

// ItemResponse salida de un ítem. CurrentStock es la suma de todas las sedes.
type ItemResponse struct {
	ID                   string          `json:"id"`
	Code                 string          `json:"code"`
	Name                 string          `json:"name"`
	Description          string          `json:"description"`
	UnitMeasure          string          `json:"unit_measure"`
	UnitCost             decimal.Decimal `json:"unit_cost"`
	SalePrice            decimal.Decimal `json:"sale_price"`
	CategoryID           string          `json:"category_id,omitempty"`
	RequiresBatchControl bool            `json:"requires_batch_control"`
	AutoReorder          bool            `json:"auto_reorder"`
	RequiresPrescription bool            `json:"requires_prescription"`
	CurrentStock         int             `json:"current_stock"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// ItemListResponse lista de ítems.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
}
