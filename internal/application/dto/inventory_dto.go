package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
// Para TRANSFER se usa ClinicID como origen y TargetClinicID como destino.
type RegisterMovementRequest struct {
	ItemID               string           `json:"item_id"`
	ClinicID             string           `json:"clinic_id"`
	TargetClinicID       string           `json:"target_clinic_id,omitempty"`
	Type                 string           `json:"type"`
	Direction            string           `json:"direction,omitempty"` // solo ADJUSTMENT: IN | OUT
	Quantity             int              `json:"quantity"`
	UnitCost             *decimal.Decimal `json:"unit_cost,omitempty"`
	BatchID              string           `json:"batch_id,omitempty"`
	Reason               string           `json:"reason,omitempty"`
	Notes                string           `json:"notes,omitempty"`
	InvoiceItemReference string           `json:"invoice_item_reference,omitempty"`
	TreatmentReference   string           `json:"treatment_reference,omitempty"`
}

// MovementResponse una fila del libro de stock.
type MovementResponse struct {
	ID                   string          `json:"id"`
	Number               int64           `json:"number"`
	CorrelationID        string          `json:"correlation_id"`
	Type                 string          `json:"type"`
	Direction            string          `json:"direction"`
	Quantity             int             `json:"quantity"`
	UnitCost             decimal.Decimal `json:"unit_cost"`
	TotalCost            decimal.Decimal `json:"total_cost"`
	MovementDate         time.Time       `json:"movement_date"`
	Reason               string          `json:"reason,omitempty"`
	Notes                string          `json:"notes,omitempty"`
	ItemID               string          `json:"item_id"`
	ClinicID             string          `json:"clinic_id"`
	BatchID              string          `json:"batch_id,omitempty"`
	InvoiceItemReference string          `json:"invoice_item_reference,omitempty"`
	TreatmentReference   string          `json:"treatment_reference,omitempty"`
	PurchaseOrderItemID  string          `json:"purchase_order_item_id,omitempty"`
	CreatedBy            string          `json:"created_by,omitempty"`
}

// MovementListResponse movimientos de un par ítem+sede con el saldo reconstruido.
type MovementListResponse struct {
	Items         []MovementResponse `json:"items"`
	ReplayedStock int                `json:"replayed_stock"`
}

// ClinicStockResponse stock de un ítem en una sede.
type ClinicStockResponse struct {
	ItemID          string    `json:"item_id"`
	ClinicID        string    `json:"clinic_id"`
	CurrentStock    int       `json:"current_stock"`
	MinimumStock    int       `json:"minimum_stock"`
	MaximumStock    int       `json:"maximum_stock"`
	ReorderPoint    int       `json:"reorder_point"`
	StorageLocation string    `json:"storage_location,omitempty"`
	IsLowStock      bool      `json:"is_low_stock"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// UpdateThresholdsRequest umbrales editables de un par ítem+sede.
type UpdateThresholdsRequest struct {
	MinimumStock    *int    `json:"minimum_stock"`
	MaximumStock    *int    `json:"maximum_stock"`
	ReorderPoint    *int    `json:"reorder_point"`
	StorageLocation *string `json:"storage_location"`
}

// OpenBatchRequest alta manual de un lote (solo ítems con control de lote).
type OpenBatchRequest struct {
	ItemID         string          `json:"item_id"`
	ClinicID       string          `json:"clinic_id"`
	BatchNumber    string          `json:"batch_number"`
	InitialStock   int             `json:"initial_stock"`
	ExpirationDate *time.Time      `json:"expiration_date,omitempty"`
	PurchaseCost   decimal.Decimal `json:"purchase_cost"`
}

// BatchResponse salida de un lote.
type BatchResponse struct {
	ID              string          `json:"id"`
	ItemID          string          `json:"item_id"`
	BatchNumber     string          `json:"batch_number"`
	ExpirationDate  *time.Time      `json:"expiration_date,omitempty"`
	InitialStock    int             `json:"initial_stock"`
	CurrentStock    int             `json:"current_stock"`
	PurchaseCost    decimal.Decimal `json:"purchase_cost"`
	IsExpired       bool            `json:"is_expired"`
	PurchaseOrderID string          `json:"purchase_order_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// BatchAllocationResponse resultado de la selección FEFO.
type BatchAllocationResponse struct {
	BatchID  string `json:"batch_id"`
	Quantity int    `json:"quantity"`
}

// SweepResponse resultado del barrido de vencimientos.
type SweepResponse struct {
	Expired int `json:"expired"`
}

// ReplenishmentSuggestionResponse sugerencia de pedido para un par ítem+sede.
type ReplenishmentSuggestionResponse struct {
	Priority           int             `json:"priority"`
	ItemID             string          `json:"item_id"`
	ItemCode           string          `json:"item_code"`
	ItemName           string          `json:"item_name"`
	ClinicID           string          `json:"clinic_id"`
	CurrentStock       int             `json:"current_stock"`
	ReorderPoint       int             `json:"reorder_point"`
	TargetStock        int             `json:"target_stock"`
	SuggestedOrderQty  int             `json:"suggested_order_qty"`
	UnitCost           decimal.Decimal `json:"unit_cost"`
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"`
	AutoReorder        bool            `json:"auto_reorder"`
}
