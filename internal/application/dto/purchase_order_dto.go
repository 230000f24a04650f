package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrderLineRequest línea solicitada en una orden de compra.
type PurchaseOrderLineRequest struct {
	ItemID   string          `json:"item_id"`
	Quantity int             `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// CreatePurchaseOrderRequest entrada para crear una orden en DRAFT.
type CreatePurchaseOrderRequest struct {
	SupplierID           string                     `json:"supplier_id"`
	ClinicID             string                     `json:"clinic_id"`
	ExpectedDeliveryDate *time.Time                 `json:"expected_delivery_date,omitempty"`
	TaxRate              decimal.Decimal            `json:"tax_rate"`
	Notes                string                     `json:"notes,omitempty"`
	Lines                []PurchaseOrderLineRequest `json:"lines"`
}

// LineReceiptRequest cantidad recibida de una línea.
type LineReceiptRequest struct {
	LineID         string     `json:"line_id"`
	Quantity       int        `json:"quantity"`
	BatchNumber    string     `json:"batch_number,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

// ReceivePurchaseOrderRequest body para registrar una recepción.
type ReceivePurchaseOrderRequest struct {
	Lines []LineReceiptRequest `json:"lines"`
}

// PurchaseOrderLineResponse línea de la orden.
type PurchaseOrderLineResponse struct {
	ID               string          `json:"id"`
	ItemID           string          `json:"item_id"`
	Quantity         int             `json:"quantity"`
	QuantityReceived int             `json:"quantity_received"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	LineTotal        decimal.Decimal `json:"line_total"`
}

// PurchaseOrderResponse salida de una orden con sus líneas.
type PurchaseOrderResponse struct {
	ID                   string                      `json:"id"`
	OrderNumber          string                      `json:"order_number"`
	SupplierID           string                      `json:"supplier_id"`
	ClinicID             string                      `json:"clinic_id"`
	Status               string                      `json:"status"`
	OrderDate            time.Time                   `json:"order_date"`
	ExpectedDeliveryDate *time.Time                  `json:"expected_delivery_date,omitempty"`
	ActualDeliveryDate   *time.Time                  `json:"actual_delivery_date,omitempty"`
	TaxRate              decimal.Decimal             `json:"tax_rate"`
	Subtotal             decimal.Decimal             `json:"subtotal"`
	Tax                  decimal.Decimal             `json:"tax"`
	Total                decimal.Decimal             `json:"total"`
	Notes                string                      `json:"notes,omitempty"`
	Lines                []PurchaseOrderLineResponse `json:"lines"`
}

// PurchaseOrderListResponse lista paginada de órdenes.
type PurchaseOrderListResponse struct {
	Items []PurchaseOrderResponse `json:"items"`
	Page  PageResponse            `json:"page"`
}
