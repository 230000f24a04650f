package http

import (
	"github.com/jhoicas/clinistock-api/internal/application/dto"
	"github.com/jhoicas/clinistock-api/internal/application/inventory"
	"github.com/jhoicas/clinistock-api/internal/domain/entity"
)

func toMovementResponses(movs []*entity.Movement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, dto.MovementResponse{
			ID:                   m.ID,
			Number:               m.Number,
			CorrelationID:        m.CorrelationID,
			Type:                 m.Type,
			Direction:            m.Direction,
			Quantity:             m.Quantity,
			UnitCost:             m.UnitCost,
			TotalCost:            m.TotalCost,
			MovementDate:         m.MovementDate,
			Reason:               m.Reason,
			Notes:                m.Notes,
			ItemID:               m.ItemID,
			ClinicID:             m.ClinicID,
			BatchID:              m.BatchID,
			InvoiceItemReference: m.InvoiceItemReference,
			TreatmentReference:   m.TreatmentReference,
			PurchaseOrderItemID:  m.PurchaseOrderItemID,
			CreatedBy:            m.CreatedBy,
		})
	}
	return out
}

func toStockResponse(s *entity.ClinicStock) dto.ClinicStockResponse {
	return dto.ClinicStockResponse{
		ItemID:          s.ItemID,
		ClinicID:        s.ClinicID,
		CurrentStock:    s.CurrentStock,
		MinimumStock:    s.MinimumStock,
		MaximumStock:    s.MaximumStock,
		ReorderPoint:    s.ReorderPoint,
		StorageLocation: s.StorageLocation,
		IsLowStock:      s.IsLowStock(),
		UpdatedAt:       s.UpdatedAt,
	}
}

func toBatchResponse(b *entity.Batch) dto.BatchResponse {
	return dto.BatchResponse{
		ID:              b.ID,
		ItemID:          b.ItemID,
		BatchNumber:     b.BatchNumber,
		ExpirationDate:  b.ExpirationDate,
		InitialStock:    b.InitialStock,
		CurrentStock:    b.CurrentStock,
		PurchaseCost:    b.PurchaseCost,
		IsExpired:       b.IsExpired,
		PurchaseOrderID: b.PurchaseOrderID,
		CreatedAt:       b.CreatedAt,
	}
}

func toOrderResponse(o *entity.PurchaseOrder) dto.PurchaseOrderResponse {
	lines := make([]dto.PurchaseOrderLineResponse, 0, len(o.Items))
	for _, l := range o.Items {
		lines = append(lines, dto.PurchaseOrderLineResponse{
			ID:               l.ID,
			ItemID:           l.ItemID,
			Quantity:         l.Quantity,
			QuantityReceived: l.QuantityReceived,
			UnitCost:         l.UnitCost,
			LineTotal:        l.LineTotal,
		})
	}
	return dto.PurchaseOrderResponse{
		ID:                   o.ID,
		OrderNumber:          o.OrderNumber,
		SupplierID:           o.SupplierID,
		ClinicID:             o.ClinicID,
		Status:               o.Status,
		OrderDate:            o.OrderDate,
		ExpectedDeliveryDate: o.ExpectedDeliveryDate,
		ActualDeliveryDate:   o.ActualDeliveryDate,
		TaxRate:              o.TaxRate,
		Subtotal:             o.Subtotal,
		Tax:                  o.Tax,
		Total:                o.Total,
		Notes:                o.Notes,
		Lines:                lines,
	}
}

func toReplenishmentResponses(list []inventory.ReplenishmentSuggestion) []dto.ReplenishmentSuggestionResponse {
	out := make([]dto.ReplenishmentSuggestionResponse, 0, len(list))
	for _, s := range list {
		out = append(out, dto.ReplenishmentSuggestionResponse{
			Priority:           s.Priority,
			ItemID:             s.ItemID,
			ItemCode:           s.ItemCode,
			ItemName:           s.ItemName,
			ClinicID:           s.ClinicID,
			CurrentStock:       s.CurrentStock,
			ReorderPoint:       s.ReorderPoint,
			TargetStock:        s.TargetStock,
			SuggestedOrderQty:  s.SuggestedOrderQty,
			UnitCost:           s.UnitCost,
			EstimatedOrderCost: s.EstimatedOrderCost,
			AutoReorder:        s.AutoReorder,
		})
	}
	return out
}
