package pdf

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinistock-api/internal/application/purchasing"
	"github.com/jhoicas/clinistock-api/internal/domain/entity"
)

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":         "0,00",
		"999.5":     "999,50",
		"1000":      "1.000,00",
		"1234567.5": "1.234.567,50",
		"-25000":    "-25.000,00",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatMoney(decimal.RequireFromString(in)), in)
	}
}

func TestGeneratePurchaseOrder(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	order := &entity.PurchaseOrder{
		OrderNumber: "OC-20260310-ABCD1234",
		Status:      entity.POStatusSent,
		OrderDate:   now,
		TaxRate:     decimal.RequireFromString("0.19"),
		Subtotal:    decimal.NewFromInt(50000),
		Tax:         decimal.NewFromInt(9500),
		Total:       decimal.NewFromInt(59500),
		Items: []*entity.PurchaseOrderItem{
			{ID: "l1", ItemID: "i1", Quantity: 10, UnitCost: decimal.NewFromInt(5000), LineTotal: decimal.NewFromInt(50000)},
		},
	}
	doc := purchasing.OrderDocument{
		Order:    order,
		Supplier: &entity.Supplier{CompanyName: "Dental Supply SAS", TaxID: "900123456"},
		Clinic:   &entity.Clinic{Code: "NORTE", Name: "Clínica Norte"},
		Items:    map[string]*entity.Item{"i1": {ID: "i1", Code: "GUA-01", Name: "Guantes de nitrilo"}},
	}

	out, err := NewPurchaseOrderGenerator().GeneratePurchaseOrder(context.Background(), doc)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestGeneratePurchaseOrder_Incomplete(t *testing.T) {
	_, err := NewPurchaseOrderGenerator().GeneratePurchaseOrder(context.Background(), purchasing.OrderDocument{})
	assert.Error(t, err)
}
