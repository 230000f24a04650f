// Package pdf genera el documento de orden de compra que se envía al proveedor.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Sede solicitante    │  N° Orden + Fecha + Estado    │
//	│  PROVEEDOR: Razón social + NIT + contacto + condiciones      │
//	│  TABLA: Código | Ítem | Cant. | Recibido | Costo | Total     │
//	│  TOTALES: Subtotal / Impuesto / TOTAL                        │
//	│  FOOTER: QR con el número de orden + notas                   │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/clinistock-api/internal/application/purchasing"
	"github.com/jhoicas/clinistock-api/internal/domain/entity"
)

var _ purchasing.DocumentGenerator = (*PurchaseOrderGenerator)(nil)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// PurchaseOrderGenerator implementa purchasing.DocumentGenerator usando Maroto v2.
type PurchaseOrderGenerator struct{}

// NewPurchaseOrderGenerator construye el generador.
func NewPurchaseOrderGenerator() *PurchaseOrderGenerator { return &PurchaseOrderGenerator{} }

// GeneratePurchaseOrder genera el PDF y devuelve sus bytes.
func (g *PurchaseOrderGenerator) GeneratePurchaseOrder(_ context.Context, doc purchasing.OrderDocument) ([]byte, error) {
	if doc.Order == nil || doc.Supplier == nil || doc.Clinic == nil {
		return nil, fmt.Errorf("pdf: documento incompleto")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Orden de compra "+doc.Order.OrderNumber, true).
		WithAuthor(doc.Clinic.Name, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(headerRow(doc.Order, doc.Clinic))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(supplierRow(doc.Supplier))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(tableHeaderRow())
	m.AddRows(lineRows(doc.Order.Items, doc.Items)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(doc.Order))
	m.AddRows(line.NewRow(3))
	m.AddRows(footerRow(doc.Order))

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

func headerRow(o *entity.PurchaseOrder, clinic *entity.Clinic) core.Row {
	expected := "-"
	if o.ExpectedDeliveryDate != nil {
		expected = o.ExpectedDeliveryDate.Format("02/01/2006")
	}
	return row.New(22).Add(
		col.New(7).Add(
			text.New(clinic.Name, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New("Sede "+clinic.Code, props.Text{Size: 9, Top: 9, Color: colorGray}),
			text.New(nonEmpty(clinic.Address, "-"), props.Text{Size: 8, Top: 14, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("ORDEN DE COMPRA", props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1}),
			text.New(o.OrderNumber, props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 6}),
			text.New("Fecha: "+o.OrderDate.Format("02/01/2006"), props.Text{Size: 8, Align: align.Right, Top: 13, Color: colorGray}),
			text.New("Entrega esperada: "+expected+"  |  "+o.Status, props.Text{Size: 8, Align: align.Right, Top: 17, Color: colorGray}),
		),
	)
}

func supplierRow(s *entity.Supplier) core.Row {
	return row.New(20).Add(
		col.New(12).Add(
			text.New("PROVEEDOR", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(s.CompanyName, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(fmt.Sprintf("NIT: %s   |   Contacto: %s   |   Tel: %s   |   Email: %s",
				nonEmpty(s.TaxID, "-"), nonEmpty(s.ContactName, "-"), nonEmpty(s.Phone, "-"), nonEmpty(s.Email, "-"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
			text.New("Condiciones de pago: "+nonEmpty(s.PaymentTerms, "-"), props.Text{Size: 8, Top: 16, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Código", 2, align.Left),
		h("Ítem", 4, align.Left),
		h("Cant.", 1, align.Center),
		h("Recib.", 1, align.Center),
		h("Costo unit.", 2, align.Right),
		h("Total", 2, align.Right),
	)
}

// lineRows una fila por línea; si el ítem ya no existe se muestra su ID.
func lineRows(lines []*entity.PurchaseOrderItem, items map[string]*entity.Item) []core.Row {
	out := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		codeLabel, name := "-", l.ItemID
		if it, ok := items[l.ItemID]; ok {
			codeLabel, name = it.Code, it.Name
		}
		cell := func(s string, a align.Type) core.Component {
			return text.New(s, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1})
		}
		out = append(out, row.New(7).Add(
			col.New(2).Add(cell(codeLabel, align.Left)),
			col.New(4).Add(cell(name, align.Left)),
			col.New(1).Add(cell(fmt.Sprint(l.Quantity), align.Center)),
			col.New(1).Add(cell(fmt.Sprint(l.QuantityReceived), align.Center)),
			col.New(2).Add(cell("$"+formatMoney(l.UnitCost), align.Right)),
			col.New(2).Add(cell("$"+formatMoney(l.LineTotal), align.Right)),
		))
	}
	return out
}

func totalsRow(o *entity.PurchaseOrder) core.Row {
	value := func(s string, top float64, grand bool) core.Component {
		p := props.Text{Size: 9, Align: align.Right, Right: 1, Top: top}
		if grand {
			p.Style, p.Size, p.Color = fontstyle.Bold, 10, colorPrimary
		}
		return text.New(s, p)
	}
	taxLabel := fmt.Sprintf("Impuesto (%s%%):", o.TaxRate.Mul(decimal.NewFromInt(100)).StringFixed(0))
	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			text.New("Subtotal:", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2}),
			text.New(taxLabel, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 6}),
			text.New("TOTAL:", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Right: 2, Top: 12, Color: colorPrimary}),
		),
		col.New(3).Add(
			value("$"+formatMoney(o.Subtotal), 0, false),
			value("$"+formatMoney(o.Tax), 6, false),
			value("$"+formatMoney(o.Total), 12, true),
		),
	)
}

func footerRow(o *entity.PurchaseOrder) core.Row {
	notes := "Favor citar el número de orden en la factura y en la remisión de entrega."
	if strings.TrimSpace(o.Notes) != "" {
		notes = o.Notes + "\n" + notes
	}
	return row.New(35).Add(
		col.New(3).Add(code.NewQr(o.OrderNumber, props.Rect{Percent: 90, Center: true})),
		col.New(9).Add(
			text.New("OBSERVACIONES", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2, Left: 3}),
			text.New(notes, props.Text{Size: 8, Top: 8, Left: 3, Color: colorGray}),
		),
	)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney redondea a 2 decimales con separador de miles "." y decimal ",".
// Ej: 1234567.5 -> "1.234.567,50"
func formatMoney(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]
	n := len(intPart)
	buf := make([]byte, 0, n+n/3+3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	out := string(buf) + "," + frac
	if d.IsNegative() {
		out = "-" + out
	}
	return out
}
