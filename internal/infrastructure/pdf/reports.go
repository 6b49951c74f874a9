// Package pdf genera los reportes imprimibles del costeo con Maroto v2.
//
// Valorización (A4):
//
//	┌──────────────────────────────────────────────────────┐
//	│  HEADER: negocio + título  │  fecha de corte          │
//	│  TABLA: Insumo | Stock | Costo prom. | Valor          │
//	│  TOTAL INVENTARIO                                     │
//	│  ALERTAS: bajo mínimo con pedido sugerido             │
//	└──────────────────────────────────────────────────────┘
//
// La hoja de costo de un plato sigue el mismo esquema con una línea por insumo.
package pdf

import (
	"context"
	"fmt"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
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

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/dto"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// ReportGenerator arma los PDF de valorización y hoja de costo.
type ReportGenerator struct {
	business string
	loc      *time.Location
}

// NewReportGenerator construye el generador. business aparece en el encabezado.
func NewReportGenerator(business string, loc *time.Location) *ReportGenerator {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportGenerator{business: business, loc: loc}
}

func (g *ReportGenerator) document(title string) core.Maroto {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(title, true).
		WithAuthor(g.business, true).
		Build()
	return maroto.New(cfg)
}

// ValuationPDF reporte de valorización del inventario con alertas de stock mínimo.
func (g *ReportGenerator) ValuationPDF(_ context.Context, v *dto.ValuationDTO) ([]byte, error) {
	m := g.document("Valorización de inventario")
	m.AddRows(g.headerRow("VALORIZACIÓN DE INVENTARIO", v.GeneratedAt))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeader([]string{"Insumo", "Stock", "Costo prom.", "Valor"}, []int{6, 2, 2, 2}))
	for _, l := range v.Lines {
		m.AddRows(tableRow([]int{6, 2, 2, 2},
			l.ItemName,
			formatQty(l.StockQuantity),
			"$"+formatMoney(l.WeightedAverageUnitCost),
			"$"+formatMoney(l.Value),
		))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalRow("TOTAL INVENTARIO:", "$"+formatMoney(v.Total)))

	if len(v.Alerts) > 0 {
		m.AddRows(line.NewRow(4))
		m.AddRows(row.New(7).Add(col.New(12).Add(text.New("ALERTAS DE STOCK MÍNIMO", props.Text{
			Style: fontstyle.Bold, Size: 9, Color: colorAlert, Top: 1,
		}))))
		m.AddRows(tableHeader([]string{"#", "Insumo", "Proveedor", "Stock", "Mínimo", "Pedir"}, []int{1, 4, 3, 1, 1, 2}))
		for _, a := range v.Alerts {
			m.AddRows(tableRow([]int{1, 4, 3, 1, 1, 2},
				fmt.Sprint(a.Priority),
				a.ItemName,
				nonEmpty(a.Supplier, "—"),
				formatQty(a.CurrentStock),
				formatQty(a.MinStock),
				formatQty(a.SuggestedOrderQty),
			))
		}
	}
	return generate(m)
}

// DishCostPDF hoja de costo de un plato.
func (g *ReportGenerator) DishCostPDF(_ context.Context, c *dto.DishCostDTO, at time.Time) ([]byte, error) {
	m := g.document("Hoja de costo " + c.DishName)
	m.AddRows(g.headerRow("HOJA DE COSTO: "+strings.ToUpper(c.DishName), at))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeader([]string{"Insumo", "Cantidad", "Costo unit.", "Aporte"}, []int{6, 2, 2, 2}))
	for _, l := range c.Lines {
		name := l.IngredientName
		if l.MissingCost {
			name += " (sin costo)"
		}
		m.AddRows(tableRow([]int{6, 2, 2, 2},
			name,
			formatQty(l.QuantityPerUnit),
			"$"+formatMoney(l.UnitCost),
			"$"+formatMoney(l.Cost),
		))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalRow("COSTO TOTAL:", "$"+formatMoney(c.TotalCost)))
	if c.SuggestedPrice != nil && c.TargetMarginPct != nil {
		m.AddRows(totalRow(fmt.Sprintf("PRECIO SUGERIDO (%s%%):", c.TargetMarginPct.StringFixed(0)), "$"+formatMoney(*c.SuggestedPrice)))
	}
	return generate(m)
}

func generate(m core.Maroto) ([]byte, error) {
	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

func (g *ReportGenerator) headerRow(title string, at time.Time) core.Row {
	return row.New(16).Add(
		col.New(7).Add(
			text.New(g.business, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New(title, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("Corte: "+at.In(g.loc).Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 3, Color: colorGray,
			}),
		),
	)
}

func tableHeader(labels []string, sizes []int) core.Row {
	cols := make([]core.Col, len(labels))
	for i, l := range labels {
		a := align.Right
		if i == 0 || sizes[i] >= 3 {
			a = align.Left
		}
		cols[i] = col.New(sizes[i]).Add(text.New(l, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(cols...)
}

func tableRow(sizes []int, values ...string) core.Row {
	cols := make([]core.Col, len(values))
	for i, v := range values {
		a := align.Right
		if i == 0 || sizes[i] >= 3 {
			a = align.Left
		}
		cols[i] = col.New(sizes[i]).Add(text.New(v, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1}))
	}
	return row.New(6).Add(cols...)
}

func totalRow(label, value string) core.Row {
	return row.New(8).Add(
		col.New(6),
		col.New(4).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 1,
		})),
		col.New(2).Add(text.New(value, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 1,
		})),
	)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney redondea a pesos y agrega puntos de miles: 1234567.8 → "1.234.568".
func formatMoney(d decimal.Decimal) string {
	s := d.Round(0).StringFixed(0)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	n := len(s)
	buf := make([]byte, 0, n+n/3+1)
	if neg {
		buf = append(buf, '-')
	}
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}

// formatQty cantidades en unidad base con hasta dos decimales y coma decimal.
func formatQty(d decimal.Decimal) string {
	r := d.Abs().Round(2)
	whole := r.Truncate(0)
	frac := r.Sub(whole)
	s := formatMoney(whole)
	if d.IsNegative() && !r.IsZero() {
		s = "-" + s
	}
	if frac.IsZero() {
		return s
	}
	return s + "," + strings.TrimPrefix(frac.StringFixed(2), "0.")
}
