// Package profitability calcula márgenes por plato, la matriz de menú y el punto de equilibrio.
package profitability

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/entity"
)

// Quadrant cuadrante de la matriz de menú (popularidad × margen).
type Quadrant string

const (
	QuadrantStar         Quadrant = "STAR"
	QuadrantCashCow      Quadrant = "CASH_COW"
	QuadrantQuestionMark Quadrant = "QUESTION_MARK"
	QuadrantDog          Quadrant = "DOG"
)

// DishSales ventas acumuladas de un plato en el periodo.
type DishSales struct {
	DishID   string
	DishName string
	Units    decimal.Decimal
	Revenue  decimal.Decimal
}

// AvgSellPrice ingreso / unidades, 0 si no hubo ventas.
func (s DishSales) AvgSellPrice() decimal.Decimal {
	if !s.Units.IsPositive() {
		return decimal.Zero
	}
	return s.Revenue.Div(s.Units)
}

// Aggregate suma los agregados diarios por plato, en orden de primera aparición.
func Aggregate(rows []entity.SalesLineAggregate) []DishSales {
	idx := make(map[string]int)
	var out []DishSales
	for _, r := range rows {
		i, ok := idx[r.DishID]
		if !ok {
			idx[r.DishID] = len(out)
			out = append(out, DishSales{DishID: r.DishID, DishName: r.DishName})
			i = len(out) - 1
		}
		out[i].Units = out[i].Units.Add(r.QuantitySold)
		out[i].Revenue = out[i].Revenue.Add(r.GrossAmount)
	}
	return out
}

// DishMargin precio promedio de venta - costo unitario.
func DishMargin(s DishSales, unitCost decimal.Decimal) decimal.Decimal {
	return s.AvgSellPrice().Sub(unitCost)
}

// MenuItem un plato clasificado.
type MenuItem struct {
	DishID       string          `json:"dish_id"`
	DishName     string          `json:"dish_name"`
	UnitsSold    decimal.Decimal `json:"units_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
	AvgSellPrice decimal.Decimal `json:"avg_sell_price"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	Margin       decimal.Decimal `json:"margin"`
	Quadrant     Quadrant        `json:"quadrant"`
}

// MenuMatrix resultado de la clasificación.
type MenuMatrix struct {
	Items      []MenuItem      `json:"items"`
	MeanUnits  decimal.Decimal `json:"mean_units"`
	MeanMargin decimal.Decimal `json:"mean_margin"`
}

// ClassifyMenu compara cada plato contra la media aritmética de unidades y margen.
// Igual a la media cuenta como alto en ambos ejes.
func ClassifyMenu(sales []DishSales, unitCosts map[string]decimal.Decimal) MenuMatrix {
	var m MenuMatrix
	if len(sales) == 0 {
		return m
	}
	sumUnits, sumMargin := decimal.Zero, decimal.Zero
	for _, s := range sales {
		cost := unitCosts[s.DishID]
		item := MenuItem{
			DishID:       s.DishID,
			DishName:     s.DishName,
			UnitsSold:    s.Units,
			Revenue:      s.Revenue,
			AvgSellPrice: s.AvgSellPrice(),
			UnitCost:     cost,
			Margin:       DishMargin(s, cost),
		}
		sumUnits = sumUnits.Add(item.UnitsSold)
		sumMargin = sumMargin.Add(item.Margin)
		m.Items = append(m.Items, item)
	}
	n := decimal.NewFromInt(int64(len(sales)))
	m.MeanUnits = sumUnits.Div(n)
	m.MeanMargin = sumMargin.Div(n)

	for i := range m.Items {
		popular := m.Items[i].UnitsSold.GreaterThanOrEqual(m.MeanUnits)
		profitable := m.Items[i].Margin.GreaterThanOrEqual(m.MeanMargin)
		switch {
		case popular && profitable:
			m.Items[i].Quadrant = QuadrantStar
		case popular:
			m.Items[i].Quadrant = QuadrantCashCow
		case profitable:
			m.Items[i].Quadrant = QuadrantQuestionMark
		default:
			m.Items[i].Quadrant = QuadrantDog
		}
	}
	sort.SliceStable(m.Items, func(i, j int) bool { return m.Items[i].UnitsSold.GreaterThan(m.Items[j].UnitsSold) })
	return m
}

// Status estado frente al punto de equilibrio.
type Status string

const (
	StatusAchieving Status = "ACHIEVING"
	StatusDeficit   Status = "DEFICIT"
)

// DefaultContributionRatio razón de contribución cuando no hay ingresos en el periodo.
var DefaultContributionRatio = decimal.RequireFromString("0.35")

var daysPerMonth = decimal.NewFromInt(30)

// BreakEvenInput datos del periodo.
type BreakEvenInput struct {
	MonthlyFixedCosts decimal.Decimal
	Days              int
	Revenue           decimal.Decimal
	CostOfGoods       decimal.Decimal
}

// BreakEvenResult punto de equilibrio del periodo.
type BreakEvenResult struct {
	ProratedFixedCosts      decimal.Decimal `json:"prorated_fixed_costs"`
	Revenue                 decimal.Decimal `json:"revenue"`
	CostOfGoods             decimal.Decimal `json:"cost_of_goods"`
	GrossProfit             decimal.Decimal `json:"gross_profit"`
	ContributionMarginRatio decimal.Decimal `json:"contribution_margin_ratio"`
	BreakEvenRevenue        decimal.Decimal `json:"break_even_revenue"`
	Status                  Status          `json:"status"`
	Shortfall               decimal.Decimal `json:"shortfall"`
	Surplus                 decimal.Decimal `json:"surplus"`
	Unreachable             bool            `json:"unreachable"`
}

// BreakEven prorratea los gastos fijos a días y calcula el ingreso de equilibrio.
// Con razón de contribución <= 0 el equilibrio es inalcanzable y el faltante
// es el gasto fijo prorrateado.
func BreakEven(in BreakEvenInput) BreakEvenResult {
	res := BreakEvenResult{
		ProratedFixedCosts: in.MonthlyFixedCosts.Div(daysPerMonth).Mul(decimal.NewFromInt(int64(in.Days))),
		Revenue:            in.Revenue,
		CostOfGoods:        in.CostOfGoods,
		GrossProfit:        in.Revenue.Sub(in.CostOfGoods),
	}
	if in.Revenue.IsZero() {
		res.ContributionMarginRatio = DefaultContributionRatio
	} else {
		res.ContributionMarginRatio = res.GrossProfit.Div(in.Revenue)
	}

	if !res.ContributionMarginRatio.IsPositive() {
		res.Unreachable = true
		res.Status = StatusDeficit
		res.Shortfall = res.ProratedFixedCosts
		return res
	}
	res.BreakEvenRevenue = res.ProratedFixedCosts.Div(res.ContributionMarginRatio)
	if in.Revenue.GreaterThanOrEqual(res.BreakEvenRevenue) {
		res.Status = StatusAchieving
		res.Surplus = in.Revenue.Sub(res.BreakEvenRevenue)
	} else {
		res.Status = StatusDeficit
		res.Shortfall = res.BreakEvenRevenue.Sub(in.Revenue)
	}
	return res
}

// DaysInPeriod cuenta días calendario entre dos fechas, ambos extremos incluidos.
func DaysInPeriod(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	if e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}
