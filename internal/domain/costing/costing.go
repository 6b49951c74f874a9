// Package costing contiene las funciones puras del motor de costeo:
// costo unitario de compra, costo de recetas y precio sugerido.
package costing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/entity"
)

// MissingCostPolicy qué hacer con un insumo sin costo conocido al costear una receta.
type MissingCostPolicy string

const (
	MissingCostZero   MissingCostPolicy = "zero"   // el insumo se costea en 0
	MissingCostReject MissingCostPolicy = "reject" // ErrMissingCost
)

// ParseMissingCostPolicy valida el valor configurado.
func ParseMissingCostPolicy(s string) (MissingCostPolicy, error) {
	switch MissingCostPolicy(s) {
	case "", MissingCostZero:
		return MissingCostZero, nil
	case MissingCostReject:
		return MissingCostReject, nil
	}
	return "", domain.Configuration("política de costo faltante %q", s)
}

var hundred = decimal.NewFromInt(100)

// UnitCostFromPurchase costo por unidad base = precio total / cantidad base.
func UnitCostFromPurchase(totalPrice, canonicalQty decimal.Decimal) (decimal.Decimal, error) {
	if !canonicalQty.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: cantidad recibida %s", domain.ErrDivision, canonicalQty)
	}
	if totalPrice.IsNegative() {
		return decimal.Zero, domain.Validation("precio total negativo")
	}
	return totalPrice.Div(canonicalQty), nil
}

// LineCost aporte de una línea al costo de la receta.
type LineCost struct {
	Line     entity.RecipeLine
	UnitCost decimal.Decimal
	Cost     decimal.Decimal
	Missing  bool
}

// CostLines costea cada línea con los costos vigentes (por ID de insumo).
func CostLines(lines []entity.RecipeLine, unitCosts map[string]decimal.Decimal, policy MissingCostPolicy) ([]LineCost, decimal.Decimal, error) {
	out := make([]LineCost, 0, len(lines))
	total := decimal.Zero
	for _, l := range lines {
		c, ok := unitCosts[l.IngredientID]
		if !ok {
			if policy == MissingCostReject {
				return nil, decimal.Zero, fmt.Errorf("%w: %s (%s)", domain.ErrMissingCost, l.IngredientName, l.IngredientID)
			}
			c = decimal.Zero
		}
		cost := l.QuantityPerUnit.Mul(c)
		total = total.Add(cost)
		out = append(out, LineCost{Line: l, UnitCost: c, Cost: cost, Missing: !ok})
	}
	return out, total, nil
}

// RollUpRecipeCost Σ cantidad × costo unitario vigente.
// Las subrecetas aportan su costo promedio almacenado (el de su última producción).
func RollUpRecipeCost(lines []entity.RecipeLine, unitCosts map[string]decimal.Decimal, policy MissingCostPolicy) (decimal.Decimal, error) {
	_, total, err := CostLines(lines, unitCosts, policy)
	return total, err
}

// SuggestedPrice precio = costo / (1 - margen/100).
func SuggestedPrice(cost, targetMarginPct decimal.Decimal) (decimal.Decimal, error) {
	if targetMarginPct.GreaterThanOrEqual(hundred) {
		return decimal.Zero, fmt.Errorf("%w: margen objetivo %s%% debe ser menor a 100", domain.ErrDomain, targetMarginPct)
	}
	return cost.Div(decimal.NewFromInt(1).Sub(targetMarginPct.Div(hundred))), nil
}
