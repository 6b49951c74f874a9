package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/dto"
)

var idealStockFactor = decimal.RequireFromString("1.5")

// Valuation valoriza el inventario a costo promedio (stock × costo) y lista los insumos
// en o bajo su stock mínimo con la cantidad sugerida de pedido.
func (uc *UseCase) Valuation(ctx context.Context) (*dto.ValuationDTO, error) {
	items, err := uc.items.List(ctx)
	if err != nil {
		return nil, err
	}
	out := &dto.ValuationDTO{
		GeneratedAt: uc.now().In(uc.loc),
		Lines:       make([]dto.ValuationLineDTO, 0, len(items)),
		Total:       decimal.Zero,
		Alerts:      []dto.ReplenishmentSuggestionDTO{},
	}
	for _, it := range items {
		value := it.Valuation()
		out.Total = out.Total.Add(value)
		out.Lines = append(out.Lines, dto.ValuationLineDTO{
			ItemID:                  it.ID,
			ItemName:                it.Name,
			Category:                it.Category,
			StockQuantity:           it.StockQuantity,
			WeightedAverageUnitCost: it.WeightedAverageUnitCost,
			Value:                   value,
		})
		if !it.BelowMinimum() {
			continue
		}
		ideal := it.MinStock.Mul(idealStockFactor)
		suggested := ideal.Sub(it.StockQuantity)
		if suggested.IsNegative() {
			suggested = decimal.Zero
		}
		out.Alerts = append(out.Alerts, dto.ReplenishmentSuggestionDTO{
			ItemID:             it.ID,
			ItemName:           it.Name,
			Supplier:           it.Supplier,
			CurrentStock:       it.StockQuantity,
			MinStock:           it.MinStock,
			IdealStock:         ideal,
			SuggestedOrderQty:  suggested,
			UnitCost:           it.WeightedAverageUnitCost,
			EstimatedOrderCost: suggested.Mul(it.WeightedAverageUnitCost),
		})
	}

	// Primero el mayor déficit relativo (stock / mínimo), luego el pedido más costoso.
	sort.SliceStable(out.Alerts, func(i, j int) bool {
		a, b := out.Alerts[i], out.Alerts[j]
		ra := a.CurrentStock.Div(a.MinStock)
		rb := b.CurrentStock.Div(b.MinStock)
		if !ra.Equal(rb) {
			return ra.LessThan(rb)
		}
		return a.EstimatedOrderCost.GreaterThan(b.EstimatedOrderCost)
	})
	for i := range out.Alerts {
		out.Alerts[i].Priority = i + 1
	}
	return out, nil
}
