package entity

import "github.com/shopspring/decimal"

// CategoryInternalProduction marca los insumos derivados de una subreceta finalizada.
const CategoryInternalProduction = "PRODUCCION_INTERNA"

// StockItem representa un insumo o preparación del inventario.
// StockQuantity siempre está en unidad base (gramos, mililitros o unidades).
// WeightedAverageUnitCost es la base de costeo de recetas; solo cambia con entradas.
type StockItem struct {
	ID                      string
	Name                    string
	Category                string
	PurchaseUnitLabel       string          // ej. "Kilo", "Bulto (25kg)"
	ConversionFactor        decimal.Decimal // unidades base por unidad de compra
	StockQuantity           decimal.Decimal
	LastPurchaseUnitCost    decimal.Decimal // costo por unidad base de la última compra
	WeightedAverageUnitCost decimal.Decimal
	ShrinkRate              decimal.Decimal // merma esperada [0,1), informativa
	Supplier                string
	MinStock                decimal.Decimal // umbral de alerta, en unidad base
}

// Valuation devuelve stock × costo promedio.
func (s *StockItem) Valuation() decimal.Decimal {
	return s.StockQuantity.Mul(s.WeightedAverageUnitCost)
}

// IsDerived indica si el insumo proviene de una subreceta.
func (s *StockItem) IsDerived() bool {
	return s.Category == CategoryInternalProduction
}

// BelowMinimum indica si el stock está en o por debajo del mínimo configurado.
func (s *StockItem) BelowMinimum() bool {
	return s.MinStock.IsPositive() && s.StockQuantity.LessThanOrEqual(s.MinStock)
}
