package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain"
)

// CostCalculator implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
func CostCalculator(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	sum := stockActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return costoEntrada
	}
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return num.Div(sum)
}

// PurchaseCostMode cómo se recalcula el costo promedio al comprar.
type PurchaseCostMode string

const (
	// CostModeLatest: el costo promedio toma el costo de la última compra (comportamiento histórico).
	CostModeLatest PurchaseCostMode = "latest"
	// CostModeWeighted: mezcla ponderada con el stock existente.
	CostModeWeighted PurchaseCostMode = "weighted"
)

// ParsePurchaseCostMode valida el valor configurado.
func ParsePurchaseCostMode(s string) (PurchaseCostMode, error) {
	switch PurchaseCostMode(s) {
	case "", CostModeLatest:
		return CostModeLatest, nil
	case CostModeWeighted:
		return CostModeWeighted, nil
	}
	return "", domain.Configuration("modo de costo de compra %q", s)
}

// NextAverage costo promedio resultante de recibir qty a unitCost.
// Con stock negativo el modo ponderado trata el stock previo como cero.
func (m PurchaseCostMode) NextAverage(stock, currentAvg, qty, unitCost decimal.Decimal) decimal.Decimal {
	if m != CostModeWeighted {
		return unitCost
	}
	if stock.IsNegative() {
		stock = decimal.Zero
	}
	return CostCalculator(stock, currentAvg, qty, unitCost)
}
