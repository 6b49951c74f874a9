package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// FixedCostEntry gasto fijo mensual (arriendo, nómina, servicios...).
type FixedCostEntry struct {
	Concept       string
	MonthlyAmount decimal.Decimal
	DueDay        int
	Frequency     string
}

// BusinessConfig parámetros de negocio leídos de DB_CONFIG, ya tipados.
type BusinessConfig struct {
	FixedCosts []FixedCostEntry
	LaunchDate *time.Time // antes de esta fecha no se permiten movimientos
	Values     map[string]string
}

// MonthlyFixedCosts suma los gastos fijos mensuales.
func (c BusinessConfig) MonthlyFixedCosts() decimal.Decimal {
	total := decimal.Zero
	for _, f := range c.FixedCosts {
		total = total.Add(f.MonthlyAmount)
	}
	return total
}

// Locked indica si una fecha cae antes de la fecha de lanzamiento.
func (c BusinessConfig) Locked(at time.Time) bool {
	return c.LaunchDate != nil && at.Before(*c.LaunchDate)
}
