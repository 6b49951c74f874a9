package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesLine es una línea de recibo del punto de venta, ya en hora local.
type SalesLine struct {
	ReceiptID     string
	Date          time.Time
	ItemID        string
	ItemName      string
	Quantity      decimal.Decimal
	Amount        decimal.Decimal
	PaymentMethod string
}

// SalesLineAggregate ventas de un plato en un día.
type SalesLineAggregate struct {
	DishID       string
	DishName     string
	Date         time.Time
	QuantitySold decimal.Decimal
	GrossAmount  decimal.Decimal
}

// AggregateSales agrupa líneas de venta por plato y día (orden de primera aparición).
func AggregateSales(lines []SalesLine) []SalesLineAggregate {
	type key struct {
		dish string
		day  string
	}
	idx := make(map[key]int)
	var out []SalesLineAggregate
	for _, l := range lines {
		day := time.Date(l.Date.Year(), l.Date.Month(), l.Date.Day(), 0, 0, 0, 0, l.Date.Location())
		k := key{dish: l.ItemID, day: day.Format("2006-01-02")}
		i, ok := idx[k]
		if !ok {
			idx[k] = len(out)
			out = append(out, SalesLineAggregate{DishID: l.ItemID, DishName: l.ItemName, Date: day})
			i = len(out) - 1
		}
		out[i].QuantitySold = out[i].QuantitySold.Add(l.Quantity)
		out[i].GrossAmount = out[i].GrossAmount.Add(l.Amount)
	}
	return out
}
