package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Receipt recibo del punto de venta. CreatedAt viene en UTC.
type Receipt struct {
	ID            string
	CreatedAt     time.Time
	PaymentMethod string
	Lines         []ReceiptLine
}

// ReceiptLine línea del recibo: Amount es el total de la línea.
type ReceiptLine struct {
	ItemID   string
	ItemName string
	Quantity decimal.Decimal
	Amount   decimal.Decimal
}

// SalesLines aplana el recibo en líneas de venta con la fecha en loc.
func (r Receipt) SalesLines(loc *time.Location) []SalesLine {
	local := r.CreatedAt.In(loc)
	out := make([]SalesLine, 0, len(r.Lines))
	for _, l := range r.Lines {
		out = append(out, SalesLine{
			ReceiptID:     r.ID,
			Date:          local,
			ItemID:        l.ItemID,
			ItemName:      l.ItemName,
			Quantity:      l.Quantity,
			Amount:        l.Amount,
			PaymentMethod: r.PaymentMethod,
		})
	}
	return out
}
