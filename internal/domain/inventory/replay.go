package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/entity"
)

// Reconciliation compara el saldo del libro con el saldo reconstruido desde el kardex.
type Reconciliation struct {
	ItemID          string
	LedgerBalance   decimal.Decimal
	ReplayedBalance decimal.Decimal
	Difference      decimal.Decimal // libro - kardex
	Movements       int
	Consistent      bool
}

// Replay suma entradas - salidas en orden cronológico (estable ante empates).
func Replay(movs []entity.Movement) decimal.Decimal {
	sorted := make([]entity.Movement, len(movs))
	copy(sorted, movs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	balance := decimal.Zero
	for _, m := range sorted {
		balance = balance.Add(m.Net())
	}
	return balance
}

// Reconcile reconstruye el saldo de un insumo y lo compara con el libro.
func Reconcile(item *entity.StockItem, movs []entity.Movement) Reconciliation {
	var own []entity.Movement
	for _, m := range movs {
		if m.ItemID == item.ID {
			own = append(own, m)
		}
	}
	replayed := Replay(own)
	diff := item.StockQuantity.Sub(replayed)
	return Reconciliation{
		ItemID:          item.ID,
		LedgerBalance:   item.StockQuantity,
		ReplayedBalance: replayed,
		Difference:      diff,
		Movements:       len(own),
		Consistent:      diff.IsZero(),
	}
}
