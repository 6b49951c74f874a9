package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/profitability"
)

// PeriodQuery rango de fechas locales, ambos días incluidos.
type PeriodQuery struct {
	StartDate string `query:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `query:"end_date" validate:"required,datetime=2006-01-02"`
}

// MenuMatrixDTO matriz de menú del periodo.
type MenuMatrixDTO struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	profitability.MenuMatrix
}

// FixedCostDTO gasto fijo mensual.
type FixedCostDTO struct {
	Concept       string          `json:"concept"`
	MonthlyAmount decimal.Decimal `json:"monthly_amount"`
	DueDay        int             `json:"due_day"`
	Frequency     string          `json:"frequency"`
}

// BreakEvenDTO punto de equilibrio del periodo.
type BreakEvenDTO struct {
	StartDate  string         `json:"start_date"`
	EndDate    string         `json:"end_date"`
	Days       int            `json:"days"`
	FixedCosts []FixedCostDTO `json:"fixed_costs"`
	profitability.BreakEvenResult
}

// SyncSalesRequest body para POST /api/sales/sync. Start y End en UTC (RFC 3339).
type SyncSalesRequest struct {
	Start          time.Time `json:"start" validate:"required"`
	End            time.Time `json:"end" validate:"required,gtfield=Start"`
	ApplyInventory *bool     `json:"apply_inventory,omitempty"`
}

// SyncSalesResultDTO resumen de una sincronización con el punto de venta.
type SyncSalesResultDTO struct {
	ReceiptsFetched  int      `json:"receipts_fetched"`
	ReceiptsSkipped  int      `json:"receipts_skipped"`
	LinesAppended    int      `json:"lines_appended"`
	Tables           []string `json:"tables"`
	InventoryApplied bool     `json:"inventory_applied"`
	Warnings         []string `json:"warnings,omitempty"`
}
