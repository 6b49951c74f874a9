package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/entity"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/inventory"
)

// PurchaseUnitInput unidad de compra tal como la vende el proveedor.
// PackageSize y PackageCount solo aplican a la etiqueta "Paquete".
type PurchaseUnitInput struct {
	Category     string          `json:"unit_category" validate:"required,oneof=WEIGHT VOLUME COUNT"`
	Label        string          `json:"unit_label" validate:"required"`
	PackageSize  decimal.Decimal `json:"package_size"`
	PackageCount decimal.Decimal `json:"package_count"`
}

// CreateStockItemRequest body para POST /api/stock-items.
type CreateStockItemRequest struct {
	ID         string          `json:"id,omitempty"`
	Name       string          `json:"name" validate:"required"`
	Category   string          `json:"category"`
	Supplier   string          `json:"supplier"`
	ShrinkRate decimal.Decimal `json:"shrink_rate"`
	MinStock   decimal.Decimal `json:"min_stock"`
	PurchaseUnitInput
}

// PurchaseRequest body para POST /api/inventory/purchases.
// Si el insumo no existe se crea con ItemName.
type PurchaseRequest struct {
	ItemID       string          `json:"item_id" validate:"required"`
	ItemName     string          `json:"item_name"`
	ItemCategory string          `json:"item_category"`
	Supplier     string          `json:"supplier"`
	Quantity     decimal.Decimal `json:"quantity"`    // en unidades de compra
	TotalPrice   decimal.Decimal `json:"total_price"` // precio pagado por toda la compra
	Responsible  string          `json:"responsible" validate:"required"`
	Date         *time.Time      `json:"date,omitempty"`
	PurchaseUnitInput
}

// ConsumptionRequest body para POST /api/inventory/consumptions. Quantity en unidad base.
type ConsumptionRequest struct {
	ItemID      string          `json:"item_id" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	Detail      string          `json:"detail"`
	Responsible string          `json:"responsible" validate:"required"`
	Date        *time.Time      `json:"date,omitempty"`
}

// LossRequest campos del formulario multipart de POST /api/inventory/losses.
// El archivo de evidencia viaja aparte en el campo "evidence".
type LossRequest struct {
	ItemID      string          `json:"item_id" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	Reason      string          `json:"reason" validate:"required"`
	Responsible string          `json:"responsible" validate:"required"`
	Date        *time.Time      `json:"date,omitempty"`
}

// AuditCount conteo físico de un insumo, en unidad base.
type AuditCount struct {
	ItemID        string          `json:"item_id" validate:"required"`
	PhysicalCount decimal.Decimal `json:"physical_count"`
}

// AuditRequest body para POST /api/inventory/audits.
type AuditRequest struct {
	Responsible string       `json:"responsible" validate:"required"`
	Counts      []AuditCount `json:"counts" validate:"required,min=1,dive"`
	Date        *time.Time   `json:"date,omitempty"`
}

// ProductionRequest body para POST /api/inventory/production.
// Los insumos salen de la subreceta del producto.
type ProductionRequest struct {
	OutputItemID string          `json:"output_item_id" validate:"required"`
	Quantity     decimal.Decimal `json:"quantity"`
	Responsible  string          `json:"responsible" validate:"required"`
	Date         *time.Time      `json:"date,omitempty"`
}

// StockItemDTO insumo en respuestas.
type StockItemDTO struct {
	ID                      string          `json:"id"`
	Name                    string          `json:"name"`
	Category                string          `json:"category"`
	PurchaseUnitLabel       string          `json:"purchase_unit_label"`
	ConversionFactor        decimal.Decimal `json:"conversion_factor"`
	StockQuantity           decimal.Decimal `json:"stock_quantity"`
	LastPurchaseUnitCost    decimal.Decimal `json:"last_purchase_unit_cost"`
	WeightedAverageUnitCost decimal.Decimal `json:"weighted_average_unit_cost"`
	ShrinkRate              decimal.Decimal `json:"shrink_rate"`
	Supplier                string          `json:"supplier"`
	MinStock                decimal.Decimal `json:"min_stock"`
	Valuation               decimal.Decimal `json:"valuation"`
}

// FromStockItem mapea la entidad.
func FromStockItem(it *entity.StockItem) StockItemDTO {
	return StockItemDTO{
		ID:                      it.ID,
		Name:                    it.Name,
		Category:                it.Category,
		PurchaseUnitLabel:       it.PurchaseUnitLabel,
		ConversionFactor:        it.ConversionFactor,
		StockQuantity:           it.StockQuantity,
		LastPurchaseUnitCost:    it.LastPurchaseUnitCost,
		WeightedAverageUnitCost: it.WeightedAverageUnitCost,
		ShrinkRate:              it.ShrinkRate,
		Supplier:                it.Supplier,
		MinStock:                it.MinStock,
		Valuation:               it.Valuation(),
	}
}

// MovementDTO registro del kardex.
type MovementDTO struct {
	ID               string          `json:"id"`
	Date             time.Time       `json:"date"`
	Kind             string          `json:"kind"`
	ItemID           string          `json:"item_id"`
	ItemName         string          `json:"item_name"`
	QuantityIn       decimal.Decimal `json:"quantity_in"`
	QuantityOut      decimal.Decimal `json:"quantity_out"`
	ResultingBalance decimal.Decimal `json:"resulting_balance"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	Detail           string          `json:"detail,omitempty"`
	Responsible      string          `json:"responsible,omitempty"`
}

// FromMovements mapea movimientos del kardex.
func FromMovements(movs []entity.Movement) []MovementDTO {
	out := make([]MovementDTO, 0, len(movs))
	for _, m := range movs {
		out = append(out, MovementDTO{
			ID:               m.ID,
			Date:             m.Date,
			Kind:             string(m.Kind),
			ItemID:           m.ItemID,
			ItemName:         m.ItemName,
			QuantityIn:       m.QuantityIn,
			QuantityOut:      m.QuantityOut,
			ResultingBalance: m.ResultingBalance,
			UnitCost:         m.UnitCost,
			Detail:           m.Detail,
			Responsible:      m.Responsible,
		})
	}
	return out
}

// OperationResponse saldos y movimientos resultantes de una operación.
type OperationResponse struct {
	Items     []StockItemDTO `json:"items"`
	Movements []MovementDTO  `json:"movements"`
	Warnings  []string       `json:"warnings,omitempty"`
}

// NewOperationResponse arma la respuesta de una operación de inventario.
func NewOperationResponse(items []*entity.StockItem, movs []entity.Movement, warnings []string) OperationResponse {
	res := OperationResponse{
		Items:     make([]StockItemDTO, 0, len(items)),
		Movements: FromMovements(movs),
		Warnings:  warnings,
	}
	for _, it := range items {
		res.Items = append(res.Items, FromStockItem(it))
	}
	return res
}

// ReconciliationDTO saldo del libro contra saldo reconstruido desde el kardex.
type ReconciliationDTO struct {
	ItemID          string          `json:"item_id"`
	LedgerBalance   decimal.Decimal `json:"ledger_balance"`
	ReplayedBalance decimal.Decimal `json:"replayed_balance"`
	Difference      decimal.Decimal `json:"difference"`
	Movements       int             `json:"movements"`
	Consistent      bool            `json:"consistent"`
}

// FromReconciliation mapea el resultado de la conciliación.
func FromReconciliation(r inventory.Reconciliation) ReconciliationDTO {
	return ReconciliationDTO(r)
}

// ValuationLineDTO valor de un insumo.
type ValuationLineDTO struct {
	ItemID                  string          `json:"item_id"`
	ItemName                string          `json:"item_name"`
	Category                string          `json:"category"`
	StockQuantity           decimal.Decimal `json:"stock_quantity"`
	WeightedAverageUnitCost decimal.Decimal `json:"weighted_average_unit_cost"`
	Value                   decimal.Decimal `json:"value"`
}

// ReplenishmentSuggestionDTO insumo en o bajo su stock mínimo, con la cantidad sugerida de pedido.
type ReplenishmentSuggestionDTO struct {
	ItemID             string          `json:"item_id"`
	ItemName           string          `json:"item_name"`
	Supplier           string          `json:"supplier,omitempty"`
	CurrentStock       decimal.Decimal `json:"current_stock"`
	MinStock           decimal.Decimal `json:"min_stock"`
	IdealStock         decimal.Decimal `json:"ideal_stock"`          // MinStock * 1.5
	SuggestedOrderQty  decimal.Decimal `json:"suggested_order_qty"`  // IdealStock - CurrentStock
	UnitCost           decimal.Decimal `json:"unit_cost"`            // costo promedio
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * UnitCost
	Priority           int             `json:"priority"`             // 1 = más urgente
}

// ValuationDTO inventario valorizado a costo promedio con alertas de stock.
type ValuationDTO struct {
	GeneratedAt time.Time                    `json:"generated_at"`
	Lines       []ValuationLineDTO           `json:"lines"`
	Total       decimal.Decimal              `json:"total"`
	Alerts      []ReplenishmentSuggestionDTO `json:"alerts"`
}
