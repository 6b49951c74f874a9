// Package inventory aplica movimientos sobre el libro de insumos.
// Las funciones mutan el StockItem en memoria y devuelven el registro de kardex
// correspondiente; la persistencia y el sello de ID/fecha quedan en la capa de aplicación.
package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/costing"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/entity"
)

// Options políticas del libro.
type Options struct {
	AllowNegativeStock bool
	CostMode           PurchaseCostMode
}

// Ledger aplica movimientos a insumos según Options.
type Ledger struct {
	opts Options
}

// NewLedger construye el libro.
func NewLedger(opts Options) Ledger {
	if opts.CostMode == "" {
		opts.CostMode = CostModeLatest
	}
	return Ledger{opts: opts}
}

// Options devuelve las políticas vigentes.
func (l Ledger) Options() Options { return l.opts }

// ApplyPurchase registra una compra ya convertida a unidad base.
func (l Ledger) ApplyPurchase(item *entity.StockItem, canonicalQty, totalPrice decimal.Decimal) (entity.Movement, error) {
	unitCost, err := costing.UnitCostFromPurchase(totalPrice, canonicalQty)
	if err != nil {
		return entity.Movement{}, err
	}
	item.WeightedAverageUnitCost = l.opts.CostMode.NextAverage(item.StockQuantity, item.WeightedAverageUnitCost, canonicalQty, unitCost)
	item.LastPurchaseUnitCost = unitCost
	item.StockQuantity = item.StockQuantity.Add(canonicalQty)
	return entity.Movement{
		Kind:             entity.MovementPurchase,
		ItemID:           item.ID,
		ItemName:         item.Name,
		QuantityIn:       canonicalQty,
		ResultingBalance: item.StockQuantity,
		UnitCost:         unitCost,
	}, nil
}

// ApplyConsumption descuenta stock sin tocar costos.
// kind debe ser un movimiento de salida (venta, pérdida o producción).
func (l Ledger) ApplyConsumption(item *entity.StockItem, qty decimal.Decimal, kind entity.MovementKind) (entity.Movement, error) {
	switch kind {
	case entity.MovementSaleConsumption, entity.MovementLoss, entity.MovementProductionOut:
	default:
		return entity.Movement{}, domain.Validation("tipo de salida inválido %q", kind)
	}
	if !qty.IsPositive() {
		return entity.Movement{}, domain.Validation("cantidad a descontar debe ser > 0")
	}
	if err := l.checkStock(item, qty); err != nil {
		return entity.Movement{}, err
	}
	item.StockQuantity = item.StockQuantity.Sub(qty)
	return entity.Movement{
		Kind:             kind,
		ItemID:           item.ID,
		ItemName:         item.Name,
		QuantityOut:      qty,
		ResultingBalance: item.StockQuantity,
		UnitCost:         item.WeightedAverageUnitCost,
	}, nil
}

// ApplyAuditAdjustment fija el stock al conteo físico. Devuelve nil si no hay diferencia.
func (l Ledger) ApplyAuditAdjustment(item *entity.StockItem, physicalCount decimal.Decimal) (*entity.Movement, error) {
	if physicalCount.IsNegative() {
		return nil, domain.Validation("conteo físico negativo para %s", item.Name)
	}
	diff := physicalCount.Sub(item.StockQuantity)
	if diff.IsZero() {
		return nil, nil
	}
	mov := entity.Movement{
		ItemID:   item.ID,
		ItemName: item.Name,
		UnitCost: item.WeightedAverageUnitCost,
	}
	if diff.IsPositive() {
		mov.Kind = entity.MovementAuditSurplus
		mov.QuantityIn = diff
	} else {
		mov.Kind = entity.MovementAuditShortage
		mov.QuantityOut = diff.Neg()
	}
	item.StockQuantity = physicalCount
	mov.ResultingBalance = item.StockQuantity
	return &mov, nil
}

// ProductionInput un insumo consumido por unidad producida.
type ProductionInput struct {
	Item            *entity.StockItem
	QuantityPerUnit decimal.Decimal
}

// ProductionResult movimientos y costo del lote.
type ProductionResult struct {
	Consumed  []entity.Movement
	Output    entity.Movement
	BatchCost decimal.Decimal
	UnitCost  decimal.Decimal
}

// ApplyProductionCycle descuenta los insumos del lote y da entrada al producto
// con costo = costo del lote / cantidad producida. Valida todo antes de mutar.
func (l Ledger) ApplyProductionCycle(output *entity.StockItem, outputQty decimal.Decimal, inputs []ProductionInput) (ProductionResult, error) {
	if !outputQty.IsPositive() {
		return ProductionResult{}, fmt.Errorf("%w: cantidad producida %s", domain.ErrDivision, outputQty)
	}
	if len(inputs) == 0 {
		return ProductionResult{}, domain.Validation("la producción de %s no tiene insumos", output.Name)
	}
	// Un insumo repetido se acumula: un solo PRODUCTION_OUT por insumo y llamada.
	need := make(map[*entity.StockItem]decimal.Decimal)
	var order []*entity.StockItem
	for _, in := range inputs {
		if in.Item == nil {
			return ProductionResult{}, domain.Validation("insumo nulo en producción")
		}
		if in.Item.ID == output.ID {
			return ProductionResult{}, &domain.CycleError{Path: []string{output.ID, output.ID}}
		}
		if !in.QuantityPerUnit.IsPositive() {
			return ProductionResult{}, domain.Validation("cantidad por unidad de %s debe ser > 0", in.Item.Name)
		}
		if _, ok := need[in.Item]; !ok {
			order = append(order, in.Item)
		}
		need[in.Item] = need[in.Item].Add(in.QuantityPerUnit.Mul(outputQty))
	}
	for item, qty := range need {
		if err := l.checkStock(item, qty); err != nil {
			return ProductionResult{}, err
		}
	}

	res := ProductionResult{BatchCost: decimal.Zero}
	for _, item := range order {
		qty := need[item]
		res.BatchCost = res.BatchCost.Add(item.WeightedAverageUnitCost.Mul(qty))
		mov, err := l.ApplyConsumption(item, qty, entity.MovementProductionOut)
		if err != nil {
			return ProductionResult{}, err
		}
		res.Consumed = append(res.Consumed, mov)
	}

	res.UnitCost = res.BatchCost.Div(outputQty)
	output.WeightedAverageUnitCost = res.UnitCost
	output.StockQuantity = output.StockQuantity.Add(outputQty)
	res.Output = entity.Movement{
		Kind:             entity.MovementProductionIn,
		ItemID:           output.ID,
		ItemName:         output.Name,
		QuantityIn:       outputQty,
		ResultingBalance: output.StockQuantity,
		UnitCost:         res.UnitCost,
	}
	return res, nil
}

func (l Ledger) checkStock(item *entity.StockItem, qty decimal.Decimal) error {
	if l.opts.AllowNegativeStock {
		return nil
	}
	if item.StockQuantity.LessThan(qty) {
		return fmt.Errorf("%w: %s tiene %s, se requieren %s", domain.ErrInsufficientStock, item.Name, item.StockQuantity, qty)
	}
	return nil
}
