package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind tipo de movimiento del kardex.
type MovementKind string

// Tipos de movimiento de inventario.
const (
	MovementPurchase        MovementKind = "PURCHASE"         // compra a proveedor
	MovementSaleConsumption MovementKind = "SALE_CONSUMPTION" // descargue por venta de platos
	MovementLoss            MovementKind = "LOSS"             // pérdida / merma con evidencia
	MovementAuditSurplus    MovementKind = "AUDIT_SURPLUS"    // sobrante en conteo físico
	MovementAuditShortage   MovementKind = "AUDIT_SHORTAGE"   // faltante en conteo físico
	MovementProductionIn    MovementKind = "PRODUCTION_IN"    // entrada de producción interna
	MovementProductionOut   MovementKind = "PRODUCTION_OUT"   // insumo consumido en producción
)

var movementKinds = map[MovementKind]bool{
	MovementPurchase: true, MovementSaleConsumption: true, MovementLoss: true,
	MovementAuditSurplus: true, MovementAuditShortage: true,
	MovementProductionIn: true, MovementProductionOut: true,
}

// Valid indica si el tipo es conocido.
func (k MovementKind) Valid() bool { return movementKinds[k] }

// Inbound indica si el movimiento recalcula el costo promedio.
func (k MovementKind) Inbound() bool {
	return k == MovementPurchase || k == MovementProductionIn
}

// Movement es un registro inmutable del kardex.
// Por convención solo uno de QuantityIn / QuantityOut es distinto de cero.
type Movement struct {
	ID               string
	Date             time.Time // fecha y hora local del negocio
	Kind             MovementKind
	ItemID           string
	ItemName         string // desnormalizado, solo para mostrar
	QuantityIn       decimal.Decimal
	QuantityOut      decimal.Decimal
	ResultingBalance decimal.Decimal
	UnitCost         decimal.Decimal
	Detail           string
	Responsible      string
}

// Net devuelve QuantityIn - QuantityOut.
func (m Movement) Net() decimal.Decimal {
	return m.QuantityIn.Sub(m.QuantityOut)
}
