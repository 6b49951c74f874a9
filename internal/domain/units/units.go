// Package units convierte unidades de compra a la unidad base del inventario.
package units

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain"
)

// Category familia de medida de una compra.
type Category string

const (
	Weight Category = "WEIGHT" // base: gramos
	Volume Category = "VOLUME" // base: mililitros
	Count  Category = "COUNT"  // base: unidades
)

// Etiquetas de conteo.
const (
	LabelPackage = "Paquete"
	LabelUnit    = "Unidad"
)

// Unit una etiqueta de compra y su factor a unidad base.
type Unit struct {
	Label    string          `json:"label"`
	Category Category        `json:"category"`
	Factor   decimal.Decimal `json:"factor"`
}

// BaseUnit nombre de la unidad base por categoría.
var BaseUnit = map[Category]string{
	Weight: "g",
	Volume: "ml",
	Count:  "und",
}

var table = []Unit{
	{Label: "Kilo", Category: Weight, Factor: decimal.NewFromInt(1000)},
	{Label: "Libra", Category: Weight, Factor: decimal.NewFromInt(500)},
	{Label: "Arroba", Category: Weight, Factor: decimal.NewFromInt(12500)},
	{Label: "Bulto (50kg)", Category: Weight, Factor: decimal.NewFromInt(50000)},
	{Label: "Bulto (25kg)", Category: Weight, Factor: decimal.NewFromInt(25000)},
	{Label: "Gramo", Category: Weight, Factor: decimal.NewFromInt(1)},
	{Label: "Litro", Category: Volume, Factor: decimal.NewFromInt(1000)},
	{Label: "Galón", Category: Volume, Factor: decimal.NewFromInt(3785)},
	{Label: "Botella", Category: Volume, Factor: decimal.NewFromInt(750)},
	{Label: "Ml", Category: Volume, Factor: decimal.NewFromInt(1)},
	{Label: LabelUnit, Category: Count, Factor: decimal.NewFromInt(1)},
}

var index = func() map[Category]map[string]Unit {
	m := make(map[Category]map[string]Unit)
	for _, u := range table {
		if m[u.Category] == nil {
			m[u.Category] = make(map[string]Unit)
		}
		m[u.Category][normalize(u.Label)] = u
	}
	return m
}()

// Table devuelve la tabla de conversión (sin la etiqueta de paquete, que es paramétrica).
func Table() []Unit {
	out := make([]Unit, len(table))
	copy(out, table)
	return out
}

// PurchaseUnit describe cómo vende el proveedor.
// PackageSize y PackageCount solo aplican a la etiqueta "Paquete".
type PurchaseUnit struct {
	Category     Category
	Label        string
	PackageSize  decimal.Decimal // unidades por paquete
	PackageCount decimal.Decimal // paquetes por unidad de compra; 0 = 1
}

// Conversion resultado de resolver una unidad de compra.
type Conversion struct {
	Label    string
	Factor   decimal.Decimal
	BaseUnit string
}

// Resolve devuelve el factor a unidad base. Una etiqueta desconocida es un error de configuración.
func Resolve(pu PurchaseUnit) (Conversion, error) {
	byLabel, ok := index[pu.Category]
	if !ok {
		return Conversion{}, domain.Configuration("categoría de unidad desconocida %q", pu.Category)
	}
	if pu.Category == Count && normalize(pu.Label) == normalize(LabelPackage) {
		if !pu.PackageSize.IsPositive() {
			return Conversion{}, domain.Validation("el paquete debe tener unidades > 0")
		}
		count := pu.PackageCount
		if count.IsZero() {
			count = decimal.NewFromInt(1)
		}
		if count.IsNegative() {
			return Conversion{}, domain.Validation("cantidad de paquetes negativa")
		}
		factor := pu.PackageSize.Mul(count)
		return Conversion{
			Label:    packageLabel(pu.PackageSize),
			Factor:   factor,
			BaseUnit: BaseUnit[Count],
		}, nil
	}
	u, ok := byLabel[normalize(pu.Label)]
	if !ok {
		return Conversion{}, domain.Configuration("unidad %q no reconocida para %s", pu.Label, pu.Category)
	}
	return Conversion{Label: u.Label, Factor: u.Factor, BaseUnit: BaseUnit[u.Category]}, nil
}

// Canonical cantidad en unidad base = factor × cantidad comprada.
func Canonical(factor, purchasedQty decimal.Decimal) decimal.Decimal {
	return factor.Mul(purchasedQty)
}

func packageLabel(size decimal.Decimal) string {
	return LabelPackage + " x" + size.String()
}

// normalize quita tildes, espacios y paréntesis: "Bulto (25kg)" y "bulto25kg" coinciden.
func normalize(label string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, label)
	if err != nil {
		s = label
	}
	s = strings.ToLower(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '(' || r == ')' || r == '_' || r == '-' {
			return -1
		}
		return r
	}, s)
}
