// Package tabular implementa los repositorios del dominio sobre rowstore.Store.
// Cada tabla tiene un encabezado fijo; las celdas numéricas se guardan como texto decimal.
package tabular

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/rowstore"
)

// Nombres de tabla.
const (
	TableStockItems = "DB_INSUMOS"
	TableMovements  = "KARDEX_MOVIMIENTOS"
	TableDishes     = "DB_RECETAS"
	TableSubRecipes = "DB_SUBRECETAS"
	TableConfig     = "DB_CONFIG"
	salesPrefix     = "LOG_VENTAS_"
)

// Encabezados.
var (
	StockItemHeader = []string{"ID", "NOMBRE", "CATEGORIA", "UNIDAD_COMPRA", "FACTOR_CONVERSION", "STOCK",
		"COSTO_ULTIMA_COMPRA", "COSTO_PROMEDIO", "MERMA", "PROVEEDOR", "STOCK_MINIMO"}
	MovementHeader = []string{"ID", "FECHA", "HORA", "TIPO", "ID_INSUMO", "INSUMO", "ENTRADA", "SALIDA",
		"SALDO", "COSTO_UNITARIO", "DETALLE", "RESPONSABLE"}
	RecipeHeader = []string{"ID_DUENO", "DUENO", "ID_INSUMO", "INSUMO", "CANTIDAD"}
	SalesHeader  = []string{"RECIBO", "FECHA", "HORA", "ID_ITEM", "ITEM", "CANTIDAD", "MONTO", "METODO_PAGO"}
	ConfigHeader = []string{"CLAVE", "VALOR"}
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// SalesTable nombre de la tabla de ventas del mes de t.
func SalesTable(t time.Time) string {
	return fmt.Sprintf("%s%04d_%02d", salesPrefix, t.Year(), int(t.Month()))
}

// base comparte el almacén y la creación perezosa de tablas entre repositorios.
type base struct {
	store   rowstore.Store
	loc     *time.Location
	ensured sync.Map
}

func newBase(store rowstore.Store, loc *time.Location) *base {
	if loc == nil {
		loc = time.UTC
	}
	return &base{store: store, loc: loc}
}

// ensure crea la tabla la primera vez que se usa en este proceso.
func (b *base) ensure(ctx context.Context, table string, header []string) error {
	if _, ok := b.ensured.Load(table); ok {
		return nil
	}
	if err := b.store.CreateTable(ctx, table, header); err != nil {
		return fmt.Errorf("crear tabla %s: %w", table, err)
	}
	b.ensured.Store(table, true)
	return nil
}

// readAll asegura la tabla y la lee completa.
func (b *base) readAll(ctx context.Context, table string, header []string) ([][]string, error) {
	if err := b.ensure(ctx, table, header); err != nil {
		return nil, err
	}
	rows, err := b.store.ReadAll(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("leer %s: %w", table, err)
	}
	return rows, nil
}

// ParseDecimal interpreta una celda numérica. Vacío = 0; acepta coma decimal.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err == nil {
		return d, nil
	}
	return decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
}

func formatDecimal(d decimal.Decimal) string {
	return d.String()
}

// cell devuelve la celda i o "" si la fila es más corta.
func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

// rowParser acumula el primer error de conversión de una fila.
type rowParser struct {
	table string
	row   []string
	index int
	err   error
}

func (p *rowParser) str(col int) string { return cell(p.row, col) }

func (p *rowParser) dec(col int, name string) decimal.Decimal {
	if p.err != nil {
		return decimal.Zero
	}
	d, err := ParseDecimal(cell(p.row, col))
	if err != nil {
		p.err = fmt.Errorf("%s fila %d: %s=%q no es numérico", p.table, p.index+2, name, cell(p.row, col))
	}
	return d
}
