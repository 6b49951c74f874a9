package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/dto"
)

// Columnas reconocidas del archivo exportado desde la hoja de compras.
const (
	colID           = "ID"
	colName         = "NOMBRE"
	colCategory     = "CATEGORIA"
	colUnitCategory = "TIPO_UNIDAD"
	colUnit         = "UNIDAD_COMPRA"
	colPackageSize  = "TAMANO_PAQUETE"
	colPackageCount = "UNIDADES_PAQUETE"
	colSupplier     = "PROVEEDOR"
	colShrink       = "MERMA"
	colMinStock     = "STOCK_MINIMO"
)

var unitCategories = map[string]string{
	"WEIGHT": "WEIGHT", "PESO": "WEIGHT",
	"VOLUME": "VOLUME", "VOLUMEN": "VOLUME",
	"COUNT": "COUNT", "CONTEO": "COUNT", "UNIDAD": "COUNT",
}

// parseItems lee el CSV. Excel en español exporta en Windows-1252 con ';' como separador.
func parseItems(r io.Reader, windows1252 bool, sep rune) ([]dto.CreateStockItemRequest, error) {
	if windows1252 {
		r = transform.NewReader(r, charmap.Windows1252.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("encabezado: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, req := range []string{colName, colUnitCategory, colUnit} {
		if _, ok := cols[req]; !ok {
			return nil, fmt.Errorf("falta la columna %s", req)
		}
	}

	var out []dto.CreateStockItemRequest
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		get := func(col string) string {
			i, ok := cols[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		if get(colName) == "" {
			continue
		}
		cat, ok := unitCategories[strings.ToUpper(get(colUnitCategory))]
		if !ok {
			return nil, fmt.Errorf("línea %d: tipo de unidad %q", line, get(colUnitCategory))
		}
		item := dto.CreateStockItemRequest{
			ID:       get(colID),
			Name:     get(colName),
			Category: get(colCategory),
			Supplier: get(colSupplier),
			PurchaseUnitInput: dto.PurchaseUnitInput{
				Category: cat,
				Label:    get(colUnit),
			},
		}
		for col, dst := range map[string]*decimal.Decimal{
			colPackageSize:  &item.PackageSize,
			colPackageCount: &item.PackageCount,
			colShrink:       &item.ShrinkRate,
			colMinStock:     &item.MinStock,
		} {
			v, err := parseNumber(get(col))
			if err != nil {
				return nil, fmt.Errorf("línea %d, %s: %w", line, col, err)
			}
			*dst = v
		}
		out = append(out, item)
	}
	return out, nil
}

// parseNumber acepta coma decimal ("0,05") y celdas vacías como cero.
func parseNumber(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
}
