// Package rowstore define el almacén tabular (hoja de cálculo) que actúa como sistema de registro
// y los decoradores de reintento y caché que lo envuelven.
package rowstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain"
)

// ErrTableNotFound la tabla (hoja) no existe todavía.
var ErrTableNotFound = fmt.Errorf("%w: tabla", domain.ErrNotFound)

// CellUpdate una celda a escribir. Row es el índice de fila de datos (0 = primera fila tras el encabezado).
type CellUpdate struct {
	Row   int
	Col   int
	Value string
}

// Store operaciones mínimas sobre tablas con encabezado.
// Los índices de fila excluyen el encabezado.
type Store interface {
	// CreateTable crea la tabla con su encabezado; si ya existe no hace nada.
	CreateTable(ctx context.Context, table string, header []string) error
	ReadAll(ctx context.Context, table string) ([][]string, error)
	AppendRow(ctx context.Context, table string, row []string) error
	AppendRows(ctx context.Context, table string, rows [][]string) error
	UpdateCell(ctx context.Context, table string, row, col int, value string) error
	// UpdateCells escribe varias celdas en una sola llamada cuando el backend lo soporta.
	UpdateCells(ctx context.Context, table string, updates []CellUpdate) error
	// FindRowByKey busca key en la columna 0; devuelve -1 si no existe.
	FindRowByKey(ctx context.Context, table, key string) (int, error)
	DeleteRows(ctx context.Context, table string, rows []int) error
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marca un error del backend como reintentable (límite de cuota, red, 5xx).
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient indica si vale la pena reintentar.
func IsTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

func findKey(rows [][]string, key string) int {
	for i, r := range rows {
		if len(r) > 0 && r[0] == key {
			return i
		}
	}
	return -1
}
