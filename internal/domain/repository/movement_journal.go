package repository

import (
	"context"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/entity"
)

// MovementJournal puerto del kardex (KARDEX_MOVIMIENTOS). Solo se agrega, nunca se edita.
type MovementJournal interface {
	// Record agrega los movimientos en una sola escritura.
	Record(ctx context.Context, movs ...entity.Movement) error
	// Tail devuelve los últimos n movimientos, el más reciente al final.
	Tail(ctx context.Context, n int) ([]entity.Movement, error)
	FilterByItem(ctx context.Context, itemID string) ([]entity.Movement, error)
}
