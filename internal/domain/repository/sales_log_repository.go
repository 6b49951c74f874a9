package repository

import (
	"context"
	"time"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/entity"
)

// SalesLogRepository puerto del registro de ventas mensual (LOG_VENTAS_YYYY_MM).
type SalesLogRepository interface {
	// ReceiptIDs devuelve los recibos ya registrados en el mes de month.
	ReceiptIDs(ctx context.Context, month time.Time) (map[string]bool, error)
	// Append agrega líneas al mes de month, creando la tabla si no existe.
	Append(ctx context.Context, month time.Time, lines []entity.SalesLine) error
	// Range lee las líneas con fecha local en [start, end], ambos días incluidos.
	Range(ctx context.Context, start, end time.Time) ([]entity.SalesLine, error)
}
