package repository

import (
	"context"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/entity"
)

// StockItemRepository define el puerto de persistencia de insumos (DB_INSUMOS).
type StockItemRepository interface {
	List(ctx context.Context) ([]*entity.StockItem, error)
	// GetByID devuelve domain.ErrNotFound si el insumo no existe.
	GetByID(ctx context.Context, id string) (*entity.StockItem, error)
	// Create devuelve domain.ErrDuplicate si el ID ya existe.
	Create(ctx context.Context, item *entity.StockItem) error
	// SaveBalance escribe stock y costos del insumo en una sola actualización por lote.
	SaveBalance(ctx context.Context, item *entity.StockItem) error
	// SaveBalances escribe varios insumos en una sola llamada al almacén.
	SaveBalances(ctx context.Context, items []*entity.StockItem) error
}
