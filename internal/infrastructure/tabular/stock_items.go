package tabular

import (
	"context"
	"fmt"
	"time"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/entity"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/repository"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/rowstore"
)

const (
	colItemID = iota
	colItemName
	colItemCategory
	colItemUnit
	colItemFactor
	colItemStock
	colItemLastCost
	colItemAvgCost
	colItemShrink
	colItemSupplier
	colItemMinStock
)

// StockItemRepository insumos en DB_INSUMOS.
type StockItemRepository struct {
	*base
}

var _ repository.StockItemRepository = (*StockItemRepository)(nil)

// NewStockItemRepository construye el repositorio.
func NewStockItemRepository(store rowstore.Store, loc *time.Location) *StockItemRepository {
	return &StockItemRepository{base: newBase(store, loc)}
}

func (r *StockItemRepository) List(ctx context.Context) ([]*entity.StockItem, error) {
	rows, err := r.readAll(ctx, TableStockItems, StockItemHeader)
	if err != nil {
		return nil, err
	}
	items := make([]*entity.StockItem, 0, len(rows))
	for i, row := range rows {
		if cell(row, colItemID) == "" {
			continue
		}
		it, err := decodeStockItem(row, i)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

func (r *StockItemRepository) GetByID(ctx context.Context, id string) (*entity.StockItem, error) {
	rows, err := r.readAll(ctx, TableStockItems, StockItemHeader)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if cell(row, colItemID) == id {
			return decodeStockItem(row, i)
		}
	}
	return nil, fmt.Errorf("%w: insumo %s", domain.ErrNotFound, id)
}

func (r *StockItemRepository) Create(ctx context.Context, item *entity.StockItem) error {
	if err := r.ensure(ctx, TableStockItems, StockItemHeader); err != nil {
		return err
	}
	idx, err := r.store.FindRowByKey(ctx, TableStockItems, item.ID)
	if err != nil {
		return err
	}
	if idx >= 0 {
		return fmt.Errorf("%w: insumo %s", domain.ErrDuplicate, item.ID)
	}
	return r.store.AppendRow(ctx, TableStockItems, EncodeStockItem(item))
}

func (r *StockItemRepository) SaveBalance(ctx context.Context, item *entity.StockItem) error {
	return r.SaveBalances(ctx, []*entity.StockItem{item})
}

// SaveBalances localiza las filas con una sola lectura y escribe stock y costos en un solo lote.
func (r *StockItemRepository) SaveBalances(ctx context.Context, items []*entity.StockItem) error {
	if len(items) == 0 {
		return nil
	}
	rows, err := r.readAll(ctx, TableStockItems, StockItemHeader)
	if err != nil {
		return err
	}
	index := make(map[string]int, len(rows))
	for i, row := range rows {
		if id := cell(row, colItemID); id != "" {
			if _, dup := index[id]; !dup {
				index[id] = i
			}
		}
	}
	updates := make([]rowstore.CellUpdate, 0, 3*len(items))
	for _, it := range items {
		i, ok := index[it.ID]
		if !ok {
			return fmt.Errorf("%w: insumo %s", domain.ErrNotFound, it.ID)
		}
		updates = append(updates,
			rowstore.CellUpdate{Row: i, Col: colItemStock, Value: formatDecimal(it.StockQuantity)},
			rowstore.CellUpdate{Row: i, Col: colItemLastCost, Value: formatDecimal(it.LastPurchaseUnitCost)},
			rowstore.CellUpdate{Row: i, Col: colItemAvgCost, Value: formatDecimal(it.WeightedAverageUnitCost)},
		)
	}
	return r.store.UpdateCells(ctx, TableStockItems, updates)
}

func decodeStockItem(row []string, index int) (*entity.StockItem, error) {
	p := &rowParser{table: TableStockItems, row: row, index: index}
	it := &entity.StockItem{
		ID:                      p.str(colItemID),
		Name:                    p.str(colItemName),
		Category:                p.str(colItemCategory),
		PurchaseUnitLabel:       p.str(colItemUnit),
		ConversionFactor:        p.dec(colItemFactor, "FACTOR_CONVERSION"),
		StockQuantity:           p.dec(colItemStock, "STOCK"),
		LastPurchaseUnitCost:    p.dec(colItemLastCost, "COSTO_ULTIMA_COMPRA"),
		WeightedAverageUnitCost: p.dec(colItemAvgCost, "COSTO_PROMEDIO"),
		ShrinkRate:              p.dec(colItemShrink, "MERMA"),
		Supplier:                p.str(colItemSupplier),
		MinStock:                p.dec(colItemMinStock, "STOCK_MINIMO"),
	}
	if p.err != nil {
		return nil, p.err
	}
	return it, nil
}

// EncodeStockItem fila de DB_INSUMOS para un insumo (usada también por la importación CSV).
func EncodeStockItem(it *entity.StockItem) []string {
	return []string{
		it.ID,
		it.Name,
		it.Category,
		it.PurchaseUnitLabel,
		formatDecimal(it.ConversionFactor),
		formatDecimal(it.StockQuantity),
		formatDecimal(it.LastPurchaseUnitCost),
		formatDecimal(it.WeightedAverageUnitCost),
		formatDecimal(it.ShrinkRate),
		it.Supplier,
		formatDecimal(it.MinStock),
	}
}
