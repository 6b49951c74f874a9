package tabular

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/entity"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/repository"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/rowstore"
)

const (
	colSaleReceipt = iota
	colSaleDate
	colSaleTime
	colSaleItemID
	colSaleItemName
	colSaleQty
	colSaleAmount
	colSalePayment
)

// SalesLogRepository ventas del POS en una tabla por mes (LOG_VENTAS_YYYY_MM).
type SalesLogRepository struct {
	*base
}

var _ repository.SalesLogRepository = (*SalesLogRepository)(nil)

// NewSalesLogRepository construye el repositorio.
func NewSalesLogRepository(store rowstore.Store, loc *time.Location) *SalesLogRepository {
	return &SalesLogRepository{base: newBase(store, loc)}
}

// readMonth lee la tabla del mes; si no existe devuelve vacío sin crearla.
func (r *SalesLogRepository) readMonth(ctx context.Context, month time.Time) ([][]string, error) {
	rows, err := r.store.ReadAll(ctx, SalesTable(month))
	if errors.Is(err, rowstore.ErrTableNotFound) {
		return nil, nil
	}
	return rows, err
}

func (r *SalesLogRepository) ReceiptIDs(ctx context.Context, month time.Time) (map[string]bool, error) {
	rows, err := r.readMonth(ctx, month.In(r.loc))
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(rows))
	for _, row := range rows {
		if id := cell(row, colSaleReceipt); id != "" {
			ids[id] = true
		}
	}
	return ids, nil
}

func (r *SalesLogRepository) Append(ctx context.Context, month time.Time, lines []entity.SalesLine) error {
	if len(lines) == 0 {
		return nil
	}
	table := SalesTable(month.In(r.loc))
	if err := r.ensure(ctx, table, SalesHeader); err != nil {
		return err
	}
	rows := make([][]string, len(lines))
	for i, l := range lines {
		local := l.Date.In(r.loc)
		rows[i] = []string{
			l.ReceiptID,
			local.Format(dateLayout),
			local.Format(timeLayout),
			l.ItemID,
			l.ItemName,
			formatDecimal(l.Quantity),
			formatDecimal(l.Amount),
			l.PaymentMethod,
		}
	}
	return r.store.AppendRows(ctx, table, rows)
}

// Range recorre las tablas de cada mes entre start y end y filtra por día local.
func (r *SalesLogRepository) Range(ctx context.Context, start, end time.Time) ([]entity.SalesLine, error) {
	s, e := start.In(r.loc), end.In(r.loc)
	first := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, r.loc)
	last := time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, r.loc).AddDate(0, 0, 1)

	var out []entity.SalesLine
	for m := time.Date(s.Year(), s.Month(), 1, 0, 0, 0, 0, r.loc); m.Before(last); m = m.AddDate(0, 1, 0) {
		rows, err := r.readMonth(ctx, m)
		if err != nil {
			return nil, err
		}
		for i, row := range rows {
			l, err := r.decode(SalesTable(m), row, i)
			if err != nil {
				return nil, err
			}
			if l.Date.Before(first) || !l.Date.Before(last) {
				continue
			}
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *SalesLogRepository) decode(table string, row []string, index int) (entity.SalesLine, error) {
	p := &rowParser{table: table, row: row, index: index}
	l := entity.SalesLine{
		ReceiptID:     p.str(colSaleReceipt),
		ItemID:        p.str(colSaleItemID),
		ItemName:      p.str(colSaleItemName),
		Quantity:      p.dec(colSaleQty, "CANTIDAD"),
		Amount:        p.dec(colSaleAmount, "MONTO"),
		PaymentMethod: p.str(colSalePayment),
	}
	if p.err != nil {
		return entity.SalesLine{}, p.err
	}
	clock := p.str(colSaleTime)
	if clock == "" {
		clock = "00:00:00"
	}
	date, err := time.ParseInLocation(dateLayout+" "+timeLayout, p.str(colSaleDate)+" "+clock, r.loc)
	if err != nil {
		return entity.SalesLine{}, fmt.Errorf("%s fila %d: fecha %q inválida", table, index+2, p.str(colSaleDate))
	}
	l.Date = date
	return l, nil
}
