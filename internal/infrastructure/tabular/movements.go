package tabular

import (
	"context"
	"fmt"
	"time"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/entity"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/repository"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/rowstore"
)

const (
	colMovID = iota
	colMovDate
	colMovTime
	colMovKind
	colMovItemID
	colMovItemName
	colMovIn
	colMovOut
	colMovBalance
	colMovUnitCost
	colMovDetail
	colMovResponsible
)

// MovementJournal kardex en KARDEX_MOVIMIENTOS. Fecha y hora se guardan en hora local del negocio.
type MovementJournal struct {
	*base
}

var _ repository.MovementJournal = (*MovementJournal)(nil)

// NewMovementJournal construye el kardex.
func NewMovementJournal(store rowstore.Store, loc *time.Location) *MovementJournal {
	return &MovementJournal{base: newBase(store, loc)}
}

func (j *MovementJournal) Record(ctx context.Context, movs ...entity.Movement) error {
	if len(movs) == 0 {
		return nil
	}
	if err := j.ensure(ctx, TableMovements, MovementHeader); err != nil {
		return err
	}
	rows := make([][]string, len(movs))
	for i, m := range movs {
		rows[i] = j.encode(m)
	}
	return j.store.AppendRows(ctx, TableMovements, rows)
}

func (j *MovementJournal) Tail(ctx context.Context, n int) ([]entity.Movement, error) {
	all, err := j.all(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

func (j *MovementJournal) FilterByItem(ctx context.Context, itemID string) ([]entity.Movement, error) {
	all, err := j.all(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Movement, 0)
	for _, m := range all {
		if m.ItemID == itemID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (j *MovementJournal) all(ctx context.Context) ([]entity.Movement, error) {
	rows, err := j.readAll(ctx, TableMovements, MovementHeader)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Movement, 0, len(rows))
	for i, row := range rows {
		if cell(row, colMovID) == "" {
			continue
		}
		m, err := j.decode(row, i)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (j *MovementJournal) encode(m entity.Movement) []string {
	local := m.Date.In(j.loc)
	return []string{
		m.ID,
		local.Format(dateLayout),
		local.Format(timeLayout),
		string(m.Kind),
		m.ItemID,
		m.ItemName,
		formatDecimal(m.QuantityIn),
		formatDecimal(m.QuantityOut),
		formatDecimal(m.ResultingBalance),
		formatDecimal(m.UnitCost),
		m.Detail,
		m.Responsible,
	}
}

func (j *MovementJournal) decode(row []string, index int) (entity.Movement, error) {
	p := &rowParser{table: TableMovements, row: row, index: index}
	m := entity.Movement{
		ID:               p.str(colMovID),
		Kind:             entity.MovementKind(p.str(colMovKind)),
		ItemID:           p.str(colMovItemID),
		ItemName:         p.str(colMovItemName),
		QuantityIn:       p.dec(colMovIn, "ENTRADA"),
		QuantityOut:      p.dec(colMovOut, "SALIDA"),
		ResultingBalance: p.dec(colMovBalance, "SALDO"),
		UnitCost:         p.dec(colMovUnitCost, "COSTO_UNITARIO"),
		Detail:           p.str(colMovDetail),
		Responsible:      p.str(colMovResponsible),
	}
	if p.err != nil {
		return entity.Movement{}, p.err
	}
	clock := p.str(colMovTime)
	if clock == "" {
		clock = "00:00:00"
	}
	date, err := time.ParseInLocation(dateLayout+" "+timeLayout, p.str(colMovDate)+" "+clock, j.loc)
	if err != nil {
		return entity.Movement{}, fmt.Errorf("%s fila %d: fecha %q inválida", TableMovements, index+2, p.str(colMovDate))
	}
	m.Date = date
	return m, nil
}
