// Package sales sincroniza los recibos del punto de venta con el registro mensual de ventas.
package sales

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/dto"
	invapp "github.com/japh99/TRIDENTI-ERP-sub000/internal/application/inventory"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/saga"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/entity"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/repository"
)

// Feed fuente de recibos. start y end se interpretan en UTC.
type Feed interface {
	Receipts(ctx context.Context, start, end time.Time) ([]entity.Receipt, error)
}

// InventoryApplier descarga del inventario los insumos de los platos vendidos.
type InventoryApplier interface {
	ApplySales(ctx context.Context, sales []invapp.SaleLine, at time.Time, responsible string) (*invapp.Outcome, error)
}

const responsiblePOS = "POS"

// SyncUseCase trae recibos, los pasa a hora local y los agrega a LOG_VENTAS_YYYY_MM
// sin repetir recibos ya registrados.
type SyncUseCase struct {
	feed         Feed
	log          repository.SalesLogRepository
	inventory    InventoryApplier
	applyDefault bool
	loc          *time.Location
	logger       zerolog.Logger
}

// NewSyncUseCase construye el caso de uso. inventory puede ser nil si nunca se descarga inventario.
func NewSyncUseCase(feed Feed, salesLog repository.SalesLogRepository, inventory InventoryApplier, applyDefault bool, loc *time.Location, logger zerolog.Logger) *SyncUseCase {
	if loc == nil {
		loc = time.UTC
	}
	return &SyncUseCase{feed: feed, log: salesLog, inventory: inventory, applyDefault: applyDefault, loc: loc, logger: logger}
}

// monthBatch líneas nuevas de un mes local.
type monthBatch struct {
	month time.Time
	lines []entity.SalesLine
}

// Sync sincroniza la ventana [start, end). La agrupación por mes y día usa la hora local:
// un turno que cruza la medianoche UTC queda en el día correcto.
//
// Los anexos al registro de ventas no se deshacen; si el descargue de inventario falla
// después de registrar ventas el error es domain.PartialWriteError.
func (uc *SyncUseCase) Sync(ctx context.Context, req dto.SyncSalesRequest) (*dto.SyncSalesResultDTO, error) {
	if req.Start.IsZero() || !req.End.After(req.Start) {
		return nil, domain.Validation("ventana inválida: end debe ser posterior a start")
	}
	apply := uc.applyDefault
	if req.ApplyInventory != nil {
		apply = *req.ApplyInventory
	}
	if apply && uc.inventory == nil {
		return nil, domain.Configuration("descargue de inventario no disponible")
	}

	receipts, err := uc.feed.Receipts(ctx, req.Start.UTC(), req.End.UTC())
	if err != nil {
		return nil, fmt.Errorf("sincronización: %w", err)
	}
	res := &dto.SyncSalesResultDTO{ReceiptsFetched: len(receipts), Tables: []string{}}

	batches, skipped, err := uc.newLines(ctx, receipts)
	if err != nil {
		return nil, err
	}
	res.ReceiptsSkipped = skipped

	s := saga.New("sincronizar_ventas", uc.logger)
	for _, b := range batches {
		b := b
		table := fmt.Sprintf("LOG_VENTAS_%04d_%02d", b.month.Year(), int(b.month.Month()))
		res.Tables = append(res.Tables, table)
		res.LinesAppended += len(b.lines)
		s.Add("registrar "+table, func(ctx context.Context) error { return uc.log.Append(ctx, b.month, b.lines) })
	}
	if apply {
		for _, day := range byDay(batches, uc.loc) {
			day := day
			s.Add("descargar "+day.at.Format("2006-01-02"), func(ctx context.Context) error {
				out, err := uc.inventory.ApplySales(ctx, day.sales, day.at, responsiblePOS)
				if err != nil {
					return err
				}
				res.Warnings = append(res.Warnings, out.Warnings...)
				return nil
			})
		}
		res.InventoryApplied = len(batches) > 0
	}
	if err := s.Run(ctx); err != nil {
		return nil, err
	}
	uc.logger.Info().Int("fetched", res.ReceiptsFetched).Int("skipped", res.ReceiptsSkipped).
		Int("lines", res.LinesAppended).Bool("inventory", res.InventoryApplied).Msg("ventas sincronizadas")
	return res, nil
}

// newLines agrupa por mes local y descarta recibos ya registrados (o repetidos en el lote).
func (uc *SyncUseCase) newLines(ctx context.Context, receipts []entity.Receipt) ([]monthBatch, int, error) {
	byMonth := make(map[time.Time]*monthBatch)
	known := make(map[time.Time]map[string]bool)
	skipped := 0
	for _, r := range receipts {
		local := r.CreatedAt.In(uc.loc)
		month := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, uc.loc)
		ids, ok := known[month]
		if !ok {
			var err error
			ids, err = uc.log.ReceiptIDs(ctx, month)
			if err != nil {
				return nil, 0, fmt.Errorf("sincronización: recibos de %s: %w", month.Format("2006-01"), err)
			}
			known[month] = ids
		}
		if ids[r.ID] {
			skipped++
			continue
		}
		ids[r.ID] = true
		b, ok := byMonth[month]
		if !ok {
			b = &monthBatch{month: month}
			byMonth[month] = b
		}
		b.lines = append(b.lines, r.SalesLines(uc.loc)...)
	}
	out := make([]monthBatch, 0, len(byMonth))
	for _, b := range byMonth {
		if len(b.lines) > 0 {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].month.Before(out[j].month) })
	return out, skipped, nil
}

type daySales struct {
	at    time.Time
	sales []invapp.SaleLine
}

// byDay suma unidades por plato y día local. at es la última venta del día.
func byDay(batches []monthBatch, loc *time.Location) []daySales {
	idx := make(map[string]int)
	var days []daySales
	dish := make([]map[string]int, 0)
	for _, b := range batches {
		for _, l := range b.lines {
			local := l.Date.In(loc)
			key := local.Format("2006-01-02")
			i, ok := idx[key]
			if !ok {
				idx[key] = len(days)
				days = append(days, daySales{at: local})
				dish = append(dish, map[string]int{})
				i = len(days) - 1
			}
			if local.After(days[i].at) {
				days[i].at = local
			}
			j, ok := dish[i][l.ItemID]
			if !ok {
				dish[i][l.ItemID] = len(days[i].sales)
				days[i].sales = append(days[i].sales, invapp.SaleLine{DishID: l.ItemID, DishName: l.ItemName, Units: decimal.Zero})
				j = len(days[i].sales) - 1
			}
			days[i].sales[j].Units = days[i].sales[j].Units.Add(l.Quantity)
		}
	}
	sort.SliceStable(days, func(i, j int) bool { return days[i].at.Before(days[j].at) })
	// devoluciones o anulaciones pueden dejar unidades en cero
	for i := range days {
		kept := days[i].sales[:0]
		for _, s := range days[i].sales {
			if s.Units.IsPositive() {
				kept = append(kept, s)
			}
		}
		days[i].sales = kept
	}
	return days
}
