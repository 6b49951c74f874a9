// Package analytics contiene los reportes de rentabilidad: matriz de menú y punto de equilibrio.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/dto"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/entity"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/profitability"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/repository"
)

const dateLayout = "2006-01-02"

// DishCoster entrega el costo unitario vigente de cada plato con receta.
type DishCoster interface {
	DishUnitCosts(ctx context.Context) (map[string]decimal.Decimal, error)
}

// UseCase arma los reportes a partir del registro de ventas, las recetas y DB_CONFIG.
// No escribe en el almacén.
type UseCase struct {
	sales  repository.SalesLogRepository
	dishes DishCoster
	config repository.BusinessConfigRepository
	loc    *time.Location
	log    zerolog.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(sales repository.SalesLogRepository, dishes DishCoster, config repository.BusinessConfigRepository, loc *time.Location, log zerolog.Logger) *UseCase {
	if loc == nil {
		loc = time.UTC
	}
	return &UseCase{sales: sales, dishes: dishes, config: config, loc: loc, log: log}
}

// period datos del rango cargados en paralelo.
type period struct {
	start, end time.Time
	sales      []profitability.DishSales
	costs      map[string]decimal.Decimal
	config     entity.BusinessConfig
}

// MenuMatrix clasifica los platos vendidos en el periodo (popularidad × margen).
func (uc *UseCase) MenuMatrix(ctx context.Context, q dto.PeriodQuery) (*dto.MenuMatrixDTO, error) {
	p, err := uc.load(ctx, q, false)
	if err != nil {
		return nil, err
	}
	m := profitability.ClassifyMenu(p.sales, p.costs)
	uc.log.Debug().Str("start", q.StartDate).Str("end", q.EndDate).Int("dishes", len(m.Items)).Msg("matriz de menú")
	return &dto.MenuMatrixDTO{StartDate: q.StartDate, EndDate: q.EndDate, MenuMatrix: m}, nil
}

// BreakEven compara el ingreso del periodo contra los gastos fijos prorrateados.
// El costo de ventas es Σ unidades × costo unitario vigente del plato.
func (uc *UseCase) BreakEven(ctx context.Context, q dto.PeriodQuery) (*dto.BreakEvenDTO, error) {
	p, err := uc.load(ctx, q, true)
	if err != nil {
		return nil, err
	}
	revenue, cogs := decimal.Zero, decimal.Zero
	for _, s := range p.sales {
		revenue = revenue.Add(s.Revenue)
		cogs = cogs.Add(s.Units.Mul(p.costs[s.DishID]))
	}
	days := profitability.DaysInPeriod(p.start, p.end)
	res := profitability.BreakEven(profitability.BreakEvenInput{
		MonthlyFixedCosts: p.config.MonthlyFixedCosts(),
		Days:              days,
		Revenue:           revenue,
		CostOfGoods:       cogs,
	})
	out := &dto.BreakEvenDTO{
		StartDate:       q.StartDate,
		EndDate:         q.EndDate,
		Days:            days,
		FixedCosts:      make([]dto.FixedCostDTO, 0, len(p.config.FixedCosts)),
		BreakEvenResult: res,
	}
	for _, f := range p.config.FixedCosts {
		out.FixedCosts = append(out.FixedCosts, dto.FixedCostDTO{
			Concept:       f.Concept,
			MonthlyAmount: f.MonthlyAmount,
			DueDay:        f.DueDay,
			Frequency:     f.Frequency,
		})
	}
	if res.Unreachable {
		uc.log.Warn().Str("ratio", res.ContributionMarginRatio.String()).Msg("punto de equilibrio inalcanzable: margen de contribución no positivo")
	}
	return out, nil
}

// load lee ventas, costos de platos y (si withConfig) DB_CONFIG en paralelo.
func (uc *UseCase) load(ctx context.Context, q dto.PeriodQuery, withConfig bool) (*period, error) {
	start, end, err := uc.parsePeriod(q)
	if err != nil {
		return nil, err
	}
	p := &period{start: start, end: end}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lines, err := uc.sales.Range(gctx, start, end)
		if err != nil {
			return fmt.Errorf("analítica: ventas: %w", err)
		}
		p.sales = profitability.Aggregate(entity.AggregateSales(lines))
		return nil
	})
	g.Go(func() error {
		costs, err := uc.dishes.DishUnitCosts(gctx)
		if err != nil {
			return fmt.Errorf("analítica: costos de platos: %w", err)
		}
		p.costs = costs
		return nil
	})
	if withConfig {
		g.Go(func() error {
			cfg, err := uc.config.Load(gctx)
			if err != nil {
				return fmt.Errorf("analítica: configuración: %w", err)
			}
			p.config = cfg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return p, nil
}

func (uc *UseCase) parsePeriod(q dto.PeriodQuery) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(dateLayout, q.StartDate, uc.loc)
	if err != nil {
		return time.Time{}, time.Time{}, domain.Validation("start_date %q", q.StartDate)
	}
	end, err := time.ParseInLocation(dateLayout, q.EndDate, uc.loc)
	if err != nil {
		return time.Time{}, time.Time{}, domain.Validation("end_date %q", q.EndDate)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, domain.Validation("end_date anterior a start_date")
	}
	return start, end, nil
}
