package analytics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/analytics"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/dto"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/entity"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/profitability"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/rowstore"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/tabular"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

type staticCosts struct {
	costs map[string]decimal.Decimal
	err   error
}

func (s staticCosts) DishUnitCosts(context.Context) (map[string]decimal.Decimal, error) {
	return s.costs, s.err
}

func setup(t *testing.T, costs staticCosts) *analytics.UseCase {
	t.Helper()
	ctx := context.Background()
	loc, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)
	store := rowstore.NewMemory()

	sales := tabular.NewSalesLogRepository(store, loc)
	at := func(day, hour int) time.Time { return time.Date(2024, 5, day, hour, 0, 0, 0, loc) }
	require.NoError(t, sales.Append(ctx, at(1, 12), []entity.SalesLine{
		{ReceiptID: "r1", Date: at(1, 12), ItemID: "bandeja", ItemName: "Bandeja", Quantity: d("60"), Amount: d("1200000")},
		{ReceiptID: "r1", Date: at(1, 12), ItemID: "jugo", ItemName: "Jugo", Quantity: d("20"), Amount: d("100000")},
		{ReceiptID: "r2", Date: at(5, 19), ItemID: "bandeja", ItemName: "Bandeja", Quantity: d("40"), Amount: d("800000")},
		// fuera del periodo
		{ReceiptID: "r3", Date: at(20, 13), ItemID: "bandeja", ItemName: "Bandeja", Quantity: d("500"), Amount: d("1")},
	}))

	require.NoError(t, store.CreateTable(ctx, tabular.TableConfig, tabular.ConfigHeader))
	require.NoError(t, store.AppendRows(ctx, tabular.TableConfig, [][]string{
		{"GASTO_FIJO_ARRIENDO", "2400000|5|mensual"},
		{"GASTO_FIJO_SERVICIOS", "600000"},
	}))
	cfg := tabular.NewBusinessConfigRepository(store, loc)
	return analytics.NewUseCase(sales, costs, cfg, loc, zerolog.Nop())
}

var mayo = dto.PeriodQuery{StartDate: "2024-05-01", EndDate: "2024-05-10"}

func TestBreakEven_Periodo(t *testing.T) {
	uc := setup(t, staticCosts{costs: map[string]decimal.Decimal{"bandeja": d("11000"), "jugo": d("5000")}})

	res, err := uc.BreakEven(context.Background(), mayo)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Days)
	require.Len(t, res.FixedCosts, 2)
	assert.True(t, res.ProratedFixedCosts.Equal(d("1000000")), res.ProratedFixedCosts.String())
	assert.True(t, res.Revenue.Equal(d("2100000")), res.Revenue.String())
	// 100 × 11000 + 20 × 5000
	assert.True(t, res.CostOfGoods.Equal(d("1200000")), res.CostOfGoods.String())
	// razón 0.4286: equilibrio ≈ 2.333.333
	assert.Equal(t, profitability.StatusDeficit, res.Status)
	assert.True(t, res.Shortfall.Round(0).Equal(d("233333")), res.Shortfall.String())
	assert.False(t, res.Unreachable)
}

func TestMenuMatrix_Periodo(t *testing.T) {
	uc := setup(t, staticCosts{costs: map[string]decimal.Decimal{"bandeja": d("11000"), "jugo": d("1000")}})

	m, err := uc.MenuMatrix(context.Background(), mayo)
	require.NoError(t, err)
	require.Len(t, m.Items, 2)
	assert.Equal(t, "bandeja", m.Items[0].DishID)
	assert.True(t, m.Items[0].UnitsSold.Equal(d("100")), "la venta del 20 queda fuera")
	// bandeja margen 9000, jugo margen 4000, media 6500
	assert.Equal(t, profitability.QuadrantStar, m.Items[0].Quadrant)
	assert.Equal(t, profitability.QuadrantDog, m.Items[1].Quadrant)
}

func TestAnalytics_Errores(t *testing.T) {
	ctx := context.Background()
	uc := setup(t, staticCosts{costs: map[string]decimal.Decimal{}})

	_, err := uc.MenuMatrix(ctx, dto.PeriodQuery{StartDate: "2024-05-10", EndDate: "2024-05-01"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = uc.BreakEven(ctx, dto.PeriodQuery{StartDate: "mayo", EndDate: "2024-05-01"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	boom := errors.New("sin conexión")
	failing := setup(t, staticCosts{err: boom})
	_, err = failing.BreakEven(ctx, mayo)
	assert.ErrorIs(t, err, boom)
}
