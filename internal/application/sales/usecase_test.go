package sales_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/dto"
	invapp "github.com/japh99/TRIDENTI-ERP-sub000/internal/application/inventory"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/sales"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/entity"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/rowstore"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/tabular"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

type fakeFeed struct{ receipts []entity.Receipt }

func (f fakeFeed) Receipts(context.Context, time.Time, time.Time) ([]entity.Receipt, error) {
	return f.receipts, nil
}

type recordingApplier struct {
	calls []time.Time
	sales [][]invapp.SaleLine
	err   error
}

func (r *recordingApplier) ApplySales(_ context.Context, s []invapp.SaleLine, at time.Time, _ string) (*invapp.Outcome, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.calls = append(r.calls, at)
	r.sales = append(r.sales, s)
	return &invapp.Outcome{Warnings: []string{"plato gaseosa sin receta"}}, nil
}

func receipts() []entity.Receipt {
	return []entity.Receipt{
		{
			// 22:00 del 30 de abril en Bogotá
			ID: "r1", CreatedAt: time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC), PaymentMethod: "Efectivo",
			Lines: []entity.ReceiptLine{{ItemID: "bandeja", ItemName: "Bandeja", Quantity: d("2"), Amount: d("40000")}},
		},
		{
			ID: "r2", CreatedAt: time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC), PaymentMethod: "Tarjeta",
			Lines: []entity.ReceiptLine{
				{ItemID: "bandeja", ItemName: "Bandeja", Quantity: d("1"), Amount: d("20000")},
				{ItemID: "gaseosa", ItemName: "Gaseosa", Quantity: d("3"), Amount: d("9000")},
			},
		},
		{
			ID: "r3", CreatedAt: time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC),
			Lines: []entity.ReceiptLine{{ItemID: "bandeja", ItemName: "Bandeja", Quantity: d("1"), Amount: d("20000")}},
		},
	}
}

func window() dto.SyncSalesRequest {
	return dto.SyncSalesRequest{
		Start: time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
	}
}

func bogota(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)
	return loc
}

func TestSync_HoraLocalYSinDuplicados(t *testing.T) {
	ctx := context.Background()
	loc := bogota(t)
	store := rowstore.NewMemory()
	salesLog := tabular.NewSalesLogRepository(store, loc)
	applier := &recordingApplier{}
	uc := sales.NewSyncUseCase(fakeFeed{receipts: receipts()}, salesLog, applier, true, loc, zerolog.Nop())

	res, err := uc.Sync(ctx, window())
	require.NoError(t, err)
	assert.Equal(t, 3, res.ReceiptsFetched)
	assert.Equal(t, 4, res.LinesAppended)
	assert.Equal(t, []string{"LOG_VENTAS_2024_04", "LOG_VENTAS_2024_05"}, res.Tables)
	assert.True(t, res.InventoryApplied)
	assert.Len(t, res.Warnings, 2)

	april, err := store.ReadAll(ctx, "LOG_VENTAS_2024_04")
	require.NoError(t, err)
	require.Len(t, april, 1)
	assert.Equal(t, "2024-04-30", april[0][1])
	assert.Equal(t, "22:00:00", april[0][2])

	// un día local por llamada, con las unidades sumadas por plato
	require.Len(t, applier.sales, 2)
	may := applier.sales[1]
	require.Len(t, may, 2)
	assert.Equal(t, "bandeja", may[0].DishID)
	assert.True(t, may[0].Units.Equal(d("2")))
	assert.Equal(t, 15, applier.calls[1].Hour(), "última venta del día en hora local")

	again, err := uc.Sync(ctx, window())
	require.NoError(t, err)
	assert.Equal(t, 3, again.ReceiptsSkipped)
	assert.Zero(t, again.LinesAppended)
	assert.False(t, again.InventoryApplied)
	assert.Len(t, applier.sales, 2, "no se descarga dos veces")
}

func TestSync_SinDescargue(t *testing.T) {
	ctx := context.Background()
	loc := bogota(t)
	salesLog := tabular.NewSalesLogRepository(rowstore.NewMemory(), loc)
	uc := sales.NewSyncUseCase(fakeFeed{receipts: receipts()}, salesLog, nil, false, loc, zerolog.Nop())

	res, err := uc.Sync(ctx, window())
	require.NoError(t, err)
	assert.False(t, res.InventoryApplied)

	apply := true
	req := window()
	req.ApplyInventory = &apply
	_, err = uc.Sync(ctx, req)
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	req = window()
	req.End = req.Start
	_, err = uc.Sync(ctx, req)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSync_FallaDescargueEsEscrituraParcial(t *testing.T) {
	ctx := context.Background()
	loc := bogota(t)
	salesLog := tabular.NewSalesLogRepository(rowstore.NewMemory(), loc)
	applier := &recordingApplier{err: errors.New("cuota excedida")}
	uc := sales.NewSyncUseCase(fakeFeed{receipts: receipts()}, salesLog, applier, true, loc, zerolog.Nop())

	_, err := uc.Sync(ctx, window())
	require.ErrorIs(t, err, domain.ErrPartialWrite)
	var pw *domain.PartialWriteError
	require.True(t, errors.As(err, &pw))
	assert.Equal(t, []string{"registrar LOG_VENTAS_2024_04", "registrar LOG_VENTAS_2024_05"}, pw.Completed)
	assert.Equal(t, "descargar 2024-04-30", pw.Failed)
}
