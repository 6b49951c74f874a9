package tabular_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/entity"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/rowstore"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/tabular"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func bogota(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)
	return loc
}

func TestParseDecimal(t *testing.T) {
	for in, want := range map[string]string{"": "0", "12.5": "12.5", "12,5": "12.5", " 7 ": "7"} {
		got, err := tabular.ParseDecimal(in)
		require.NoError(t, err, in)
		assert.True(t, got.Equal(d(want)), "%q -> %s", in, got)
	}
	_, err := tabular.ParseDecimal("doce")
	assert.Error(t, err)
}

func TestStockItemRepository(t *testing.T) {
	ctx := context.Background()
	store := rowstore.NewMemory()
	repo := tabular.NewStockItemRepository(store, time.UTC)

	harina := &entity.StockItem{ID: "i1", Name: "Harina", Category: "SECOS", PurchaseUnitLabel: "Bulto (25kg)",
		ConversionFactor: d("25000"), StockQuantity: d("25000"), LastPurchaseUnitCost: d("4"), WeightedAverageUnitCost: d("4")}
	require.NoError(t, repo.Create(ctx, harina))
	require.NoError(t, repo.Create(ctx, &entity.StockItem{ID: "i2", Name: "Sal"}))
	assert.ErrorIs(t, repo.Create(ctx, &entity.StockItem{ID: "i1"}), domain.ErrDuplicate)

	got, err := repo.GetByID(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, "Harina", got.Name)
	assert.True(t, got.ConversionFactor.Equal(d("25000")))

	got.StockQuantity = d("20000")
	got.WeightedAverageUnitCost = d("4.5")
	require.NoError(t, repo.SaveBalance(ctx, got))

	rows, _ := store.ReadAll(ctx, tabular.TableStockItems)
	assert.Equal(t, "20000", rows[0][5])
	assert.Equal(t, "4.5", rows[0][7])

	_, err = repo.GetByID(ctx, "nada")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.SaveBalance(ctx, &entity.StockItem{ID: "nada"}), domain.ErrNotFound)

	items, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestStockItemRepository_CeldaCorrupta(t *testing.T) {
	ctx := context.Background()
	store := rowstore.NewMemory()
	require.NoError(t, store.CreateTable(ctx, tabular.TableStockItems, tabular.StockItemHeader))
	require.NoError(t, store.AppendRow(ctx, tabular.TableStockItems, []string{"i1", "Harina", "", "", "1", "mucho"}))
	_, err := tabular.NewStockItemRepository(store, nil).List(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STOCK")
}

func TestMovementJournal_HoraLocal(t *testing.T) {
	ctx := context.Background()
	loc := bogota(t)
	store := rowstore.NewMemory()
	j := tabular.NewMovementJournal(store, loc)

	// 02:30 UTC del 2 de marzo = 21:30 del 1 de marzo en Bogotá
	at := time.Date(2024, 3, 2, 2, 30, 0, 0, time.UTC)
	require.NoError(t, j.Record(ctx,
		entity.Movement{ID: "m1", Date: at, Kind: entity.MovementPurchase, ItemID: "i1", QuantityIn: d("100"), ResultingBalance: d("100")},
		entity.Movement{ID: "m2", Date: at.Add(time.Minute), Kind: entity.MovementLoss, ItemID: "i2", QuantityOut: d("5")},
		entity.Movement{ID: "m3", Date: at.Add(2 * time.Minute), Kind: entity.MovementSaleConsumption, ItemID: "i1", QuantityOut: d("30")},
	))

	rows, _ := store.ReadAll(ctx, tabular.TableMovements)
	assert.Equal(t, "2024-03-01", rows[0][1])
	assert.Equal(t, "21:30:00", rows[0][2])

	own, err := j.FilterByItem(ctx, "i1")
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.True(t, own[0].Date.Equal(at))

	tail, err := j.Tail(ctx, 1)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, "m3", tail[0].ID)
}

func TestRecipeRepository_ReemplazoPorDueno(t *testing.T) {
	ctx := context.Background()
	repo := tabular.NewRecipeRepository(rowstore.NewMemory(), nil)
	lines := []entity.RecipeLine{
		{OwnerID: "p1", IngredientID: "a", QuantityPerUnit: d("2")},
		{OwnerID: "p2", IngredientID: "b", QuantityPerUnit: d("1")},
		{OwnerID: "p1", IngredientID: "c", QuantityPerUnit: d("0.5")},
	}
	require.NoError(t, repo.AppendLines(ctx, entity.RecipeDish, lines))

	n, err := repo.DeleteLines(ctx, entity.RecipeDish, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rest, err := repo.All(ctx, entity.RecipeDish)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "p2", rest[0].OwnerID)

	sub, err := repo.All(ctx, entity.RecipeSubRecipe)
	require.NoError(t, err)
	assert.Empty(t, sub, "platos y subrecetas viven en tablas distintas")

	_, err = repo.All(ctx, entity.RecipeKind("bebidas"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// lostAck aplica el borrado y responde con error transitorio las primeras n veces.
type lostAck struct {
	rowstore.Store
	failures int
	calls    int
}

func (l *lostAck) DeleteRows(ctx context.Context, table string, rows []int) error {
	l.calls++
	if err := l.Store.DeleteRows(ctx, table, rows); err != nil {
		return err
	}
	if l.calls <= l.failures {
		return rowstore.Transient(errors.New("502 respuesta perdida"))
	}
	return nil
}

func TestRecipeRepository_BorradoConRespuestaPerdida(t *testing.T) {
	ctx := context.Background()
	l := &lostAck{Store: rowstore.NewMemory(), failures: 1}
	store := rowstore.NewRetryingStore(l, rowstore.RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}, zerolog.Nop())
	repo := tabular.NewRecipeRepository(store, nil)
	require.NoError(t, repo.AppendLines(ctx, entity.RecipeDish, []entity.RecipeLine{
		{OwnerID: "A", IngredientID: "a", QuantityPerUnit: d("1")},
		{OwnerID: "B", IngredientID: "b", QuantityPerUnit: d("1")},
		{OwnerID: "C", IngredientID: "c", QuantityPerUnit: d("1")},
	}))

	n, err := repo.DeleteLines(ctx, entity.RecipeDish, "A")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, l.calls, "el reintento relee y ya no encuentra filas de A")

	rest, err := repo.All(ctx, entity.RecipeDish)
	require.NoError(t, err)
	var owners []string
	for _, r := range rest {
		owners = append(owners, r.OwnerID)
	}
	assert.Equal(t, []string{"B", "C"}, owners)
}

func TestRecipeRepository_BorradoTransitorioAgotado(t *testing.T) {
	ctx := context.Background()
	mem := rowstore.NewMemory()
	repo := tabular.NewRecipeRepository(&failingDelete{Store: mem}, nil)
	require.NoError(t, repo.AppendLines(ctx, entity.RecipeDish, []entity.RecipeLine{
		{OwnerID: "A", IngredientID: "a", QuantityPerUnit: d("1")},
	}))

	_, err := repo.DeleteLines(ctx, entity.RecipeDish, "A")
	require.ErrorIs(t, err, domain.ErrTransientStore)
}

// failingDelete nunca aplica el borrado.
type failingDelete struct {
	rowstore.Store
}

func (f *failingDelete) DeleteRows(context.Context, string, []int) error {
	return rowstore.Transient(errors.New("503"))
}

func TestSalesLogRepository_MesesYRango(t *testing.T) {
	ctx := context.Background()
	loc := bogota(t)
	store := rowstore.NewMemory()
	repo := tabular.NewSalesLogRepository(store, loc)

	endOfApril := time.Date(2024, 4, 30, 22, 0, 0, 0, loc)
	mayFirst := time.Date(2024, 5, 1, 13, 0, 0, 0, loc)
	require.NoError(t, repo.Append(ctx, endOfApril, []entity.SalesLine{
		{ReceiptID: "r1", Date: endOfApril, ItemID: "p1", Quantity: d("1"), Amount: d("20000")},
	}))
	require.NoError(t, repo.Append(ctx, mayFirst, []entity.SalesLine{
		{ReceiptID: "r2", Date: mayFirst, ItemID: "p1", Quantity: d("2"), Amount: d("40000")},
	}))

	_, err := store.ReadAll(ctx, "LOG_VENTAS_2024_04")
	require.NoError(t, err)

	ids, err := repo.ReceiptIDs(ctx, mayFirst)
	require.NoError(t, err)
	assert.True(t, ids["r2"])
	assert.False(t, ids["r1"])

	lines, err := repo.Range(ctx, time.Date(2024, 4, 30, 0, 0, 0, 0, loc), time.Date(2024, 5, 1, 0, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.Len(t, lines, 2)

	lines, err = repo.Range(ctx, mayFirst, mayFirst)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "r2", lines[0].ReceiptID)

	ids, err = repo.ReceiptIDs(ctx, time.Date(2023, 1, 1, 0, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.Empty(t, ids, "mes sin tabla")
}

func TestBusinessConfigRepository(t *testing.T) {
	ctx := context.Background()
	store := rowstore.NewMemory()
	require.NoError(t, store.CreateTable(ctx, tabular.TableConfig, tabular.ConfigHeader))
	require.NoError(t, store.AppendRows(ctx, tabular.TableConfig, [][]string{
		{"GASTO_FIJO_ARRIENDO", "2000000|5|mensual"},
		{"GASTO_FIJO_NOMINA", "1000000"},
		{"FECHA_LANZAMIENTO", "2024-01-15"},
		{"NOMBRE_NEGOCIO", "Tridenti"},
	}))
	cfg, err := tabular.NewBusinessConfigRepository(store, time.UTC).Load(ctx)
	require.NoError(t, err)
	require.Len(t, cfg.FixedCosts, 2)
	assert.Equal(t, "ARRIENDO", cfg.FixedCosts[0].Concept)
	assert.Equal(t, 5, cfg.FixedCosts[0].DueDay)
	assert.True(t, cfg.MonthlyFixedCosts().Equal(d("3000000")))
	require.NotNil(t, cfg.LaunchDate)
	assert.True(t, cfg.Locked(time.Date(2024, 1, 14, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Tridenti", cfg.Values["NOMBRE_NEGOCIO"])
}

func TestParseFixedCost_Invalido(t *testing.T) {
	_, err := tabular.ParseFixedCost("LUZ", "abc|3|mensual")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	_, err = tabular.ParseFixedCost("LUZ", "100|40")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
