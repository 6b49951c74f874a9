package costing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/costing"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/entity"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestUnitCostFromPurchase(t *testing.T) {
	c, err := costing.UnitCostFromPurchase(d("100000"), d("25000"))
	require.NoError(t, err)
	assert.True(t, c.Equal(d("4")))

	c, err = costing.UnitCostFromPurchase(decimal.Zero, d("10"))
	require.NoError(t, err)
	assert.True(t, c.IsZero(), "precio cero da costo cero, nunca negativo")
}

func TestUnitCostFromPurchase_CantidadNoPositiva(t *testing.T) {
	for _, q := range []string{"0", "-5"} {
		_, err := costing.UnitCostFromPurchase(d("1000"), d(q))
		assert.ErrorIs(t, err, domain.ErrDivision, q)
	}
	_, err := costing.UnitCostFromPurchase(d("-1"), d("10"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRollUpRecipeCost(t *testing.T) {
	lines := []entity.RecipeLine{
		{OwnerID: "p1", IngredientID: "a", IngredientName: "A", QuantityPerUnit: d("2")},
		{OwnerID: "p1", IngredientID: "b", IngredientName: "B", QuantityPerUnit: d("3")},
		{OwnerID: "p1", IngredientID: "x", IngredientName: "Sin costo", QuantityPerUnit: d("1")},
	}
	costs := map[string]decimal.Decimal{"a": d("10"), "b": d("5")}

	total, err := costing.RollUpRecipeCost(lines, costs, costing.MissingCostZero)
	require.NoError(t, err)
	assert.True(t, total.Equal(d("35")))

	_, err = costing.RollUpRecipeCost(lines, costs, costing.MissingCostReject)
	assert.ErrorIs(t, err, domain.ErrMissingCost)

	detail, _, err := costing.CostLines(lines, costs, costing.MissingCostZero)
	require.NoError(t, err)
	require.Len(t, detail, 3)
	assert.True(t, detail[2].Missing)
	assert.True(t, detail[0].Cost.Equal(d("20")))
}

func TestSuggestedPrice(t *testing.T) {
	p, err := costing.SuggestedPrice(d("3000"), d("70"))
	require.NoError(t, err)
	assert.True(t, p.Equal(d("10000")), p.String())

	_, err = costing.SuggestedPrice(d("3000"), d("100"))
	assert.ErrorIs(t, err, domain.ErrDomain)
	_, err = costing.SuggestedPrice(d("3000"), d("120"))
	assert.ErrorIs(t, err, domain.ErrDomain)
}

func TestParseMissingCostPolicy(t *testing.T) {
	p, err := costing.ParseMissingCostPolicy("")
	require.NoError(t, err)
	assert.Equal(t, costing.MissingCostZero, p)
	_, err = costing.ParseMissingCostPolicy("inventar")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
