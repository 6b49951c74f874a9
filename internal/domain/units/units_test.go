package units_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/units"
)

func TestResolve_TablaCompleta(t *testing.T) {
	cases := []struct {
		cat   units.Category
		label string
		qty   int64
		want  int64
	}{
		{units.Weight, "Kilo", 1, 1000},
		{units.Weight, "Libra", 2, 1000},
		{units.Weight, "Arroba", 1, 12500},
		{units.Weight, "Bulto (50kg)", 1, 50000},
		{units.Weight, "Bulto (25kg)", 1, 25000},
		{units.Weight, "Gramo", 350, 350},
		{units.Volume, "Litro", 3, 3000},
		{units.Volume, "Galón", 2, 7570},
		{units.Volume, "Botella", 1, 750},
		{units.Volume, "Ml", 20, 20},
		{units.Count, "Unidad", 12, 12},
	}
	for _, tc := range cases {
		t.Run(tc.label, func(t *testing.T) {
			conv, err := units.Resolve(units.PurchaseUnit{Category: tc.cat, Label: tc.label})
			require.NoError(t, err)
			got := units.Canonical(conv.Factor, decimal.NewFromInt(tc.qty))
			assert.True(t, got.Equal(decimal.NewFromInt(tc.want)), "%s x%d = %s", tc.label, tc.qty, got)
		})
	}
}

func TestResolve_EtiquetaNormalizada(t *testing.T) {
	for _, label := range []string{"Bulto25kg", "bulto (25KG)", "BULTO_25kg"} {
		conv, err := units.Resolve(units.PurchaseUnit{Category: units.Weight, Label: label})
		require.NoError(t, err, label)
		assert.Equal(t, "Bulto (25kg)", conv.Label)
	}
	conv, err := units.Resolve(units.PurchaseUnit{Category: units.Volume, Label: "galon"})
	require.NoError(t, err)
	assert.True(t, conv.Factor.Equal(decimal.NewFromInt(3785)))
	assert.Equal(t, "ml", conv.BaseUnit)
}

func TestResolve_Paquete(t *testing.T) {
	conv, err := units.Resolve(units.PurchaseUnit{
		Category:     units.Count,
		Label:        "Paquete",
		PackageSize:  decimal.NewFromInt(30),
		PackageCount: decimal.NewFromInt(2),
	})
	require.NoError(t, err)
	assert.True(t, conv.Factor.Equal(decimal.NewFromInt(60)))

	conv, err = units.Resolve(units.PurchaseUnit{Category: units.Count, Label: "Paquete", PackageSize: decimal.NewFromInt(12)})
	require.NoError(t, err)
	assert.True(t, conv.Factor.Equal(decimal.NewFromInt(12)), "sin cantidad de paquetes se asume uno")

	_, err = units.Resolve(units.PurchaseUnit{Category: units.Count, Label: "Paquete"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestResolve_EtiquetaDesconocida(t *testing.T) {
	_, err := units.Resolve(units.PurchaseUnit{Category: units.Weight, Label: "Litro"})
	assert.ErrorIs(t, err, domain.ErrConfiguration, "no se mezclan categorías")

	_, err = units.Resolve(units.PurchaseUnit{Category: "LENGTH", Label: "Metro"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
