package dto

import (
	"github.com/shopspring/decimal"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/entity"
)

// RecipeLineInput línea de receta recibida del cliente. El nombre se toma del insumo.
type RecipeLineInput struct {
	IngredientID    string          `json:"ingredient_id" validate:"required"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
}

// ReplaceRecipeRequest body para PUT /api/recipes/:kind/:owner_id.
type ReplaceRecipeRequest struct {
	OwnerName string            `json:"owner_name" validate:"required"`
	Lines     []RecipeLineInput `json:"lines" validate:"dive"`
}

// FinalizeSubRecipeRequest body para POST /api/subrecipes/finalize.
type FinalizeSubRecipeRequest struct {
	ID        string            `json:"id,omitempty"`
	Name      string            `json:"name" validate:"required"`
	UnitLabel string            `json:"unit_label"`
	Lines     []RecipeLineInput `json:"lines" validate:"required,min=1,dive"`
}

// RecipeLineDTO línea de receta en respuestas.
type RecipeLineDTO struct {
	OwnerID         string          `json:"owner_id"`
	OwnerName       string          `json:"owner_name"`
	IngredientID    string          `json:"ingredient_id"`
	IngredientName  string          `json:"ingredient_name"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
}

// RecipeDTO receta completa de un dueño.
type RecipeDTO struct {
	Kind    string          `json:"kind"`
	OwnerID string          `json:"owner_id"`
	Lines   []RecipeLineDTO `json:"lines"`
}

// FromRecipeLines mapea las líneas de un dueño.
func FromRecipeLines(kind entity.RecipeKind, ownerID string, lines []entity.RecipeLine) RecipeDTO {
	out := RecipeDTO{Kind: string(kind), OwnerID: ownerID, Lines: make([]RecipeLineDTO, 0, len(lines))}
	for _, l := range lines {
		out.Lines = append(out.Lines, RecipeLineDTO(l))
	}
	return out
}

// CostLineDTO aporte de un insumo al costo del plato.
type CostLineDTO struct {
	IngredientID    string          `json:"ingredient_id"`
	IngredientName  string          `json:"ingredient_name"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	Cost            decimal.Decimal `json:"cost"`
	MissingCost     bool            `json:"missing_cost,omitempty"`
}

// DishCostDTO hoja de costo de un plato.
type DishCostDTO struct {
	DishID          string           `json:"dish_id"`
	DishName        string           `json:"dish_name"`
	Lines           []CostLineDTO    `json:"lines"`
	TotalCost       decimal.Decimal  `json:"total_cost"`
	TargetMarginPct *decimal.Decimal `json:"target_margin_pct,omitempty"`
	SuggestedPrice  *decimal.Decimal `json:"suggested_price,omitempty"`
}
