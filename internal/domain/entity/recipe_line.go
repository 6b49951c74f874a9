package entity

import "github.com/shopspring/decimal"

// RecipeKind distingue recetas de platos y subrecetas (preparaciones).
type RecipeKind string

const (
	RecipeDish      RecipeKind = "platos"
	RecipeSubRecipe RecipeKind = "subrecetas"
)

// Valid indica si el tipo de receta es conocido.
func (k RecipeKind) Valid() bool {
	return k == RecipeDish || k == RecipeSubRecipe
}

// RecipeLine es una línea de la lista de materiales de un plato o subreceta.
// OwnerID e IngredientID son las llaves; los nombres se refrescan al leer.
type RecipeLine struct {
	OwnerID         string
	OwnerName       string
	IngredientID    string
	IngredientName  string
	QuantityPerUnit decimal.Decimal // unidad base por unidad del dueño
}
