package tabular

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/entity"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/repository"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/rowstore"
)

const (
	colRecOwnerID = iota
	colRecOwnerName
	colRecIngredientID
	colRecIngredientName
	colRecQuantity
)

// RecipeRepository líneas de receta en DB_RECETAS (platos) y DB_SUBRECETAS.
type RecipeRepository struct {
	*base
}

var _ repository.RecipeRepository = (*RecipeRepository)(nil)

// NewRecipeRepository construye el repositorio.
func NewRecipeRepository(store rowstore.Store, loc *time.Location) *RecipeRepository {
	return &RecipeRepository{base: newBase(store, loc)}
}

func recipeTable(kind entity.RecipeKind) (string, error) {
	switch kind {
	case entity.RecipeDish:
		return TableDishes, nil
	case entity.RecipeSubRecipe:
		return TableSubRecipes, nil
	}
	return "", domain.Validation("tipo de receta %q", kind)
}

func (r *RecipeRepository) All(ctx context.Context, kind entity.RecipeKind) ([]entity.RecipeLine, error) {
	table, err := recipeTable(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.readAll(ctx, table, RecipeHeader)
	if err != nil {
		return nil, err
	}
	out := make([]entity.RecipeLine, 0, len(rows))
	for i, row := range rows {
		if cell(row, colRecOwnerID) == "" {
			continue
		}
		l, err := decodeRecipeLine(table, row, i)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func (r *RecipeRepository) GetLines(ctx context.Context, kind entity.RecipeKind, ownerID string) ([]entity.RecipeLine, error) {
	all, err := r.All(ctx, kind)
	if err != nil {
		return nil, err
	}
	out := make([]entity.RecipeLine, 0)
	for _, l := range all {
		if l.OwnerID == ownerID {
			out = append(out, l)
		}
	}
	return out, nil
}

// DeleteLines borra por dueño, no por posición: cada intento relee la tabla y recalcula
// los índices, así un borrado aplicado cuya respuesta se perdió no alcanza a otro dueño.
func (r *RecipeRepository) DeleteLines(ctx context.Context, kind entity.RecipeKind, ownerID string) (int, error) {
	table, err := recipeTable(kind)
	if err != nil {
		return 0, err
	}
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 200 * time.Millisecond
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, 2), ctx)

	deleted := -1
	var last error
	err = backoff.Retry(func() error {
		rows, err := r.readAll(ctx, table, RecipeHeader)
		if err != nil {
			return backoff.Permanent(err)
		}
		var idx []int
		for i, row := range rows {
			if cell(row, colRecOwnerID) == ownerID {
				idx = append(idx, i)
			}
		}
		if deleted < 0 {
			deleted = len(idx)
		}
		if len(idx) == 0 {
			return nil
		}
		if err := r.store.DeleteRows(ctx, table, idx); err != nil {
			last = err
			if rowstore.IsTransient(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
	}, b)
	if err != nil {
		if rowstore.IsTransient(last) {
			return 0, fmt.Errorf("%w: borrar líneas de %s: %v", domain.ErrTransientStore, ownerID, last)
		}
		return 0, err
	}
	return deleted, nil
}

func (r *RecipeRepository) AppendLines(ctx context.Context, kind entity.RecipeKind, lines []entity.RecipeLine) error {
	if len(lines) == 0 {
		return nil
	}
	table, err := recipeTable(kind)
	if err != nil {
		return err
	}
	if err := r.ensure(ctx, table, RecipeHeader); err != nil {
		return err
	}
	rows := make([][]string, len(lines))
	for i, l := range lines {
		rows[i] = []string{l.OwnerID, l.OwnerName, l.IngredientID, l.IngredientName, formatDecimal(l.QuantityPerUnit)}
	}
	return r.store.AppendRows(ctx, table, rows)
}

func decodeRecipeLine(table string, row []string, index int) (entity.RecipeLine, error) {
	p := &rowParser{table: table, row: row, index: index}
	l := entity.RecipeLine{
		OwnerID:         p.str(colRecOwnerID),
		OwnerName:       p.str(colRecOwnerName),
		IngredientID:    p.str(colRecIngredientID),
		IngredientName:  p.str(colRecIngredientName),
		QuantityPerUnit: p.dec(colRecQuantity, "CANTIDAD"),
	}
	if p.err != nil {
		return entity.RecipeLine{}, fmt.Errorf("receta: %w", p.err)
	}
	return l, nil
}
