package repository

import (
	"context"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/entity"
)

// RecipeRepository puerto de líneas de receta (DB_RECETAS / DB_SUBRECETAS según kind).
type RecipeRepository interface {
	GetLines(ctx context.Context, kind entity.RecipeKind, ownerID string) ([]entity.RecipeLine, error)
	All(ctx context.Context, kind entity.RecipeKind) ([]entity.RecipeLine, error)
	// DeleteLines borra todas las líneas del dueño y devuelve cuántas borró.
	DeleteLines(ctx context.Context, kind entity.RecipeKind, ownerID string) (int, error)
	// AppendLines inserta las líneas en una sola escritura.
	AppendLines(ctx context.Context, kind entity.RecipeKind, lines []entity.RecipeLine) error
}
