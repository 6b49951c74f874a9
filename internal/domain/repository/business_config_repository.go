package repository

import (
	"context"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/entity"
)

// BusinessConfigRepository carga DB_CONFIG ya tipado.
type BusinessConfigRepository interface {
	Load(ctx context.Context) (entity.BusinessConfig, error)
}
