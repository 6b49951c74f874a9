package tabular

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/entity"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/repository"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/rowstore"
)

// Claves de DB_CONFIG.
const (
	KeyFixedCostPrefix = "GASTO_FIJO_"
	KeyLaunchDate      = "FECHA_LANZAMIENTO"
)

// BusinessConfigRepository parámetros de negocio en DB_CONFIG (CLAVE, VALOR).
type BusinessConfigRepository struct {
	*base
}

var _ repository.BusinessConfigRepository = (*BusinessConfigRepository)(nil)

// NewBusinessConfigRepository construye el repositorio.
func NewBusinessConfigRepository(store rowstore.Store, loc *time.Location) *BusinessConfigRepository {
	return &BusinessConfigRepository{base: newBase(store, loc)}
}

// Load lee DB_CONFIG y lo convierte en BusinessConfig.
// Un gasto fijo mal formado o una fecha inválida es un error de configuración.
func (r *BusinessConfigRepository) Load(ctx context.Context) (entity.BusinessConfig, error) {
	rows, err := r.readAll(ctx, TableConfig, ConfigHeader)
	if err != nil {
		return entity.BusinessConfig{}, err
	}
	cfg := entity.BusinessConfig{Values: make(map[string]string, len(rows))}
	for _, row := range rows {
		key := strings.ToUpper(cell(row, 0))
		if key == "" {
			continue
		}
		val := cell(row, 1)
		cfg.Values[key] = val
		switch {
		case strings.HasPrefix(key, KeyFixedCostPrefix):
			fc, err := ParseFixedCost(strings.TrimPrefix(key, KeyFixedCostPrefix), val)
			if err != nil {
				return entity.BusinessConfig{}, err
			}
			cfg.FixedCosts = append(cfg.FixedCosts, fc)
		case key == KeyLaunchDate && val != "":
			d, err := time.ParseInLocation(dateLayout, val, r.loc)
			if err != nil {
				return entity.BusinessConfig{}, domain.Configuration("%s=%q no es una fecha AAAA-MM-DD", key, val)
			}
			cfg.LaunchDate = &d
		}
	}
	return cfg, nil
}

// ParseFixedCost interpreta "monto|dia|frecuencia". Día y frecuencia son opcionales.
func ParseFixedCost(concept, raw string) (entity.FixedCostEntry, error) {
	parts := strings.Split(raw, "|")
	amount, err := ParseDecimal(parts[0])
	if err != nil || amount.IsNegative() {
		return entity.FixedCostEntry{}, domain.Configuration("gasto fijo %s: monto %q inválido", concept, parts[0])
	}
	fc := entity.FixedCostEntry{Concept: concept, MonthlyAmount: amount, Frequency: "MENSUAL"}
	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		day, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || day < 1 || day > 31 {
			return entity.FixedCostEntry{}, domain.Configuration("gasto fijo %s: día %q inválido", concept, parts[1])
		}
		fc.DueDay = day
	}
	if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
		fc.Frequency = strings.ToUpper(strings.TrimSpace(parts[2]))
	}
	return fc, nil
}
