// Package costing contiene los casos de uso de recetas, subrecetas y hojas de costo de platos.
package costing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/dto"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/saga"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/costing"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/entity"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/repository"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/units"
)

// UseCase administra la composición de recetas y calcula costos de platos.
type UseCase struct {
	recipes repository.RecipeRepository
	items   repository.StockItemRepository
	journal repository.MovementJournal
	policy  costing.MissingCostPolicy
	newID   func() string
	log     zerolog.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(recipes repository.RecipeRepository, items repository.StockItemRepository, policy costing.MissingCostPolicy, log zerolog.Logger) *UseCase {
	return &UseCase{recipes: recipes, items: items, policy: policy, newID: uuid.NewString, log: log}
}

// WithJournal habilita el chequeo de presencia por kardex: un insumo con costo cero
// que ya tuvo una entrada (compra o producción) cuenta como gratuito, no como faltante.
func (uc *UseCase) WithJournal(j repository.MovementJournal) *UseCase {
	uc.journal = j
	return uc
}

// GetLines devuelve las líneas de un dueño con los nombres vigentes de los insumos.
func (uc *UseCase) GetLines(ctx context.Context, kind entity.RecipeKind, ownerID string) ([]entity.RecipeLine, error) {
	if !kind.Valid() {
		return nil, domain.Validation("tipo de receta %q", kind)
	}
	lines, err := uc.recipes.GetLines(ctx, kind, ownerID)
	if err != nil {
		return nil, err
	}
	byID, err := uc.itemIndex(ctx)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		if it, ok := byID[lines[i].IngredientID]; ok {
			lines[i].IngredientName = it.Name
		}
	}
	return lines, nil
}

// ReplaceLines sustituye todas las líneas de un dueño: borra y luego inserta en bloque.
// Rechaza la edición si crea un ciclo entre platos y subrecetas. Repetirla con las
// mismas líneas deja exactamente esas líneas.
func (uc *UseCase) ReplaceLines(ctx context.Context, kind entity.RecipeKind, ownerID string, req dto.ReplaceRecipeRequest) ([]entity.RecipeLine, error) {
	if !kind.Valid() {
		return nil, domain.Validation("tipo de receta %q", kind)
	}
	if strings.TrimSpace(ownerID) == "" {
		return nil, domain.Validation("owner_id obligatorio")
	}
	byID, err := uc.itemIndex(ctx)
	if err != nil {
		return nil, err
	}
	lines, err := buildLines(ownerID, req.OwnerName, req.Lines, byID)
	if err != nil {
		return nil, err
	}
	if err := uc.checkCycle(ctx, ownerID, lines); err != nil {
		return nil, err
	}
	s := saga.New("reemplazar_receta", uc.log).ForItem(ownerID)
	for _, st := range uc.replaceSteps(kind, ownerID, lines) {
		s.AddStep(st)
	}
	if err := s.Run(ctx); err != nil {
		return nil, err
	}
	uc.log.Info().Str("kind", string(kind)).Str("owner_id", ownerID).Int("lines", len(lines)).Msg("receta reemplazada")
	return lines, nil
}

// FinalizeSubRecipe crea el insumo derivado de una subreceta (categoría PRODUCCION_INTERNA, factor 1)
// y guarda sus líneas. Su costo inicial es el costo teórico de la receta; luego lo fija cada producción.
// Si el insumo derivado ya existe solo se reemplazan sus líneas.
func (uc *UseCase) FinalizeSubRecipe(ctx context.Context, req dto.FinalizeSubRecipeRequest) (*entity.StockItem, []entity.RecipeLine, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, nil, domain.Validation("nombre obligatorio")
	}
	if len(req.Lines) == 0 {
		return nil, nil, domain.Validation("la subreceta %s no tiene líneas", name)
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uc.newID()
	}
	byID, err := uc.itemIndex(ctx)
	if err != nil {
		return nil, nil, err
	}
	existing, exists := byID[id]
	if exists && !existing.IsDerived() {
		return nil, nil, fmt.Errorf("%w: %s ya existe y no es de producción interna", domain.ErrConflict, id)
	}
	lines, err := buildLines(id, name, req.Lines, byID)
	if err != nil {
		return nil, nil, err
	}
	if err := uc.checkCycle(ctx, id, lines); err != nil {
		return nil, nil, err
	}
	costs, err := uc.unitCosts(ctx, byID)
	if err != nil {
		return nil, nil, err
	}
	_, cost, err := costing.CostLines(lines, costs, uc.policy)
	if err != nil {
		return nil, nil, err
	}

	item := existing
	s := saga.New("finalizar_subreceta", uc.log).ForItem(id)
	if !exists {
		label := req.UnitLabel
		if label == "" {
			label = units.LabelUnit
		}
		item = &entity.StockItem{
			ID:                      id,
			Name:                    name,
			Category:                entity.CategoryInternalProduction,
			PurchaseUnitLabel:       label,
			ConversionFactor:        decimal.NewFromInt(1),
			WeightedAverageUnitCost: cost,
		}
		s.Add("crear insumo", func(ctx context.Context) error { return uc.items.Create(ctx, item) })
	}
	for _, st := range uc.replaceSteps(entity.RecipeSubRecipe, id, lines) {
		s.AddStep(st)
	}
	if err := s.Run(ctx); err != nil {
		return nil, nil, err
	}
	uc.log.Info().Str("item_id", id).Str("theoretical_cost", cost.String()).Bool("created", !exists).Msg("subreceta finalizada")
	return item, lines, nil
}

// DishCost hoja de costo del plato: aporte por línea, costo total y precio sugerido si hay margen objetivo.
func (uc *UseCase) DishCost(ctx context.Context, dishID string, targetMarginPct *decimal.Decimal) (*dto.DishCostDTO, error) {
	lines, err := uc.recipes.GetLines(ctx, entity.RecipeDish, dishID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: plato %s sin receta", domain.ErrNotFound, dishID)
	}
	byID, err := uc.itemIndex(ctx)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		if it, ok := byID[lines[i].IngredientID]; ok {
			lines[i].IngredientName = it.Name
		}
	}
	costs, err := uc.unitCosts(ctx, byID)
	if err != nil {
		return nil, err
	}
	detail, total, err := costing.CostLines(lines, costs, uc.policy)
	if err != nil {
		return nil, err
	}
	out := &dto.DishCostDTO{
		DishID:    dishID,
		DishName:  lines[0].OwnerName,
		Lines:     make([]dto.CostLineDTO, 0, len(detail)),
		TotalCost: total,
	}
	for _, lc := range detail {
		out.Lines = append(out.Lines, dto.CostLineDTO{
			IngredientID:    lc.Line.IngredientID,
			IngredientName:  lc.Line.IngredientName,
			QuantityPerUnit: lc.Line.QuantityPerUnit,
			UnitCost:        lc.UnitCost,
			Cost:            lc.Cost,
			MissingCost:     lc.Missing,
		})
	}
	if targetMarginPct != nil {
		price, err := costing.SuggestedPrice(total, *targetMarginPct)
		if err != nil {
			return nil, err
		}
		margin := *targetMarginPct
		out.TargetMarginPct = &margin
		out.SuggestedPrice = &price
	}
	return out, nil
}

// DishUnitCosts costo unitario de todos los platos con receta.
// Un plato que no se puede costear bajo la política vigente se omite con advertencia.
func (uc *UseCase) DishUnitCosts(ctx context.Context) (map[string]decimal.Decimal, error) {
	all, err := uc.recipes.All(ctx, entity.RecipeDish)
	if err != nil {
		return nil, err
	}
	byID, err := uc.itemIndex(ctx)
	if err != nil {
		return nil, err
	}
	costs, err := uc.unitCosts(ctx, byID)
	if err != nil {
		return nil, err
	}
	byOwner := make(map[string][]entity.RecipeLine)
	var order []string
	for _, l := range all {
		if _, ok := byOwner[l.OwnerID]; !ok {
			order = append(order, l.OwnerID)
		}
		byOwner[l.OwnerID] = append(byOwner[l.OwnerID], l)
	}
	out := make(map[string]decimal.Decimal, len(byOwner))
	for _, owner := range order {
		total, err := costing.RollUpRecipeCost(byOwner[owner], costs, uc.policy)
		if errors.Is(err, domain.ErrMissingCost) {
			uc.log.Warn().Err(err).Str("dish_id", owner).Msg("plato sin costear")
			continue
		}
		if err != nil {
			return nil, err
		}
		out[owner] = total
	}
	return out, nil
}

// replaceSteps borrar → insertar. Si la inserción falla se reinsertan las líneas anteriores.
func (uc *UseCase) replaceSteps(kind entity.RecipeKind, ownerID string, lines []entity.RecipeLine) []saga.Step {
	var previous []entity.RecipeLine
	return []saga.Step{
		{
			Name: "borrar lineas",
			Do: func(ctx context.Context) error {
				old, err := uc.recipes.GetLines(ctx, kind, ownerID)
				if err != nil {
					return err
				}
				previous = old
				_, err = uc.recipes.DeleteLines(ctx, kind, ownerID)
				return err
			},
			Undo: func(ctx context.Context) error { return uc.recipes.AppendLines(ctx, kind, previous) },
		},
		{
			Name: "insertar lineas",
			Do:   func(ctx context.Context) error { return uc.recipes.AppendLines(ctx, kind, lines) },
		},
	}
}

// checkCycle valida el grafo completo (platos y subrecetas comparten el espacio de IDs).
func (uc *UseCase) checkCycle(ctx context.Context, ownerID string, lines []entity.RecipeLine) error {
	dishes, err := uc.recipes.All(ctx, entity.RecipeDish)
	if err != nil {
		return err
	}
	subs, err := uc.recipes.All(ctx, entity.RecipeSubRecipe)
	if err != nil {
		return err
	}
	return costing.CheckReplace(append(dishes, subs...), ownerID, lines)
}

func (uc *UseCase) itemIndex(ctx context.Context) (map[string]*entity.StockItem, error) {
	items, err := uc.items.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.StockItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	return byID, nil
}

// unitCosts costos promedio vigentes. Un insumo con costo cero cuenta como faltante salvo
// que el kardex muestre una entrada (compra o producción): entonces es gratuito.
func (uc *UseCase) unitCosts(ctx context.Context, byID map[string]*entity.StockItem) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(byID))
	zero := 0
	for id, it := range byID {
		if !it.WeightedAverageUnitCost.IsPositive() {
			zero++
			continue
		}
		out[id] = it.WeightedAverageUnitCost
	}
	if zero == 0 || uc.journal == nil {
		return out, nil
	}
	movs, err := uc.journal.Tail(ctx, 0)
	if err != nil {
		return nil, err
	}
	for _, m := range movs {
		if m.Kind != entity.MovementPurchase && m.Kind != entity.MovementProductionIn {
			continue
		}
		if _, ok := out[m.ItemID]; ok {
			continue
		}
		if it, ok := byID[m.ItemID]; ok && it.WeightedAverageUnitCost.IsZero() {
			out[m.ItemID] = decimal.Zero
		}
	}
	return out, nil
}

func buildLines(ownerID, ownerName string, in []dto.RecipeLineInput, byID map[string]*entity.StockItem) ([]entity.RecipeLine, error) {
	lines := make([]entity.RecipeLine, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, l := range in {
		if !l.QuantityPerUnit.IsPositive() {
			return nil, domain.Validation("cantidad de %s debe ser > 0", l.IngredientID)
		}
		if seen[l.IngredientID] {
			return nil, domain.Validation("insumo %s repetido en la receta", l.IngredientID)
		}
		seen[l.IngredientID] = true
		it, ok := byID[l.IngredientID]
		if !ok {
			return nil, fmt.Errorf("%w: insumo %s", domain.ErrNotFound, l.IngredientID)
		}
		lines = append(lines, entity.RecipeLine{
			OwnerID:         ownerID,
			OwnerName:       ownerName,
			IngredientID:    it.ID,
			IngredientName:  it.Name,
			QuantityPerUnit: l.QuantityPerUnit,
		})
	}
	return lines, nil
}
