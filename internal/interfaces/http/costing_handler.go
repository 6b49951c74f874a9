package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/costing"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/dto"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/entity"
)

// DishCostRenderer genera el PDF de la hoja de costo.
type DishCostRenderer interface {
	DishCostPDF(ctx context.Context, c *dto.DishCostDTO, at time.Time) ([]byte, error)
}

// CostingHandler recetas, subrecetas y hojas de costo.
type CostingHandler struct {
	uc  *costing.UseCase
	pdf DishCostRenderer
}

// NewCostingHandler construye el handler.
func NewCostingHandler(uc *costing.UseCase, pdf DishCostRenderer) *CostingHandler {
	return &CostingHandler{uc: uc, pdf: pdf}
}

// GetRecipe godoc
// @Summary      Líneas de una receta
// @Tags         costing
// @Produce      json
// @Param        kind      path  string  true  "platos | subrecetas"
// @Param        owner_id  path  string  true  "ID del plato o subreceta"
// @Success      200  {object}  dto.RecipeDTO
// @Router       /api/recipes/{kind}/{owner_id} [get]
func (h *CostingHandler) GetRecipe(c *fiber.Ctx) error {
	kind := entity.RecipeKind(c.Params("kind"))
	lines, err := h.uc.GetLines(c.Context(), kind, c.Params("owner_id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.FromRecipeLines(kind, c.Params("owner_id"), lines))
}

// ReplaceRecipe godoc
// @Summary      Reemplazar las líneas de una receta
// @Description  Borra todas las líneas del dueño e inserta las nuevas. Rechaza ciclos entre platos y subrecetas.
// @Tags         costing
// @Accept       json
// @Produce      json
// @Param        kind      path  string                    true  "platos | subrecetas"
// @Param        owner_id  path  string                    true  "ID del plato o subreceta"
// @Param        body      body  dto.ReplaceRecipeRequest  true  "Líneas"
// @Success      200  {object}  dto.RecipeDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.PartialWriteResponse
// @Router       /api/recipes/{kind}/{owner_id} [put]
func (h *CostingHandler) ReplaceRecipe(c *fiber.Ctx) error {
	var in dto.ReplaceRecipeRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	kind := entity.RecipeKind(c.Params("kind"))
	lines, err := h.uc.ReplaceLines(c.Context(), kind, c.Params("owner_id"), in)
	if err != nil {
		return err
	}
	return c.JSON(dto.FromRecipeLines(kind, c.Params("owner_id"), lines))
}

// FinalizeSubRecipe godoc
// @Summary      Finalizar subreceta
// @Description  Crea el insumo derivado (PRODUCCION_INTERNA, factor 1) y guarda sus líneas.
// @Tags         costing
// @Accept       json
// @Produce      json
// @Param        body  body  dto.FinalizeSubRecipeRequest  true  "Subreceta"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/subrecipes/finalize [post]
func (h *CostingHandler) FinalizeSubRecipe(c *fiber.Ctx) error {
	var in dto.FinalizeSubRecipeRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	item, lines, err := h.uc.FinalizeSubRecipe(c.Context(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"item":   dto.FromStockItem(item),
		"recipe": dto.FromRecipeLines(entity.RecipeSubRecipe, item.ID, lines),
	})
}

// DishCost godoc
// @Summary      Hoja de costo de un plato
// @Tags         costing
// @Produce      json
// @Param        id             path   string  true   "ID del plato"
// @Param        target_margin  query  number  false  "Margen objetivo en % (0-99)"
// @Success      200  {object}  dto.DishCostDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/costing/dishes/{id} [get]
func (h *CostingHandler) DishCost(c *fiber.Ctx) error {
	sheet, err := h.dishCost(c)
	if err != nil {
		return err
	}
	return c.JSON(sheet)
}

// DishCostPDF godoc
// @Summary      Hoja de costo en PDF
// @Tags         costing
// @Produce      application/pdf
// @Param        id             path   string  true   "ID del plato"
// @Param        target_margin  query  number  false  "Margen objetivo en %"
// @Success      200  {file}  binary
// @Router       /api/costing/dishes/{id}/pdf [get]
func (h *CostingHandler) DishCostPDF(c *fiber.Ctx) error {
	if h.pdf == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "exportación PDF no configurada")
	}
	sheet, err := h.dishCost(c)
	if err != nil {
		return err
	}
	b, err := h.pdf.DishCostPDF(c.Context(), sheet, time.Now())
	if err != nil {
		return err
	}
	return sendPDF(c, "costo-"+sheet.DishID+".pdf", b)
}

func (h *CostingHandler) dishCost(c *fiber.Ctx) (*dto.DishCostDTO, error) {
	var margin *decimal.Decimal
	if raw := c.Query("target_margin"); raw != "" {
		m, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, domain.Validation("target_margin %q", raw)
		}
		margin = &m
	}
	return h.uc.DishCost(c.Context(), c.Params("id"), margin)
}
