package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/analytics"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/dto"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/sales"
)

// AnalyticsHandler reportes de rentabilidad y sincronización de ventas.
type AnalyticsHandler struct {
	uc   *analytics.UseCase
	sync *sales.SyncUseCase
}

// NewAnalyticsHandler construye el handler. sync puede ser nil si no hay POS configurado.
func NewAnalyticsHandler(uc *analytics.UseCase, sync *sales.SyncUseCase) *AnalyticsHandler {
	return &AnalyticsHandler{uc: uc, sync: sync}
}

// MenuMatrix godoc
// @Summary      Matriz de menú (popularidad × margen)
// @Tags         analytics
// @Produce      json
// @Param        start_date  query  string  true  "YYYY-MM-DD"
// @Param        end_date    query  string  true  "YYYY-MM-DD"
// @Success      200  {object}  dto.MenuMatrixDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/analytics/menu-matrix [get]
func (h *AnalyticsHandler) MenuMatrix(c *fiber.Ctx) error {
	var q dto.PeriodQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	m, err := h.uc.MenuMatrix(c.Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(m)
}

// BreakEven godoc
// @Summary      Punto de equilibrio del periodo
// @Tags         analytics
// @Produce      json
// @Param        start_date  query  string  true  "YYYY-MM-DD"
// @Param        end_date    query  string  true  "YYYY-MM-DD"
// @Success      200  {object}  dto.BreakEvenDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/analytics/break-even [get]
func (h *AnalyticsHandler) BreakEven(c *fiber.Ctx) error {
	var q dto.PeriodQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	res, err := h.uc.BreakEven(c.Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// SyncSales godoc
// @Summary      Sincronizar recibos del punto de venta
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SyncSalesRequest  true  "Ventana UTC"
// @Success      200  {object}  dto.SyncSalesResultDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.PartialWriteResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/sales/sync [post]
func (h *AnalyticsHandler) SyncSales(c *fiber.Ctx) error {
	if h.sync == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "punto de venta no configurado")
	}
	var in dto.SyncSalesRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	res, err := h.sync.Sync(c.Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(res)
}
