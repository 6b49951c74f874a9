package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/dto"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/inventory"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/units"
)

// ValuationRenderer genera el PDF de valorización.
type ValuationRenderer interface {
	ValuationPDF(ctx context.Context, v *dto.ValuationDTO) ([]byte, error)
}

// InventoryHandler insumos, movimientos y valorización.
type InventoryHandler struct {
	uc  *inventory.UseCase
	pdf ValuationRenderer
}

// NewInventoryHandler construye el handler. pdf puede ser nil (sin exportación).
func NewInventoryHandler(uc *inventory.UseCase, pdf ValuationRenderer) *InventoryHandler {
	return &InventoryHandler{uc: uc, pdf: pdf}
}

// Units godoc
// @Summary      Tabla de conversión de unidades de compra
// @Tags         inventory
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/units [get]
func (h *InventoryHandler) Units(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"base_units": units.BaseUnit, "units": units.Table()})
}

// ListItems godoc
// @Summary      Listar insumos
// @Tags         inventory
// @Produce      json
// @Param        limit   query  int  false  "Máximo (default 20, max 500)"
// @Param        offset  query  int  false  "Desplazamiento"
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/stock-items [get]
func (h *InventoryHandler) ListItems(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := bindQuery(c, &page); err != nil {
		return err
	}
	page.DefaultPage()
	items, err := h.uc.ListItems(c.Context())
	if err != nil {
		return err
	}
	total := len(items)
	from := min(page.Offset, total)
	to := min(from+page.Limit, total)
	out := make([]dto.StockItemDTO, 0, to-from)
	for _, it := range items[from:to] {
		out = append(out, dto.FromStockItem(it))
	}
	return c.JSON(fiber.Map{
		"items": out,
		"page":  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	})
}

// GetItem godoc
// @Summary      Obtener insumo
// @Tags         inventory
// @Produce      json
// @Param        id   path  string  true  "ID del insumo"
// @Success      200  {object}  dto.StockItemDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock-items/{id} [get]
func (h *InventoryHandler) GetItem(c *fiber.Ctx) error {
	it, err := h.uc.GetItem(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.FromStockItem(it))
}

// CreateItem godoc
// @Summary      Crear insumo
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStockItemRequest  true  "Insumo y unidad de compra"
// @Success      201  {object}  dto.StockItemDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock-items [post]
func (h *InventoryHandler) CreateItem(c *fiber.Ctx) error {
	var in dto.CreateStockItemRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	it, err := h.uc.CreateItem(c.Context(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromStockItem(it))
}

// RegisterPurchase godoc
// @Summary      Registrar compra
// @Description  Convierte la cantidad a unidad base y actualiza el costo promedio.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PurchaseRequest  true  "Compra"
// @Success      201  {object}  dto.OperationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.PartialWriteResponse
// @Router       /api/inventory/purchases [post]
func (h *InventoryHandler) RegisterPurchase(c *fiber.Ctx) error {
	var in dto.PurchaseRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	return created(c)(h.uc.RegisterPurchase(c.Context(), in))
}

// RegisterConsumption godoc
// @Summary      Registrar consumo manual
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ConsumptionRequest  true  "Consumo en unidad base"
// @Success      201  {object}  dto.OperationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/consumptions [post]
func (h *InventoryHandler) RegisterConsumption(c *fiber.Ctx) error {
	var in dto.ConsumptionRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	return created(c)(h.uc.RegisterConsumption(c.Context(), in))
}

// RegisterLoss godoc
// @Summary      Registrar pérdida con evidencia
// @Description  multipart/form-data: item_id, quantity, reason, responsible, date (RFC 3339, opcional) y el archivo evidence.
// @Tags         inventory
// @Accept       mpfd
// @Produce      json
// @Param        evidence  formData  file  true  "Foto o soporte"
// @Success      201  {object}  dto.OperationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/losses [post]
func (h *InventoryHandler) RegisterLoss(c *fiber.Ctx) error {
	in := dto.LossRequest{
		ItemID:      c.FormValue("item_id"),
		Reason:      c.FormValue("reason"),
		Responsible: c.FormValue("responsible"),
	}
	if raw := c.FormValue("quantity"); raw != "" {
		q, err := decimal.NewFromString(raw)
		if err != nil {
			return domain.Validation("quantity %q", raw)
		}
		in.Quantity = q
	}
	if raw := c.FormValue("date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return domain.Validation("date %q debe ser RFC 3339", raw)
		}
		in.Date = &t
	}
	if err := check(&in); err != nil {
		return err
	}

	var ev *inventory.Evidence
	if fh, err := c.FormFile("evidence"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return domain.Validation("evidencia ilegible: %v", err)
		}
		defer f.Close()
		ev = &inventory.Evidence{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		}
	}
	return created(c)(h.uc.RegisterLoss(c.Context(), in, ev))
}

// RegisterAudit godoc
// @Summary      Registrar conteo físico (auditoría)
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AuditRequest  true  "Conteos"
// @Success      201  {object}  dto.OperationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/audits [post]
func (h *InventoryHandler) RegisterAudit(c *fiber.Ctx) error {
	var in dto.AuditRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	return created(c)(h.uc.RegisterAudit(c.Context(), in))
}

// RunProduction godoc
// @Summary      Producir un lote de subreceta
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ProductionRequest  true  "Producto y cantidad"
// @Success      201  {object}  dto.OperationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/production [post]
func (h *InventoryHandler) RunProduction(c *fiber.Ctx) error {
	var in dto.ProductionRequest
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	return created(c)(h.uc.RunProduction(c.Context(), in))
}

// Movements godoc
// @Summary      Consultar kardex
// @Tags         inventory
// @Produce      json
// @Param        item_id  query  string  false  "Filtrar por insumo"
// @Param        tail     query  int     false  "Últimos N (default 50)"
// @Success      200  {array}  dto.MovementDTO
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) Movements(c *fiber.Ctx) error {
	movs, err := h.uc.Movements(c.Context(), c.Query("item_id"), c.QueryInt("tail", 50))
	if err != nil {
		return err
	}
	return c.JSON(dto.FromMovements(movs))
}

// Reconcile godoc
// @Summary      Conciliar libro contra kardex
// @Tags         inventory
// @Produce      json
// @Param        id   path  string  true  "ID del insumo"
// @Success      200  {object}  dto.ReconciliationDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/reconcile/{id} [get]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	rec, err := h.uc.Reconcile(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.FromReconciliation(rec))
}

// Valuation godoc
// @Summary      Valorización del inventario y alertas de stock mínimo
// @Tags         inventory
// @Produce      json
// @Success      200  {object}  dto.ValuationDTO
// @Router       /api/inventory/valuation [get]
func (h *InventoryHandler) Valuation(c *fiber.Ctx) error {
	v, err := h.uc.Valuation(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(v)
}

// ValuationPDF godoc
// @Summary      Valorización en PDF
// @Tags         inventory
// @Produce      application/pdf
// @Success      200  {file}  binary
// @Router       /api/inventory/valuation.pdf [get]
func (h *InventoryHandler) ValuationPDF(c *fiber.Ctx) error {
	if h.pdf == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "exportación PDF no configurada")
	}
	v, err := h.uc.Valuation(c.Context())
	if err != nil {
		return err
	}
	b, err := h.pdf.ValuationPDF(c.Context(), v)
	if err != nil {
		return err
	}
	return sendPDF(c, "valorizacion-"+v.GeneratedAt.Format("20060102")+".pdf", b)
}

// created responde 201 con el resultado de una operación de inventario.
func created(c *fiber.Ctx) func(*inventory.Outcome, error) error {
	return func(out *inventory.Outcome, err error) error {
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(dto.NewOperationResponse(out.Items, out.Movements, out.Warnings))
	}
}

func sendPDF(c *fiber.Ctx, filename string, b []byte) error {
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(b)
}
