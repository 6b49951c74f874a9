package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/swaggo/swag"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/analytics"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/costing"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/inventory"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/sales"
)

// ReportRenderer exportaciones PDF.
type ReportRenderer interface {
	ValuationRenderer
	DishCostRenderer
}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	InventoryUC *inventory.UseCase
	CostingUC   *costing.UseCase
	AnalyticsUC *analytics.UseCase
	SalesSync   *sales.SyncUseCase // nil sin punto de venta
	Reports     ReportRenderer     // nil sin exportación PDF
	Service     string
	Log         zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Use(RequestLogger(deps.Log))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.Service})
	})

	// Especificación registrada por el paquete docs.
	app.Get("/openapi.json", func(c *fiber.Ctx) error {
		doc, err := swag.ReadDoc()
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "documentación no registrada")
		}
		c.Type("json")
		return c.SendString(doc)
	})

	api := app.Group("/api")

	var valuationPDF ValuationRenderer
	var dishPDF DishCostRenderer
	if deps.Reports != nil {
		valuationPDF, dishPDF = deps.Reports, deps.Reports
	}

	inv := NewInventoryHandler(deps.InventoryUC, valuationPDF)
	api.Get("/units", inv.Units)

	items := api.Group("/stock-items")
	items.Get("/", inv.ListItems)
	items.Post("/", inv.CreateItem)
	items.Get("/:id", inv.GetItem)

	invGroup := api.Group("/inventory")
	invGroup.Post("/purchases", inv.RegisterPurchase)
	invGroup.Post("/consumptions", inv.RegisterConsumption)
	invGroup.Post("/losses", inv.RegisterLoss)
	invGroup.Post("/audits", inv.RegisterAudit)
	invGroup.Post("/production", inv.RunProduction)
	invGroup.Get("/movements", inv.Movements)
	invGroup.Get("/reconcile/:id", inv.Reconcile)
	invGroup.Get("/valuation", inv.Valuation)
	invGroup.Get("/valuation.pdf", inv.ValuationPDF)

	cost := NewCostingHandler(deps.CostingUC, dishPDF)
	api.Get("/recipes/:kind/:owner_id", cost.GetRecipe)
	api.Put("/recipes/:kind/:owner_id", cost.ReplaceRecipe)
	api.Post("/subrecipes/finalize", cost.FinalizeSubRecipe)
	api.Get("/costing/dishes/:id", cost.DishCost)
	api.Get("/costing/dishes/:id/pdf", cost.DishCostPDF)

	an := NewAnalyticsHandler(deps.AnalyticsUC, deps.SalesSync)
	api.Get("/analytics/menu-matrix", an.MenuMatrix)
	api.Get("/analytics/break-even", an.BreakEven)
	api.Post("/sales/sync", an.SyncSales)
}

// RequestLogger registra método, ruta, estado y duración de cada petición.
func RequestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			// el ErrorHandler aún no escribió el estado
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = statusFor(err)
			}
		}
		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error().Err(err)
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("took", time.Since(start)).
			Msg("http")
		return err
	}
}
