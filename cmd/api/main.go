package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/japh99/TRIDENTI-ERP-sub000/docs"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/analytics"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/costing"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/inventory"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/sales"
	domcosting "github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/costing"
	dominventory "github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/inventory"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/bootstrap"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/pdf"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/pos"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/storage"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/tabular"
	httpRouter "github.com/japh99/TRIDENTI-ERP-sub000/internal/interfaces/http"
	"github.com/japh99/TRIDENTI-ERP-sub000/pkg/config"
	"github.com/japh99/TRIDENTI-ERP-sub000/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		App:   cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	loc, err := cfg.App.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("zona horaria")
	}

	ctx := context.Background()
	store, closeStore, err := bootstrap.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("almacén")
	}
	defer closeStore()

	policy, err := domcosting.ParseMissingCostPolicy(cfg.Costing.MissingCostPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("política de costo faltante")
	}
	costMode, err := dominventory.ParsePurchaseCostMode(cfg.Costing.PurchaseCostMode)
	if err != nil {
		log.Fatal().Err(err).Msg("modo de costo de compra")
	}

	itemRepo := tabular.NewStockItemRepository(store, loc)
	journal := tabular.NewMovementJournal(store, loc)
	recipeRepo := tabular.NewRecipeRepository(store, loc)
	configRepo := tabular.NewBusinessConfigRepository(store, loc)
	salesRepo := tabular.NewSalesLogRepository(store, loc)

	// Evidencias de pérdidas: sin bucket las pérdidas responden error de configuración.
	var evidence inventory.EvidenceStore
	if cfg.Storage.Bucket != "" {
		gcsClient, err := storage.NewGCSClient(ctx, cfg.Storage.CredentialsJSON)
		if err != nil {
			log.Fatal().Err(err).Msg("cliente de Cloud Storage")
		}
		defer gcsClient.Close()
		uploader, err := storage.NewGCSUploader(ctx, gcsClient, cfg.Storage.Bucket, cfg.Storage.PublicBaseURL, log.Component("evidencias"))
		if err != nil {
			log.Fatal().Err(err).Msg("bucket de evidencias")
		}
		evidence = uploader
	}

	ledger := dominventory.NewLedger(dominventory.Options{
		AllowNegativeStock: cfg.Costing.AllowNegativeStock,
		CostMode:           costMode,
	})
	inventoryUC := inventory.NewUseCase(itemRepo, journal, recipeRepo, configRepo, evidence, ledger, loc, log.Component("inventario"))
	costingUC := costing.NewUseCase(recipeRepo, itemRepo, policy, log.Component("costeo")).WithJournal(journal)
	analyticsUC := analytics.NewUseCase(salesRepo, costingUC, configRepo, loc, log.Component("rentabilidad"))

	var salesSync *sales.SyncUseCase
	if cfg.POS.BaseURL != "" {
		feed, err := pos.NewClient(pos.Config{
			BaseURL:       cfg.POS.BaseURL,
			Token:         cfg.POS.Token,
			PageSize:      cfg.POS.PageSize,
			RatePerMinute: cfg.POS.RatePerMinute,
		}, log.Component("pos"))
		if err != nil {
			log.Fatal().Err(err).Msg("cliente del punto de venta")
		}
		salesSync = sales.NewSyncUseCase(feed, salesRepo, inventoryUC, cfg.POS.ApplyInventory, loc, log.Component("ventas"))
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    12 * 1024 * 1024, // evidencias de hasta 10 MB más campos
		ErrorHandler: httpRouter.ErrorHandler(log.Component("http")),
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Tridenti Costeo API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		InventoryUC: inventoryUC,
		CostingUC:   costingUC,
		AnalyticsUC: analyticsUC,
		SalesSync:   salesSync,
		Reports:     pdf.NewReportGenerator(cfg.App.Name, loc),
		Service:     cfg.App.Name,
		Log:         log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
