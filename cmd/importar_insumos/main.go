// importar_insumos da de alta insumos desde un CSV exportado de la hoja de compras.
//
// Uso: go run ./cmd/importar_insumos -archivo insumos.csv [-utf8] [-separador ,]
// Usa el mismo almacén que la API (STORE_DRIVER y demás variables). Los insumos ya existentes se omiten.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/inventory"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain"
	dominventory "github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/inventory"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/bootstrap"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/tabular"
	"github.com/japh99/TRIDENTI-ERP-sub000/pkg/config"
	"github.com/japh99/TRIDENTI-ERP-sub000/pkg/logger"
)

func main() {
	path := flag.String("archivo", "insumos.csv", "CSV de insumos")
	utf8 := flag.Bool("utf8", false, "el archivo ya está en UTF-8 (por defecto Windows-1252)")
	sep := flag.String("separador", ";", "separador de columnas")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, App: "importar_insumos"})
	loc, err := cfg.App.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("zona horaria")
	}
	if len([]rune(*sep)) != 1 {
		log.Fatal().Str("separador", *sep).Msg("el separador debe ser un carácter")
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir CSV")
	}
	defer f.Close()
	reqs, err := parseItems(f, !*utf8, []rune(*sep)[0])
	if err != nil {
		log.Fatal().Err(err).Str("archivo", *path).Msg("leer CSV")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	store, closeStore, err := bootstrap.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("almacén")
	}
	defer closeStore()

	uc := inventory.NewUseCase(
		tabular.NewStockItemRepository(store, loc),
		tabular.NewMovementJournal(store, loc),
		tabular.NewRecipeRepository(store, loc),
		tabular.NewBusinessConfigRepository(store, loc),
		nil, dominventory.NewLedger(dominventory.Options{}), loc, log.Component("inventario"),
	)

	var created, skipped, failed int
	for _, req := range reqs {
		_, err := uc.CreateItem(ctx, req)
		switch {
		case err == nil:
			created++
		case errors.Is(err, domain.ErrDuplicate):
			skipped++
		default:
			failed++
			log.Warn().Err(err).Str("insumo", req.Name).Msg("no importado")
		}
	}
	log.Info().Int("creados", created).Int("omitidos", skipped).Int("fallidos", failed).Msg("importación terminada")
	if failed > 0 {
		os.Exit(1)
	}
}
