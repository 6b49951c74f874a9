// Package bootstrap arma la infraestructura compartida por los ejecutables.
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/cache"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/excel"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/gsheets"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/postgres"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/rowstore"
	"github.com/japh99/TRIDENTI-ERP-sub000/pkg/config"
	"github.com/japh99/TRIDENTI-ERP-sub000/pkg/logger"
)

// OpenStore arma el almacén según STORE_DRIVER: backend, reintentos y caché de lecturas.
// El cierre devuelto libera las conexiones abiertas.
func OpenStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (rowstore.Store, func(), error) {
	var (
		backend rowstore.Store
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.Store.Driver {
	case config.DriverMemory:
		backend = rowstore.NewMemory()
	case config.DriverExcel:
		x, err := excel.Open(cfg.Store.ExcelPath)
		if err != nil {
			return nil, nil, fmt.Errorf("libro excel: %w", err)
		}
		closers = append(closers, func() { _ = x.Close() })
		backend = x
	case config.DriverSheets:
		creds := []byte(cfg.Store.CredentialsJSON)
		if len(creds) == 0 {
			b, err := os.ReadFile(cfg.Store.CredentialsFile)
			if err != nil {
				return nil, nil, fmt.Errorf("credenciales de Google: %w", err)
			}
			creds = b
		}
		s, err := gsheets.New(ctx, creds, cfg.Store.SpreadsheetID)
		if err != nil {
			return nil, nil, err
		}
		backend = s
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		closers = append(closers, pool.Close)
		backend = postgres.NewRowStore(pool)
	default:
		return nil, nil, fmt.Errorf("driver %q no soportado", cfg.Store.Driver)
	}

	store := rowstore.Store(rowstore.NewRetryingStore(backend, rowstore.RetryPolicy{
		MaxAttempts:     cfg.Store.RetryAttempts,
		InitialInterval: cfg.Store.RetryInitial,
	}, log.Component("almacen")))

	// El almacén en memoria no necesita caché.
	if cfg.Store.Driver == config.DriverMemory || cfg.Store.CacheTTL <= 0 {
		return store, closeAll, nil
	}
	var c rowstore.Cache
	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
		closers = append(closers, func() { _ = rdb.Close() })
		c = cache.NewRedis(rdb)
	} else {
		c = cache.NewMemory(nil)
	}
	return rowstore.NewCachedStore(store, c, cfg.Store.CacheTTL, cfg.App.Name+":", log.Component("cache")), closeAll, nil
}
