package bootstrap_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/bootstrap"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/rowstore"
	"github.com/japh99/TRIDENTI-ERP-sub000/pkg/config"
	"github.com/japh99/TRIDENTI-ERP-sub000/pkg/logger"
)

func TestOpenStore_Memoria(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: config.DriverMemory, CacheTTL: time.Minute}}
	store, closeStore, err := bootstrap.OpenStore(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer closeStore()
	_, ok := store.(*rowstore.RetryingStore)
	assert.True(t, ok, "memoria va sin caché")
}

func TestOpenStore_ExcelConCache(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		App:   config.AppConfig{Name: "prueba"},
		Store: config.StoreConfig{Driver: config.DriverExcel, ExcelPath: filepath.Join(t.TempDir(), "inv.xlsx"), CacheTTL: time.Minute},
	}
	store, closeStore, err := bootstrap.OpenStore(ctx, cfg, logger.Nop())
	require.NoError(t, err)
	defer closeStore()
	_, ok := store.(*rowstore.CachedStore)
	require.True(t, ok)

	require.NoError(t, store.CreateTable(ctx, "DB_INSUMOS", []string{"ID", "NOMBRE"}))
	require.NoError(t, store.AppendRow(ctx, "DB_INSUMOS", []string{"a", "Arroz"}))
	rows, err := store.ReadAll(ctx, "DB_INSUMOS")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "Arroz"}}, rows)
}

func TestOpenStore_DriverDesconocido(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: "mongo"}}
	_, _, err := bootstrap.OpenStore(context.Background(), cfg, logger.Nop())
	assert.ErrorContains(t, err, "mongo")
}
