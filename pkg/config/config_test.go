package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "America/Bogota", cfg.App.Timezone)
	assert.Equal(t, 3, cfg.Store.RetryAttempts)
	assert.Equal(t, 3*time.Minute, cfg.Store.CacheTTL)
	assert.True(t, cfg.Costing.AllowNegativeStock)
	assert.Equal(t, "latest", cfg.Costing.PurchaseCostMode)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "excel")
	t.Setenv("STORE_CACHE_TTL", "30s")
	t.Setenv("ALLOW_NEGATIVE_STOCK", "false")
	t.Setenv("HTTP_PORT", "9090")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverExcel, cfg.Store.Driver)
	assert.Equal(t, 30*time.Second, cfg.Store.CacheTTL)
	assert.False(t, cfg.Costing.AllowNegativeStock)
	assert.Equal(t, 9090, cfg.HTTP.Port)
}

func TestLoad_SheetsSinCredenciales(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sheets")
	t.Setenv("SHEETS_SPREADSHEET_ID", "abc")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_DriverDesconocido(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	_, err := Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "u", Password: "p@ss", DBName: "x", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss@db:5432/x?sslmode=disable", c.DSN())
	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.ConnectionString())
}
