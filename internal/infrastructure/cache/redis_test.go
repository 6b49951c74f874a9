package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/cache"
)

func TestRedis_SinCliente(t *testing.T) {
	c := cache.NewRedis(nil)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", [][]string{{"a"}}, time.Minute))
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

// Requiere TEST_REDIS_ADDR.
func TestRedis_Integracion(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR no definido")
	}
	ctx := context.Background()
	rdb, err := cache.NewRedisClient(ctx, addr, "", 0)
	require.NoError(t, err)
	defer rdb.Close()
	c := cache.NewRedis(rdb)

	key := "prueba:" + time.Now().Format(time.RFC3339Nano)
	rows := [][]string{{"a", "Arroz", "10"}, {"b", "Sal", ""}}
	require.NoError(t, c.Set(ctx, key, rows, time.Minute))
	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rows, got)

	require.NoError(t, c.Delete(ctx, key))
	_, ok, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
