package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/cache"
)

func TestMemory_Expira(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := cache.NewMemory(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", [][]string{{"a", "b"}}, time.Minute))
	rows, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, [][]string{{"a", "b"}}, rows)

	rows[0][0] = "mutado"
	again, _, _ := c.Get(ctx, "k")
	assert.Equal(t, "a", again[0][0], "la caché devuelve copias")

	now = now.Add(time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_ClienteNil(t *testing.T) {
	c := cache.NewRedis(nil)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", [][]string{{"x"}}, time.Minute))
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Delete(ctx, "k"))
}
