package rowstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/cache"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/rowstore"
)

var fastRetry = rowstore.RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}

func TestMemory_Operaciones(t *testing.T) {
	ctx := context.Background()
	s := rowstore.NewMemory()

	_, err := s.ReadAll(ctx, "T")
	require.ErrorIs(t, err, rowstore.ErrTableNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.CreateTable(ctx, "T", []string{"ID", "V"}))
	require.NoError(t, s.CreateTable(ctx, "T", []string{"otro"}), "crear es idempotente")
	require.NoError(t, s.AppendRows(ctx, "T", [][]string{{"a", "1"}, {"b", "2"}, {"c", "3"}}))

	idx, err := s.FindRowByKey(ctx, "T", "b")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	idx, _ = s.FindRowByKey(ctx, "T", "zz")
	assert.Equal(t, -1, idx)

	require.NoError(t, s.UpdateCells(ctx, "T", []rowstore.CellUpdate{{Row: 1, Col: 1, Value: "20"}, {Row: 2, Col: 3, Value: "x"}}))
	rows, _ := s.ReadAll(ctx, "T")
	assert.Equal(t, []string{"b", "20"}, rows[1])
	assert.Equal(t, []string{"c", "3", "", "x"}, rows[2])

	assert.Error(t, s.UpdateCell(ctx, "T", 9, 0, "x"))

	require.NoError(t, s.DeleteRows(ctx, "T", []int{0, 2, 0}))
	rows, _ = s.ReadAll(ctx, "T")
	assert.Equal(t, [][]string{{"b", "20"}}, rows)
}

// flaky falla con error transitorio las primeras n llamadas a ReadAll.
type flaky struct {
	rowstore.Store
	failures int
	calls    int
	err      error
}

func (f *flaky) ReadAll(ctx context.Context, table string) ([][]string, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return f.Store.ReadAll(ctx, table)
}

func TestRetryingStore_RecuperaTransitorio(t *testing.T) {
	ctx := context.Background()
	mem := rowstore.NewMemory()
	require.NoError(t, mem.CreateTable(ctx, "T", []string{"ID"}))
	f := &flaky{Store: mem, failures: 2, err: rowstore.Transient(errors.New("429"))}

	s := rowstore.NewRetryingStore(f, fastRetry, zerolog.Nop())
	_, err := s.ReadAll(ctx, "T")
	require.NoError(t, err)
	assert.Equal(t, 3, f.calls)
}

func TestRetryingStore_AgotaIntentos(t *testing.T) {
	f := &flaky{Store: rowstore.NewMemory(), failures: 10, err: rowstore.Transient(errors.New("503"))}
	s := rowstore.NewRetryingStore(f, fastRetry, zerolog.Nop())
	_, err := s.ReadAll(context.Background(), "T")
	require.ErrorIs(t, err, domain.ErrTransientStore)
	assert.Equal(t, 3, f.calls)
}

func TestRetryingStore_NoReintentaPermanente(t *testing.T) {
	f := &flaky{Store: rowstore.NewMemory(), failures: 10, err: errors.New("403 prohibido")}
	s := rowstore.NewRetryingStore(f, fastRetry, zerolog.Nop())
	_, err := s.ReadAll(context.Background(), "T")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrTransientStore)
	assert.Equal(t, 1, f.calls)
}

// lostAck aplica el borrado y luego responde con error transitorio las primeras n veces.
type lostAck struct {
	rowstore.Store
	failures int
	calls    int
}

func (l *lostAck) DeleteRows(ctx context.Context, table string, rows []int) error {
	l.calls++
	if err := l.Store.DeleteRows(ctx, table, rows); err != nil {
		return err
	}
	if l.calls <= l.failures {
		return rowstore.Transient(errors.New("502 respuesta perdida"))
	}
	return nil
}

func TestRetryingStore_NoReintentaBorradoPosicional(t *testing.T) {
	ctx := context.Background()
	mem := rowstore.NewMemory()
	require.NoError(t, mem.CreateTable(ctx, "T", []string{"ID"}))
	require.NoError(t, mem.AppendRows(ctx, "T", [][]string{{"a"}, {"b"}, {"c"}}))
	l := &lostAck{Store: mem, failures: 1}

	s := rowstore.NewRetryingStore(l, fastRetry, zerolog.Nop())
	err := s.DeleteRows(ctx, "T", []int{0})
	require.Error(t, err)
	assert.True(t, rowstore.IsTransient(err))
	assert.Equal(t, 1, l.calls)

	rows, err := mem.ReadAll(ctx, "T")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"b"}, {"c"}}, rows, "solo se borra una vez")
}

// counting cuenta lecturas que llegan al almacén real.
type counting struct {
	rowstore.Store
	reads int
}

func (c *counting) ReadAll(ctx context.Context, table string) ([][]string, error) {
	c.reads++
	return c.Store.ReadAll(ctx, table)
}

func TestCachedStore_InvalidaTrasEscritura(t *testing.T) {
	ctx := context.Background()
	mem := rowstore.NewMemory()
	require.NoError(t, mem.CreateTable(ctx, "T", []string{"ID", "V"}))
	require.NoError(t, mem.AppendRow(ctx, "T", []string{"a", "1"}))
	c := &counting{Store: mem}
	s := rowstore.NewCachedStore(c, cache.NewMemory(nil), time.Minute, "test:", zerolog.Nop())

	_, err := s.ReadAll(ctx, "T")
	require.NoError(t, err)
	idx, err := s.FindRowByKey(ctx, "T", "a")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 1, c.reads, "la segunda lectura sale de caché")

	require.NoError(t, s.UpdateCell(ctx, "T", 0, 1, "9"))
	rows, err := s.ReadAll(ctx, "T")
	require.NoError(t, err)
	assert.Equal(t, "9", rows[0][1])
	assert.Equal(t, 2, c.reads)
}
