package rowstore

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Cache guarda lecturas completas de tabla por un tiempo limitado.
type Cache interface {
	Get(ctx context.Context, key string) ([][]string, bool, error)
	Set(ctx context.Context, key string, rows [][]string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CachedStore sirve ReadAll y FindRowByKey desde caché e invalida la tabla tras cualquier escritura.
// Un fallo de la caché nunca falla la operación: se registra y se va al almacén.
type CachedStore struct {
	next   Store
	cache  Cache
	ttl    time.Duration
	prefix string
	log    zerolog.Logger
}

var _ Store = (*CachedStore)(nil)

// NewCachedStore envuelve next. prefix separa las llaves entre libros distintos.
func NewCachedStore(next Store, cache Cache, ttl time.Duration, prefix string, log zerolog.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = 3 * time.Minute
	}
	return &CachedStore{next: next, cache: cache, ttl: ttl, prefix: prefix, log: log}
}

func (s *CachedStore) key(table string) string { return s.prefix + "rows:" + table }

func (s *CachedStore) invalidate(ctx context.Context, table string) {
	if err := s.cache.Delete(ctx, s.key(table)); err != nil {
		s.log.Warn().Err(err).Str("table", table).Msg("caché: no se pudo invalidar")
	}
}

func (s *CachedStore) CreateTable(ctx context.Context, table string, header []string) error {
	defer s.invalidate(ctx, table)
	return s.next.CreateTable(ctx, table, header)
}

func (s *CachedStore) ReadAll(ctx context.Context, table string) ([][]string, error) {
	rows, ok, err := s.cache.Get(ctx, s.key(table))
	if err != nil {
		s.log.Warn().Err(err).Str("table", table).Msg("caché: lectura fallida")
	}
	if ok {
		return rows, nil
	}
	rows, err = s.next.ReadAll(ctx, table)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, s.key(table), rows, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("table", table).Msg("caché: escritura fallida")
	}
	return rows, nil
}

func (s *CachedStore) AppendRow(ctx context.Context, table string, row []string) error {
	defer s.invalidate(ctx, table)
	return s.next.AppendRow(ctx, table, row)
}

func (s *CachedStore) AppendRows(ctx context.Context, table string, rows [][]string) error {
	defer s.invalidate(ctx, table)
	return s.next.AppendRows(ctx, table, rows)
}

func (s *CachedStore) UpdateCell(ctx context.Context, table string, row, col int, value string) error {
	defer s.invalidate(ctx, table)
	return s.next.UpdateCell(ctx, table, row, col, value)
}

func (s *CachedStore) UpdateCells(ctx context.Context, table string, updates []CellUpdate) error {
	defer s.invalidate(ctx, table)
	return s.next.UpdateCells(ctx, table, updates)
}

func (s *CachedStore) FindRowByKey(ctx context.Context, table, key string) (int, error) {
	rows, err := s.ReadAll(ctx, table)
	if err != nil {
		return -1, err
	}
	return findKey(rows, key), nil
}

func (s *CachedStore) DeleteRows(ctx context.Context, table string, rows []int) error {
	defer s.invalidate(ctx, table)
	return s.next.DeleteRows(ctx, table, rows)
}
