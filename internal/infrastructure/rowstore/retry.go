package rowstore

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain"
)

// RetryPolicy parámetros del reintento exponencial.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy tres intentos con espera exponencial.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, InitialInterval: 500 * time.Millisecond, MaxInterval: 5 * time.Second}

// RetryingStore reintenta los errores transitorios del almacén.
// Agotados los intentos devuelve un error que envuelve domain.ErrTransientStore.
// Un AppendRows reintentado puede duplicar filas si la respuesta original se perdió.
// DeleteRows nunca se reintenta.
type RetryingStore struct {
	next   Store
	policy RetryPolicy
	log    zerolog.Logger
}

var _ Store = (*RetryingStore)(nil)

// NewRetryingStore envuelve next.
func NewRetryingStore(next Store, policy RetryPolicy, log zerolog.Logger) *RetryingStore {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultRetryPolicy.MaxAttempts
	}
	if policy.InitialInterval <= 0 {
		policy.InitialInterval = DefaultRetryPolicy.InitialInterval
	}
	if policy.MaxInterval <= 0 {
		policy.MaxInterval = DefaultRetryPolicy.MaxInterval
	}
	return &RetryingStore{next: next, policy: policy, log: log}
}

func (s *RetryingStore) do(ctx context.Context, op, table string, fn func() error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.policy.InitialInterval
	eb.MaxInterval = s.policy.MaxInterval
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(s.policy.MaxAttempts-1)), ctx)

	attempt := 0
	var last error
	err := backoff.RetryNotify(func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		last = err
		if !IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, wait time.Duration) {
		s.log.Warn().Err(err).Str("op", op).Str("table", table).
			Int("attempt", attempt).Dur("backoff", wait).Msg("almacén: error transitorio, reintentando")
	})
	if err == nil {
		return nil
	}
	if IsTransient(last) {
		return fmt.Errorf("%w: %s %s tras %d intentos: %v", domain.ErrTransientStore, op, table, attempt, last)
	}
	return err
}

func (s *RetryingStore) CreateTable(ctx context.Context, table string, header []string) error {
	return s.do(ctx, "create_table", table, func() error { return s.next.CreateTable(ctx, table, header) })
}

func (s *RetryingStore) ReadAll(ctx context.Context, table string) ([][]string, error) {
	var rows [][]string
	err := s.do(ctx, "read_all", table, func() error {
		var err error
		rows, err = s.next.ReadAll(ctx, table)
		return err
	})
	return rows, err
}

func (s *RetryingStore) AppendRow(ctx context.Context, table string, row []string) error {
	return s.do(ctx, "append_row", table, func() error { return s.next.AppendRow(ctx, table, row) })
}

func (s *RetryingStore) AppendRows(ctx context.Context, table string, rows [][]string) error {
	return s.do(ctx, "append_rows", table, func() error { return s.next.AppendRows(ctx, table, rows) })
}

func (s *RetryingStore) UpdateCell(ctx context.Context, table string, row, col int, value string) error {
	return s.do(ctx, "update_cell", table, func() error { return s.next.UpdateCell(ctx, table, row, col, value) })
}

func (s *RetryingStore) UpdateCells(ctx context.Context, table string, updates []CellUpdate) error {
	return s.do(ctx, "update_cells", table, func() error { return s.next.UpdateCells(ctx, table, updates) })
}

func (s *RetryingStore) FindRowByKey(ctx context.Context, table, key string) (int, error) {
	idx := -1
	err := s.do(ctx, "find_row", table, func() error {
		var err error
		idx, err = s.next.FindRowByKey(ctx, table, key)
		return err
	})
	return idx, err
}

// DeleteRows no se reintenta: los índices son posicionales y un borrado aplicado cuya
// respuesta se perdió desplazaría las filas. El error transitorio se devuelve tal cual
// para que quien conoce la clave relea y decida.
func (s *RetryingStore) DeleteRows(ctx context.Context, table string, rows []int) error {
	err := s.next.DeleteRows(ctx, table, rows)
	if err != nil && IsTransient(err) {
		s.log.Warn().Err(err).Str("op", "delete_rows").Str("table", table).Msg("almacén: borrado posicional sin reintento")
	}
	return err
}
