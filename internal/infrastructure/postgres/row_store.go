package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/rowstore"
)

// schema tablas genéricas: una fila por fila de hoja, celdas como TEXT[].
const schema = `
CREATE TABLE IF NOT EXISTS sheet_tables (
	name       TEXT PRIMARY KEY,
	header     TEXT[] NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS sheet_rows (
	id         BIGSERIAL PRIMARY KEY,
	table_name TEXT NOT NULL REFERENCES sheet_tables(name),
	cells      TEXT[] NOT NULL
);
CREATE INDEX IF NOT EXISTS sheet_rows_table_idx ON sheet_rows (table_name, id);
`

// RowStore implementa rowstore.Store sobre PostgreSQL. El orden de filas es el orden de inserción.
type RowStore struct {
	pool *pgxpool.Pool
}

var _ rowstore.Store = (*RowStore)(nil)

// NewRowStore construye el almacén con el pool.
func NewRowStore(pool *pgxpool.Pool) *RowStore {
	return &RowStore{pool: pool}
}

func (s *RowStore) requireTable(ctx context.Context, q pgx.Tx, table string) error {
	var ok bool
	var err error
	const sql = `SELECT EXISTS (SELECT 1 FROM sheet_tables WHERE name = $1)`
	if q != nil {
		err = q.QueryRow(ctx, sql, table).Scan(&ok)
	} else {
		err = s.pool.QueryRow(ctx, sql, table).Scan(&ok)
	}
	if err != nil {
		return classify(err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", rowstore.ErrTableNotFound, table)
	}
	return nil
}

func (s *RowStore) CreateTable(ctx context.Context, table string, header []string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sheet_tables (name, header) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
		table, header)
	return classify(err)
}

func (s *RowStore) ReadAll(ctx context.Context, table string) ([][]string, error) {
	if err := s.requireTable(ctx, nil, table); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `SELECT cells FROM sheet_rows WHERE table_name = $1 ORDER BY id`, table)
	if err != nil {
		return nil, classify(err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[[]string])
	if err != nil {
		return nil, classify(err)
	}
	if out == nil {
		out = [][]string{}
	}
	return out, nil
}

func (s *RowStore) AppendRow(ctx context.Context, table string, row []string) error {
	return s.AppendRows(ctx, table, [][]string{row})
}

// AppendRows inserta todas las filas en una transacción.
func (s *RowStore) AppendRows(ctx context.Context, table string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.requireTable(ctx, tx, table); err != nil {
			return err
		}
		batch := &pgx.Batch{}
		for _, r := range rows {
			batch.Queue(`INSERT INTO sheet_rows (table_name, cells) VALUES ($1, $2)`, table, r)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	return classify(err)
}

func (s *RowStore) UpdateCell(ctx context.Context, table string, row, col int, value string) error {
	return s.UpdateCells(ctx, table, []rowstore.CellUpdate{{Row: row, Col: col, Value: value}})
}

// idsInOrder devuelve los IDs de fila de la tabla en orden, bloqueados para escritura.
func idsInOrder(ctx context.Context, tx pgx.Tx, table string) ([]int64, [][]string, error) {
	rows, err := tx.Query(ctx, `SELECT id, cells FROM sheet_rows WHERE table_name = $1 ORDER BY id FOR UPDATE`, table)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	var ids []int64
	var cells [][]string
	for rows.Next() {
		var id int64
		var c []string
		if err := rows.Scan(&id, &c); err != nil {
			return nil, nil, err
		}
		ids = append(ids, id)
		cells = append(cells, c)
	}
	return ids, cells, rows.Err()
}

// UpdateCells aplica todas las celdas en una transacción: o se escriben todas o ninguna.
func (s *RowStore) UpdateCells(ctx context.Context, table string, updates []rowstore.CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.requireTable(ctx, tx, table); err != nil {
			return err
		}
		ids, cells, err := idsInOrder(ctx, tx, table)
		if err != nil {
			return err
		}
		touched := make(map[int]bool)
		for _, u := range updates {
			if u.Row < 0 || u.Row >= len(ids) || u.Col < 0 {
				return fmt.Errorf("celda fuera de rango %s[%d,%d]", table, u.Row, u.Col)
			}
			r := cells[u.Row]
			for len(r) <= u.Col {
				r = append(r, "")
			}
			r[u.Col] = u.Value
			cells[u.Row] = r
			touched[u.Row] = true
		}
		for i := range touched {
			if _, err := tx.Exec(ctx, `UPDATE sheet_rows SET cells = $1 WHERE id = $2`, cells[i], ids[i]); err != nil {
				return err
			}
		}
		return nil
	})
	return classify(err)
}

func (s *RowStore) FindRowByKey(ctx context.Context, table, key string) (int, error) {
	if err := s.requireTable(ctx, nil, table); err != nil {
		return -1, err
	}
	var idx int
	err := s.pool.QueryRow(ctx, `
		SELECT idx FROM (
			SELECT cells[1] AS k, (row_number() OVER (ORDER BY id) - 1)::int AS idx
			FROM sheet_rows WHERE table_name = $1
		) t WHERE k = $2 ORDER BY idx LIMIT 1`, table, key).Scan(&idx)
	if errors.Is(err, pgx.ErrNoRows) {
		return -1, nil
	}
	if err != nil {
		return -1, classify(err)
	}
	return idx, nil
}

func (s *RowStore) DeleteRows(ctx context.Context, table string, rows []int) error {
	if len(rows) == 0 {
		return nil
	}
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.requireTable(ctx, tx, table); err != nil {
			return err
		}
		ids, _, err := idsInOrder(ctx, tx, table)
		if err != nil {
			return err
		}
		var del []int64
		for _, i := range rows {
			if i >= 0 && i < len(ids) {
				del = append(del, ids[i])
			}
		}
		_, err = tx.Exec(ctx, `DELETE FROM sheet_rows WHERE id = ANY($1)`, del)
		return err
	})
	return classify(err)
}
