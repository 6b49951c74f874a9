package rowstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type memTable struct {
	header []string
	rows   [][]string
}

// Memory almacén en memoria protegido por RWMutex, para desarrollo y pruebas.
type Memory struct {
	mu     sync.RWMutex
	tables map[string]*memTable
}

var _ Store = (*Memory)(nil)

// NewMemory crea un almacén vacío.
func NewMemory() *Memory {
	return &Memory{tables: make(map[string]*memTable)}
}

func (m *Memory) CreateTable(_ context.Context, table string, header []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[table]; ok {
		return nil
	}
	m.tables[table] = &memTable{header: append([]string(nil), header...)}
	return nil
}

func (m *Memory) ReadAll(_ context.Context, table string) ([][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	out := make([][]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func (m *Memory) AppendRow(ctx context.Context, table string, row []string) error {
	return m.AppendRows(ctx, table, [][]string{row})
}

func (m *Memory) AppendRows(_ context.Context, table string, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[table]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	for _, r := range rows {
		t.rows = append(t.rows, append([]string(nil), r...))
	}
	return nil
}

func (m *Memory) UpdateCell(ctx context.Context, table string, row, col int, value string) error {
	return m.UpdateCells(ctx, table, []CellUpdate{{Row: row, Col: col, Value: value}})
}

func (m *Memory) UpdateCells(_ context.Context, table string, updates []CellUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[table]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	for _, u := range updates {
		if u.Row < 0 || u.Row >= len(t.rows) || u.Col < 0 {
			return fmt.Errorf("celda fuera de rango %s[%d,%d]", table, u.Row, u.Col)
		}
	}
	for _, u := range updates {
		r := t.rows[u.Row]
		for len(r) <= u.Col {
			r = append(r, "")
		}
		r[u.Col] = u.Value
		t.rows[u.Row] = r
	}
	return nil
}

func (m *Memory) FindRowByKey(_ context.Context, table, key string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[table]
	if !ok {
		return -1, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return findKey(t.rows, key), nil
}

func (m *Memory) DeleteRows(_ context.Context, table string, rows []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[table]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	idx := append([]int(nil), rows...)
	sort.Sort(sort.Reverse(sort.IntSlice(idx)))
	last := -1
	for _, i := range idx {
		if i == last || i < 0 || i >= len(t.rows) {
			continue
		}
		t.rows = append(t.rows[:i], t.rows[i+1:]...)
		last = i
	}
	return nil
}
