// Package excel implementa rowstore.Store sobre un libro .xlsx local (modo sin conexión).
package excel

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/rowstore"
)

// Store libro local. Cada escritura se guarda en disco si hay ruta.
type Store struct {
	mu   sync.Mutex
	f    *excelize.File
	path string
}

var _ rowstore.Store = (*Store)(nil)

// Open abre el libro en path o crea uno nuevo si no existe.
func Open(path string) (*Store, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		f = excelize.NewFile()
		if err := f.SaveAs(path); err != nil {
			return nil, fmt.Errorf("crear libro %s: %w", path, err)
		}
	}
	return &Store{f: f, path: path}, nil
}

// NewInMemory libro sin archivo, para pruebas y exportaciones.
func NewInMemory() *Store {
	return &Store{f: excelize.NewFile()}
}

// Close libera el libro.
func (s *Store) Close() error { return s.f.Close() }

func (s *Store) save() error {
	if s.path == "" {
		return nil
	}
	if err := s.f.SaveAs(s.path); err != nil {
		return fmt.Errorf("guardar libro: %w", err)
	}
	return nil
}

func (s *Store) exists(table string) bool {
	idx, err := s.f.GetSheetIndex(table)
	return err == nil && idx >= 0
}

func (s *Store) dataRows(table string) ([][]string, error) {
	if !s.exists(table) {
		return nil, fmt.Errorf("%w: %s", rowstore.ErrTableNotFound, table)
	}
	rows, err := s.f.GetRows(table)
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return [][]string{}, nil
	}
	return rows[1:], nil
}

func (s *Store) CreateTable(_ context.Context, table string, header []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exists(table) {
		return nil
	}
	if _, err := s.f.NewSheet(table); err != nil {
		return err
	}
	if err := s.f.SetSheetRow(table, "A1", &header); err != nil {
		return err
	}
	return s.save()
}

func (s *Store) ReadAll(_ context.Context, table string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dataRows(table)
}

func (s *Store) AppendRow(ctx context.Context, table string, row []string) error {
	return s.AppendRows(ctx, table, [][]string{row})
}

func (s *Store) AppendRows(_ context.Context, table string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.dataRows(table)
	if err != nil {
		return err
	}
	next := len(existing) + 2
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, next+i)
		if err != nil {
			return err
		}
		row := r
		if err := s.f.SetSheetRow(table, cell, &row); err != nil {
			return err
		}
	}
	return s.save()
}

func (s *Store) UpdateCell(ctx context.Context, table string, row, col int, value string) error {
	return s.UpdateCells(ctx, table, []rowstore.CellUpdate{{Row: row, Col: col, Value: value}})
}

func (s *Store) UpdateCells(_ context.Context, table string, updates []rowstore.CellUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.dataRows(table)
	if err != nil {
		return err
	}
	for _, u := range updates {
		if u.Row < 0 || u.Row >= len(rows) || u.Col < 0 {
			return fmt.Errorf("celda fuera de rango %s[%d,%d]", table, u.Row, u.Col)
		}
	}
	for _, u := range updates {
		cell, err := excelize.CoordinatesToCellName(u.Col+1, u.Row+2)
		if err != nil {
			return err
		}
		if err := s.f.SetCellStr(table, cell, u.Value); err != nil {
			return err
		}
	}
	return s.save()
}

func (s *Store) FindRowByKey(_ context.Context, table, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.dataRows(table)
	if err != nil {
		return -1, err
	}
	for i, r := range rows {
		if len(r) > 0 && r[0] == key {
			return i, nil
		}
	}
	return -1, nil
}

func (s *Store) DeleteRows(_ context.Context, table string, rows []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.exists(table) {
		return fmt.Errorf("%w: %s", rowstore.ErrTableNotFound, table)
	}
	idx := append([]int(nil), rows...)
	sort.Sort(sort.Reverse(sort.IntSlice(idx)))
	last := -1
	for _, i := range idx {
		if i == last || i < 0 {
			continue
		}
		last = i
		if err := s.f.RemoveRow(table, i+2); err != nil {
			return err
		}
	}
	return s.save()
}
