// Package gsheets implementa rowstore.Store sobre Google Sheets: cada tabla es una hoja
// del libro y la fila 1 es el encabezado.
package gsheets

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/rowstore"
)

const lastColumn = "ZZ"

// Store adaptador de Google Sheets.
type Store struct {
	srv           *sheets.Service
	spreadsheetID string

	mu       sync.Mutex
	sheetIDs map[string]int64
}

var _ rowstore.Store = (*Store)(nil)

// New crea el servicio a partir del JSON de una cuenta de servicio.
func New(ctx context.Context, credentialsJSON []byte, spreadsheetID string) (*Store, error) {
	if len(credentialsJSON) == 0 || spreadsheetID == "" {
		return nil, fmt.Errorf("faltan credenciales o ID del libro")
	}
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("credenciales de cuenta de servicio inválidas: %w", err)
	}
	srv, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("crear servicio de sheets: %w", err)
	}
	return NewWithService(srv, spreadsheetID), nil
}

// NewWithService usa un servicio ya construido, p. ej. contra un servidor local con option.WithEndpoint.
func NewWithService(srv *sheets.Service, spreadsheetID string) *Store {
	return &Store{srv: srv, spreadsheetID: spreadsheetID}
}

// sheetID devuelve el ID numérico de la hoja; refresca los metadatos si no la conoce.
func (s *Store) sheetID(ctx context.Context, table string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.sheetIDs[table]; ok {
		return id, true, nil
	}
	ss, err := s.srv.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, false, classify(err)
	}
	s.sheetIDs = make(map[string]int64, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			s.sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	id, ok := s.sheetIDs[table]
	return id, ok, nil
}

func (s *Store) requireTable(ctx context.Context, table string) (int64, error) {
	id, ok, err := s.sheetID(ctx, table)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: %s", rowstore.ErrTableNotFound, table)
	}
	return id, nil
}

func (s *Store) CreateTable(ctx context.Context, table string, header []string) error {
	_, ok, err := s.sheetID(ctx, table)
	if err != nil || ok {
		return err
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{Requests: []*sheets.Request{{
		AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: table}},
	}}}
	resp, err := s.srv.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return classify(err)
	}
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil {
		s.mu.Lock()
		s.sheetIDs[table] = resp.Replies[0].AddSheet.Properties.SheetId
		s.mu.Unlock()
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{toRow(header)}}
	_, err = s.srv.Spreadsheets.Values.Update(s.spreadsheetID, a1(table, "A1"), vr).
		ValueInputOption("RAW").Context(ctx).Do()
	return classify(err)
}

func (s *Store) ReadAll(ctx context.Context, table string) ([][]string, error) {
	if _, err := s.requireTable(ctx, table); err != nil {
		return nil, err
	}
	resp, err := s.srv.Spreadsheets.Values.Get(s.spreadsheetID, a1(table, "A2:"+lastColumn)).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return nil, classify(err)
	}
	rows := make([][]string, len(resp.Values))
	for i, r := range resp.Values {
		rows[i] = make([]string, len(r))
		for j, v := range r {
			rows[i][j] = cellString(v)
		}
	}
	return rows, nil
}

func (s *Store) AppendRow(ctx context.Context, table string, row []string) error {
	return s.AppendRows(ctx, table, [][]string{row})
}

func (s *Store) AppendRows(ctx context.Context, table string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	if _, err := s.requireTable(ctx, table); err != nil {
		return err
	}
	values := make([][]interface{}, len(rows))
	for i, r := range rows {
		values[i] = toRow(r)
	}
	_, err := s.srv.Spreadsheets.Values.Append(s.spreadsheetID, a1(table, "A1"), &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return classify(err)
}

func (s *Store) UpdateCell(ctx context.Context, table string, row, col int, value string) error {
	return s.UpdateCells(ctx, table, []rowstore.CellUpdate{{Row: row, Col: col, Value: value}})
}

func (s *Store) UpdateCells(ctx context.Context, table string, updates []rowstore.CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	if _, err := s.requireTable(ctx, table); err != nil {
		return err
	}
	data := make([]*sheets.ValueRange, 0, len(updates))
	for _, u := range updates {
		if u.Row < 0 || u.Col < 0 {
			return fmt.Errorf("celda fuera de rango %s[%d,%d]", table, u.Row, u.Col)
		}
		data = append(data, &sheets.ValueRange{
			Range:  a1(table, CellName(u.Row, u.Col)),
			Values: [][]interface{}{{u.Value}},
		})
	}
	req := &sheets.BatchUpdateValuesRequest{ValueInputOption: "RAW", Data: data}
	_, err := s.srv.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	return classify(err)
}

func (s *Store) FindRowByKey(ctx context.Context, table, key string) (int, error) {
	if _, err := s.requireTable(ctx, table); err != nil {
		return -1, err
	}
	resp, err := s.srv.Spreadsheets.Values.Get(s.spreadsheetID, a1(table, "A2:A")).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return -1, classify(err)
	}
	for i, r := range resp.Values {
		if len(r) > 0 && cellString(r[0]) == key {
			return i, nil
		}
	}
	return -1, nil
}

// DeleteRows borra de abajo hacia arriba para que los índices sigan siendo válidos.
func (s *Store) DeleteRows(ctx context.Context, table string, rows []int) error {
	if len(rows) == 0 {
		return nil
	}
	sheetID, err := s.requireTable(ctx, table)
	if err != nil {
		return err
	}
	idx := append([]int(nil), rows...)
	sort.Sort(sort.Reverse(sort.IntSlice(idx)))
	var reqs []*sheets.Request
	last := -1
	for _, i := range idx {
		if i == last || i < 0 {
			continue
		}
		last = i
		reqs = append(reqs, &sheets.Request{DeleteDimension: &sheets.DeleteDimensionRequest{
			Range: &sheets.DimensionRange{
				SheetId:         sheetID,
				Dimension:       "ROWS",
				StartIndex:      int64(i + 1), // +1 por el encabezado
				EndIndex:        int64(i + 2),
				ForceSendFields: []string{"SheetId"},
			},
		}})
	}
	_, err = s.srv.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: reqs}).
		Context(ctx).Do()
	return classify(err)
}

func a1(table, rng string) string {
	return fmt.Sprintf("'%s'!%s", table, rng)
}

// CellName nombre A1 de una celda de datos (fila 0 = fila 2 de la hoja).
func CellName(row, col int) string {
	return columnName(col) + strconv.Itoa(row+2)
}

func columnName(col int) string {
	name := ""
	for n := col + 1; n > 0; n = (n - 1) / 26 {
		name = string(rune('A'+(n-1)%26)) + name
	}
	return name
}

func toRow(cells []string) []interface{} {
	out := make([]interface{}, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}

func cellString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// classify marca como transitorios los límites de cuota, los 5xx y los errores de red.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500 {
			return rowstore.Transient(err)
		}
		return err
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return rowstore.Transient(err)
	}
	return err
}
