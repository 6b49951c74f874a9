package gsheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/rowstore"
)

// fakeSheets libro en memoria que responde la API REST v4. Cada hoja guarda
// el encabezado en la fila 0, como en Sheets.
type fakeSheets struct {
	mu          sync.Mutex
	ids         map[string]int64
	values      map[string][][]interface{}
	valueBatch  []*sheets.BatchUpdateValuesRequest
	deletes     [][]*sheets.DimensionRange
	failReads   int
	nextSheetID int64
}

func newFakeSheets() *fakeSheets {
	return &fakeSheets{ids: map[string]int64{}, values: map[string][][]interface{}{}, nextSheetID: 100}
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	const prefix = "/v4/spreadsheets/libro"
	p := strings.TrimPrefix(r.URL.Path, prefix)
	switch {
	case r.Method == http.MethodGet && p == "":
		ss := &sheets.Spreadsheet{}
		for title, id := range f.ids {
			ss.Sheets = append(ss.Sheets, &sheets.Sheet{Properties: &sheets.SheetProperties{Title: title, SheetId: id}})
		}
		writeJSON(w, ss)
	case r.Method == http.MethodPost && p == ":batchUpdate":
		var req sheets.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.batchUpdate(w, &req)
	case r.Method == http.MethodPost && p == "/values:batchUpdate":
		var req sheets.BatchUpdateValuesRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.valueBatch = append(f.valueBatch, &req)
		for _, vr := range req.Data {
			title, ref := splitRange(vr.Range)
			row, col := parseCell(ref)
			f.set(title, row, col, vr.Values[0][0])
		}
		writeJSON(w, &sheets.BatchUpdateValuesResponse{})
	case r.Method == http.MethodPost && strings.HasSuffix(p, ":append"):
		title, _ := splitRange(strings.TrimSuffix(strings.TrimPrefix(p, "/values/"), ":append"))
		var vr sheets.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.values[title] = append(f.values[title], vr.Values...)
		writeJSON(w, &sheets.AppendValuesResponse{})
	case r.Method == http.MethodPut && strings.HasPrefix(p, "/values/"):
		title, _ := splitRange(strings.TrimPrefix(p, "/values/"))
		var vr sheets.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		rows := f.values[title]
		if len(rows) == 0 {
			rows = [][]interface{}{nil}
		}
		rows[0] = vr.Values[0]
		f.values[title] = rows
		writeJSON(w, &sheets.UpdateValuesResponse{})
	case r.Method == http.MethodGet && strings.HasPrefix(p, "/values/"):
		if f.failReads > 0 {
			f.failReads--
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"code":503,"message":"backend"}}`))
			return
		}
		title, ref := splitRange(strings.TrimPrefix(p, "/values/"))
		var out [][]interface{}
		if rows := f.values[title]; len(rows) > 1 {
			for _, row := range rows[1:] {
				if ref == "A2:A" && len(row) > 1 {
					row = row[:1]
				}
				out = append(out, row)
			}
		}
		writeJSON(w, &sheets.ValueRange{Range: title, Values: out})
	default:
		http.Error(w, `{"error":{"code":404,"message":"ruta"}}`, http.StatusNotFound)
	}
}

func (f *fakeSheets) batchUpdate(w http.ResponseWriter, req *sheets.BatchUpdateSpreadsheetRequest) {
	resp := &sheets.BatchUpdateSpreadsheetResponse{}
	var dels []*sheets.DimensionRange
	for _, rq := range req.Requests {
		switch {
		case rq.AddSheet != nil:
			f.nextSheetID++
			title := rq.AddSheet.Properties.Title
			f.ids[title] = f.nextSheetID
			resp.Replies = append(resp.Replies, &sheets.Response{AddSheet: &sheets.AddSheetResponse{
				Properties: &sheets.SheetProperties{Title: title, SheetId: f.nextSheetID},
			}})
		case rq.DeleteDimension != nil:
			rng := rq.DeleteDimension.Range
			dels = append(dels, rng)
			for title, id := range f.ids {
				if id != rng.SheetId {
					continue
				}
				rows := f.values[title]
				f.values[title] = append(rows[:rng.StartIndex:rng.StartIndex], rows[rng.EndIndex:]...)
			}
			resp.Replies = append(resp.Replies, &sheets.Response{})
		}
	}
	if len(dels) > 0 {
		f.deletes = append(f.deletes, dels)
	}
	writeJSON(w, resp)
}

func (f *fakeSheets) set(title string, row, col int, v interface{}) {
	rows := f.values[title]
	for len(rows) <= row {
		rows = append(rows, nil)
	}
	for len(rows[row]) <= col {
		rows[row] = append(rows[row], "")
	}
	rows[row][col] = v
	f.values[title] = rows
}

func (f *fakeSheets) batches() []*sheets.BatchUpdateValuesRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*sheets.BatchUpdateValuesRequest(nil), f.valueBatch...)
}

func (f *fakeSheets) deletions() [][]*sheets.DimensionRange {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]*sheets.DimensionRange(nil), f.deletes...)
}

func (f *fakeSheets) row(title string, i int) []interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[title][i]
}

func (f *fakeSheets) sheetID(title string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ids[title]
}

func (f *fakeSheets) failNextReads(n int) {
	f.mu.Lock()
	f.failReads = n
	f.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// splitRange 'T'!B3 -> T, B3.
func splitRange(rng string) (string, string) {
	i := strings.Index(rng, "'!")
	if !strings.HasPrefix(rng, "'") || i < 0 {
		return rng, ""
	}
	return rng[1:i], rng[i+2:]
}

// parseCell B3 -> fila 2, columna 1 (base cero, fila 0 = encabezado).
func parseCell(ref string) (int, int) {
	i := strings.IndexFunc(ref, func(r rune) bool { return r >= '0' && r <= '9' })
	col := 0
	for _, c := range ref[:i] {
		col = col*26 + int(c-'A'+1)
	}
	n, _ := strconv.Atoi(ref[i:])
	return n - 1, col - 1
}

func newTestStore(t *testing.T) (*Store, *fakeSheets) {
	t.Helper()
	fake := newFakeSheets()
	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)
	srv, err := sheets.NewService(context.Background(),
		option.WithEndpoint(ts.URL+"/"), option.WithHTTPClient(ts.Client()))
	require.NoError(t, err)
	return NewWithService(srv, "libro"), fake
}

func TestStore_EncabezadoYFilas(t *testing.T) {
	ctx := context.Background()
	s, fake := newTestStore(t)

	_, err := s.ReadAll(ctx, "DB_INSUMOS")
	require.ErrorIs(t, err, rowstore.ErrTableNotFound)

	require.NoError(t, s.CreateTable(ctx, "DB_INSUMOS", []string{"ID", "NOMBRE"}))
	require.NoError(t, s.CreateTable(ctx, "DB_INSUMOS", []string{"otro"}), "crear es idempotente")
	require.NoError(t, s.AppendRows(ctx, "DB_INSUMOS", [][]string{{"harina", "Harina"}, {"sal", "Sal"}}))

	rows, err := s.ReadAll(ctx, "DB_INSUMOS")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"harina", "Harina"}, {"sal", "Sal"}}, rows, "el encabezado no es una fila de datos")
	assert.Equal(t, []interface{}{"ID", "NOMBRE"}, fake.row("DB_INSUMOS", 0))

	idx, err := s.FindRowByKey(ctx, "DB_INSUMOS", "sal")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	idx, err = s.FindRowByKey(ctx, "DB_INSUMOS", "azucar")
	require.NoError(t, err)
	assert.Equal(t, -1, idx)

	// fila de datos 0 = fila 2 de la hoja
	require.NoError(t, s.UpdateCell(ctx, "DB_INSUMOS", 0, 1, "Harina de trigo"))
	batches := fake.batches()
	require.Len(t, batches, 1)
	assert.Equal(t, "'DB_INSUMOS'!B2", batches[0].Data[0].Range)
	assert.Equal(t, "Harina de trigo", fake.row("DB_INSUMOS", 1)[1])
}

func TestStore_UpdateCellsEnUnLote(t *testing.T) {
	ctx := context.Background()
	s, fake := newTestStore(t)
	require.NoError(t, s.CreateTable(ctx, "T", []string{"ID", "STOCK", "COSTO"}))
	require.NoError(t, s.AppendRows(ctx, "T", [][]string{{"a", "1", "10"}, {"b", "2", "20"}, {"c", "3", "30"}}))

	require.NoError(t, s.UpdateCells(ctx, "T", []rowstore.CellUpdate{
		{Row: 0, Col: 1, Value: "5"},
		{Row: 2, Col: 2, Value: "35"},
	}))
	batches := fake.batches()
	require.Len(t, batches, 1, "una sola llamada para todas las celdas")
	req := batches[0]
	assert.Equal(t, "RAW", req.ValueInputOption)
	require.Len(t, req.Data, 2)
	assert.Equal(t, "'T'!B2", req.Data[0].Range)
	assert.Equal(t, "'T'!C4", req.Data[1].Range)

	rows, err := s.ReadAll(ctx, "T")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "5", "10"}, rows[0])
	assert.Equal(t, []string{"c", "3", "35"}, rows[2])

	assert.Error(t, s.UpdateCells(ctx, "T", []rowstore.CellUpdate{{Row: -1, Col: 0, Value: "x"}}))
	assert.Len(t, fake.batches(), 1, "la validación ocurre antes de llamar a la API")
}

func TestStore_DeleteRowsDeAbajoHaciaArriba(t *testing.T) {
	ctx := context.Background()
	s, fake := newTestStore(t)
	require.NoError(t, s.CreateTable(ctx, "R", []string{"DUENO"}))
	require.NoError(t, s.AppendRows(ctx, "R", [][]string{{"A"}, {"B"}, {"A"}, {"C"}}))
	sheetID := fake.sheetID("R")

	require.NoError(t, s.DeleteRows(ctx, "R", []int{0, 2, 2}))
	all := fake.deletions()
	require.Len(t, all, 1, "un solo batchUpdate")
	dels := all[0]
	require.Len(t, dels, 2, "índices repetidos se borran una vez")
	assert.Equal(t, int64(3), dels[0].StartIndex)
	assert.Equal(t, int64(4), dels[0].EndIndex)
	assert.Equal(t, int64(1), dels[1].StartIndex)
	assert.Equal(t, int64(2), dels[1].EndIndex)
	for _, d := range dels {
		assert.Equal(t, sheetID, d.SheetId)
		assert.Equal(t, "ROWS", d.Dimension)
	}

	rows, err := s.ReadAll(ctx, "R")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"B"}, {"C"}}, rows)
}

func TestStore_ErrorTransitorioPorHTTP(t *testing.T) {
	ctx := context.Background()
	s, fake := newTestStore(t)
	require.NoError(t, s.CreateTable(ctx, "T", []string{"ID"}))
	fake.failNextReads(1)

	_, err := s.ReadAll(ctx, "T")
	require.Error(t, err)
	assert.True(t, rowstore.IsTransient(err))

	_, err = s.ReadAll(ctx, "T")
	assert.NoError(t, err)
}
