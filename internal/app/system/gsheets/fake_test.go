package gsheets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// fakeGoogle serves the subset of the Sheets v4 and Drive v3 REST surface
// the client uses, backed by in-memory grids.
type fakeGoogle struct {
	mu     sync.Mutex
	next   int
	books  map[string]map[string][][]string // id -> worksheet -> grid
	titles map[string]string
	perms  map[string][]*drive.Permission
	calls  []string
	query  map[string]string // last query string per method+kind
}

func newFakeGoogle() *fakeGoogle {
	return &fakeGoogle{
		books:  map[string]map[string][][]string{},
		titles: map[string]string{},
		perms:  map[string][]*drive.Permission{},
		query:  map[string]string{},
	}
}

func (f *fakeGoogle) grid(id, ws string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.books[id][ws]
}

func (f *fakeGoogle) seed(id, ws string, grid [][]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.books[id] == nil {
		f.books[id] = map[string][][]string{}
	}
	f.books[id][ws] = grid
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Requested entity was not found."}}`))
}

func (f *fakeGoogle) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/drive/v3")
	f.calls = append(f.calls, r.Method+" "+path)

	switch {
	case strings.HasPrefix(path, "/files/"):
		f.serveDrive(w, r, strings.Split(strings.TrimPrefix(path, "/files/"), "/"))
	case path == "/v4/spreadsheets" && r.Method == http.MethodPost:
		var req sheets.Spreadsheet
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.next++
		id := fmt.Sprintf("book-%d", f.next)
		f.books[id] = map[string][][]string{}
		for _, s := range req.Sheets {
			f.books[id][s.Properties.Title] = nil
		}
		f.titles[id] = req.Properties.Title
		writeJSON(w, map[string]string{"spreadsheetId": id})
	case strings.HasPrefix(path, "/v4/spreadsheets/"):
		f.serveSheets(w, r, strings.TrimPrefix(path, "/v4/spreadsheets/"))
	default:
		http.Error(w, "unexpected "+r.Method+" "+path, http.StatusBadRequest)
	}
}

func (f *fakeGoogle) serveSheets(w http.ResponseWriter, r *http.Request, rest string) {
	switch {
	case strings.HasSuffix(rest, "/values:batchUpdate"):
		id := strings.TrimSuffix(rest, "/values:batchUpdate")
		if f.books[id] == nil {
			notFound(w)
			return
		}
		var req sheets.BatchUpdateValuesRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, vr := range req.Data {
			ws, row, col := parseA1(vr.Range)
			f.books[id][ws] = put(f.books[id][ws], row, col, vr.Values)
		}
		writeJSON(w, map[string]string{"spreadsheetId": id})
	case strings.Contains(rest, "/values/"):
		parts := strings.SplitN(rest, "/values/", 2)
		id := parts[0]
		ws, _, _ := parseA1(parts[1])
		grid, ok := f.books[id][ws]
		if !ok {
			notFound(w)
			return
		}
		writeJSON(w, map[string]interface{}{"range": parts[1], "values": trim(grid)})
	case strings.HasSuffix(rest, ":batchUpdate"):
		id := strings.TrimSuffix(rest, ":batchUpdate")
		var req sheets.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			if rq.AddSheet != nil {
				f.books[id][rq.AddSheet.Properties.Title] = nil
			}
		}
		writeJSON(w, map[string]string{"spreadsheetId": id})
	case r.Method == http.MethodGet:
		book, ok := f.books[rest]
		if !ok {
			notFound(w)
			return
		}
		var list []map[string]interface{}
		for title := range book {
			list = append(list, map[string]interface{}{"properties": map[string]string{"title": title}})
		}
		writeJSON(w, map[string]interface{}{"sheets": list})
	default:
		http.Error(w, "unexpected sheets call "+rest, http.StatusBadRequest)
	}
}

func (f *fakeGoogle) serveDrive(w http.ResponseWriter, r *http.Request, parts []string) {
	id := parts[0]
	f.query[r.Method] = r.URL.RawQuery
	switch {
	case len(parts) == 2 && r.Method == http.MethodPost:
		var p drive.Permission
		_ = json.NewDecoder(r.Body).Decode(&p)
		f.next++
		p.Id = fmt.Sprintf("perm-%d", f.next)
		f.perms[id] = append(f.perms[id], &p)
		writeJSON(w, p)
	case len(parts) == 2 && r.Method == http.MethodGet:
		writeJSON(w, map[string]interface{}{"permissions": f.perms[id]})
	case len(parts) == 3 && r.Method == http.MethodPatch:
		var upd drive.Permission
		_ = json.NewDecoder(r.Body).Decode(&upd)
		for _, p := range f.perms[id] {
			if p.Id == parts[2] {
				p.Role = upd.Role
				writeJSON(w, p)
				return
			}
		}
		notFound(w)
	case len(parts) == 3 && r.Method == http.MethodDelete:
		kept := f.perms[id][:0]
		for _, p := range f.perms[id] {
			if p.Id != parts[2] {
				kept = append(kept, p)
			}
		}
		f.perms[id] = kept
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "unexpected drive call", http.StatusBadRequest)
	}
}

// parseA1 splits "'ws'!B3" into ("ws", 3, 2). A bare sheet gives row and
// column 1.
func parseA1(a1 string) (ws string, row, col int) {
	sheet, cell := a1, "A1"
	if i := strings.LastIndex(a1, "!"); i >= 0 {
		sheet, cell = a1[:i], a1[i+1:]
	}
	sheet = strings.TrimSuffix(strings.TrimPrefix(sheet, "'"), "'")
	ws = strings.ReplaceAll(sheet, "''", "'")

	i := 0
	for i < len(cell) && cell[i] >= 'A' && cell[i] <= 'Z' {
		col = col*26 + int(cell[i]-'A'+1)
		i++
	}
	row, _ = strconv.Atoi(cell[i:])
	return ws, row, col
}

func put(grid [][]string, row, col int, values [][]interface{}) [][]string {
	for i, vals := range values {
		r := row - 1 + i
		for len(grid) <= r {
			grid = append(grid, nil)
		}
		for j, v := range vals {
			c := col - 1 + j
			for len(grid[r]) <= c {
				grid[r] = append(grid[r], "")
			}
			grid[r][c] = fmt.Sprint(v)
		}
	}
	return grid
}

// trim drops trailing blank cells and rows the way the Sheets API does.
func trim(grid [][]string) [][]string {
	out := make([][]string, 0, len(grid))
	for _, r := range grid {
		n := len(r)
		for n > 0 && r[n-1] == "" {
			n--
		}
		out = append(out, r[:n])
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out
}

func newTestClient(t *testing.T, cfg Options) (*Client, *fakeGoogle) {
	t.Helper()
	fg := newFakeGoogle()
	srv := httptest.NewServer(fg)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	ss, err := sheets.NewService(ctx, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("sheets.NewService: %v", err)
	}
	ds, err := drive.NewService(ctx, option.WithEndpoint(srv.URL+"/drive/v3/"), option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("drive.NewService: %v", err)
	}
	return NewWithServices(ss, ds, cfg, zap.NewNop()), fg
}
