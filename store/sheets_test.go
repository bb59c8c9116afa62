package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/nacionrock/album-votes/poll"
)

// worksheet is a minimal stand-in for the Sheets values API.
type worksheet struct {
	sync.Mutex
	values  [][]any
	cleared []string
	fail    bool
	calls   []string
}

func (w *worksheet) ServeHTTP(rw http.ResponseWriter, rq *http.Request) {
	w.Lock()
	defer w.Unlock()

	path := rq.URL.Path
	w.calls = append(w.calls, rq.Method+" "+path)

	if w.fail && rq.Method != http.MethodGet {
		http.Error(rw, `{"error":{"code":403,"message":"forbidden"}}`, http.StatusForbidden)
		return
	}

	switch {
	case rq.Method == http.MethodGet && strings.Contains(path, "/values/"):
		json.NewEncoder(rw).Encode(map[string]any{
			"range":          "Sheet1!A1:D1000",
			"majorDimension": "ROWS",
			"values":         w.values,
		})

	case rq.Method == http.MethodPut && strings.Contains(path, "/values/"):
		var vr sheets.ValueRange
		if err := json.NewDecoder(rq.Body).Decode(&vr); err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}

		for i, row := range vr.Values {
			if i < len(w.values) {
				w.values[i] = row
			} else {
				w.values = append(w.values, row)
			}
		}

		json.NewEncoder(rw).Encode(map[string]any{"updatedRows": len(vr.Values)})

	case rq.Method == http.MethodPost && strings.HasSuffix(path, "/values:batchClear"):
		var rq2 sheets.BatchClearValuesRequest
		json.NewDecoder(rq.Body).Decode(&rq2)

		for _, r := range rq2.Ranges {
			w.cleared = append(w.cleared, r)

			if match := regexp.MustCompile(`![A-Z](\d+):[A-Z]$`).FindStringSubmatch(r); match != nil {
				if row, _ := strconv.Atoi(match[1]); row > 0 && row <= len(w.values) {
					w.values = w.values[:row-1]
				}
			} else {
				w.values = nil
			}
		}

		json.NewEncoder(rw).Encode(map[string]any{})

	case rq.Method == http.MethodPost && strings.HasSuffix(path, "/values:batchUpdate"):
		var rq2 sheets.BatchUpdateValuesRequest
		if err := json.NewDecoder(rq.Body).Decode(&rq2); err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}

		for _, data := range rq2.Data {
			w.values = append(w.values, data.Values...)
		}

		json.NewEncoder(rw).Encode(map[string]any{})

	default:
		http.NotFound(rw, rq)
	}
}

func newTestSheets(t *testing.T, w *worksheet, mode WriteMode) *Sheets {
	t.Helper()

	srv := httptest.NewServer(w)
	t.Cleanup(srv.Close)

	google, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("Error creating Sheets client (%v)", err)
	}

	s, err := NewSheets(google, "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms/edit", "", mode, false)
	if err != nil {
		t.Fatalf("Error creating Sheets store (%v)", err)
	}

	return s
}

func TestSheetsLoad(t *testing.T) {
	w := worksheet{
		values: [][]any{
			{"artista", "album", "url_portada", "votos"},
			{"Queen", "A Night at the Opera", "http://x/q.jpg", 3},
			{},
			{"Patricio Rey", "Oktubre", "", "n/a"},
		},
	}

	expected := poll.NewTable(
		poll.Entry{Artist: "Queen", Album: "A Night at the Opera", CoverURL: "http://x/q.jpg", Votes: 3},
		poll.Entry{Artist: "Patricio Rey", Album: "Oktubre", Votes: 0},
	)

	table, err := newTestSheets(t, &w, Update).Load(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error loading worksheet (%v)", err)
	}

	if !reflect.DeepEqual(table, expected) {
		t.Errorf("Incorrect table\n   expected: %v\n   got:      %v", expected, table)
	}

	if len(w.calls) != 1 || !strings.Contains(w.calls[0], "/v4/spreadsheets/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms/values/") {
		t.Errorf("Unexpected API calls %v", w.calls)
	}
}

func TestSheetsLoadWithEmptyWorksheet(t *testing.T) {
	w := worksheet{}

	table, err := newTestSheets(t, &w, Update).Load(context.Background())
	if !errors.Is(err, ErrLoad) {
		t.Fatalf("Expected ErrLoad, got %v", err)
	}

	if !reflect.DeepEqual(table, poll.Empty()) {
		t.Errorf("Expected empty table, got %v", table)
	}
}

func TestSheetsSaveUpdate(t *testing.T) {
	w := worksheet{
		values: [][]any{
			{"artista", "album", "url_portada", "votos"},
			{"Queen", "A Night at the Opera", "http://x/q.jpg", 3},
		},
	}

	s := newTestSheets(t, &w, Update)

	table, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error loading worksheet (%v)", err)
	}

	table.Entries[0].Votes = 4

	if err := s.Save(context.Background(), table); err != nil {
		t.Fatalf("Unexpected error saving worksheet (%v)", err)
	}

	reloaded, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error loading worksheet (%v)", err)
	}

	if !reflect.DeepEqual(reloaded, table) {
		t.Errorf("Incorrect table\n   expected: %v\n   got:      %v", table, reloaded)
	}

	if !reflect.DeepEqual(w.cleared, []string{"Sheet1!A3:D"}) {
		t.Errorf("Incorrect cleared ranges - expected %v, got %v", []string{"Sheet1!A3:D"}, w.cleared)
	}
}

func TestSheetsSaveUpdateWithBlankRow(t *testing.T) {
	w := worksheet{
		values: [][]any{
			{"artista", "album", "url_portada", "votos"},
			{"Queen", "A Night at the Opera", "http://x/q.jpg", 3},
			{},
			{"Patricio Rey", "Oktubre", "", 1},
		},
	}

	s := newTestSheets(t, &w, Update)

	table, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error loading worksheet (%v)", err)
	}

	if err := s.Save(context.Background(), table); err != nil {
		t.Fatalf("Unexpected error saving worksheet (%v)", err)
	}

	reloaded, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error loading worksheet (%v)", err)
	}

	expected := poll.NewTable(
		poll.Entry{Artist: "Queen", Album: "A Night at the Opera", CoverURL: "http://x/q.jpg", Votes: 3},
		poll.Entry{Artist: "Patricio Rey", Album: "Oktubre", Votes: 1},
	)

	if !reflect.DeepEqual(reloaded, expected) {
		t.Errorf("Incorrect table\n   expected: %v\n   got:      %v", expected, reloaded)
	}
}

func TestSheetsSaveUpdateWithShorterTable(t *testing.T) {
	w := worksheet{
		values: [][]any{
			{"artista", "album", "url_portada", "votos"},
			{"Queen", "A Night at the Opera", "http://x/q.jpg", 3},
			{"Virus", "Locura", "", 1},
			{"Patricio Rey", "Oktubre", "", 1},
		},
	}

	s := newTestSheets(t, &w, Update)
	table := poll.NewTable(poll.Entry{Artist: "Virus", Album: "Locura", Votes: 2})

	if err := s.Save(context.Background(), table); err != nil {
		t.Fatalf("Unexpected error saving worksheet (%v)", err)
	}

	reloaded, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error loading worksheet (%v)", err)
	}

	if !reflect.DeepEqual(reloaded, table) {
		t.Errorf("Incorrect table\n   expected: %v\n   got:      %v", table, reloaded)
	}
}

func TestSheetsSaveReplace(t *testing.T) {
	w := worksheet{
		values: [][]any{
			{"artista", "album", "url_portada", "votos"},
			{"Queen", "A Night at the Opera", "http://x/q.jpg", 3},
			{"Virus", "Locura", "", 1},
		},
	}

	s := newTestSheets(t, &w, Replace)
	table := poll.NewTable(poll.Entry{Artist: "Virus", Album: "Locura", Votes: 2})

	if err := s.Save(context.Background(), table); err != nil {
		t.Fatalf("Unexpected error saving worksheet (%v)", err)
	}

	if !reflect.DeepEqual(w.cleared, []string{"Sheet1!A:D"}) {
		t.Errorf("Incorrect cleared ranges - expected %v, got %v", []string{"Sheet1!A:D"}, w.cleared)
	}

	reloaded, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error loading worksheet (%v)", err)
	}

	if !reflect.DeepEqual(reloaded, table) {
		t.Errorf("Incorrect table\n   expected: %v\n   got:      %v", table, reloaded)
	}
}

func TestSheetsSaveFailure(t *testing.T) {
	for _, mode := range []WriteMode{Update, Replace} {
		w := worksheet{fail: true}

		err := newTestSheets(t, &w, mode).Save(context.Background(), poll.NewTable(poll.Entry{Album: "Locura"}))
		if !errors.Is(err, ErrSave) {
			t.Errorf("%v: expected ErrSave, got %v", mode, err)
		}
	}
}

func TestNewSheetsWithInvalidMode(t *testing.T) {
	if _, err := NewSheets(nil, "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms", "Sheet1", "append", false); err == nil {
		t.Errorf("Expected error for invalid write mode")
	}
}

func TestSpreadsheetID(t *testing.T) {
	tests := []struct {
		url      string
		expected string
		ok       bool
	}{
		{"https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms", "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms", true},
		{"https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms/edit#gid=0", "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms", true},
		{" 1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms ", "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms", true},
		{"https://example.com/spreadsheets/1Bxi", "", false},
		{"", "", false},
	}

	for _, test := range tests {
		id, err := SpreadsheetID(test.url)
		if test.ok && err != nil {
			t.Errorf("%q: unexpected error (%v)", test.url, err)
		} else if !test.ok && err == nil {
			t.Errorf("%q: expected error, got %q", test.url, id)
		} else if id != test.expected {
			t.Errorf("%q: expected %q, got %q", test.url, test.expected, id)
		}
	}
}

func TestSheetsArea(t *testing.T) {
	tests := map[string]string{
		"Sheet1":        "Sheet1!A1:D",
		"Votos 2025":    "'Votos 2025'!A1:D",
		"Rock'n'Roll":   "'Rock''n''Roll'!A1:D",
		"Nación_Rock":   "'Nación_Rock'!A1:D",
		"Hoja_de_votos": "Hoja_de_votos!A1:D",
	}

	for worksheet, expected := range tests {
		s := Sheets{worksheet: worksheet}
		if area := s.area("A1:D"); area != expected {
			t.Errorf("%q: expected %q, got %q", worksheet, expected, area)
		}
	}
}
