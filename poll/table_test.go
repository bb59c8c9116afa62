package poll

import (
	"bytes"
	"reflect"
	"testing"
)

func TestMakeTable(t *testing.T) {
	expected := Table{
		Header: []string{"artista", "album", "url_portada", "votos"},
		Entries: []Entry{
			{Artist: "Queen", Album: "A Night at the Opera", CoverURL: "http://x/q.jpg", Votes: 3},
			{Artist: "Soda Stereo", Album: "Canción Animal", CoverURL: "", Votes: 12},
		},
	}

	data := [][]any{
		{"artista", "album", "url_portada", "votos"},
		{"Queen", "A Night at the Opera", "http://x/q.jpg", "3"},
		{"Soda Stereo", "Canción Animal", "", "12"},
	}

	table, err := MakeTable(data)
	if err != nil {
		t.Fatalf("Unexpected error returned from MakeTable (%v)", err)
	}

	if !reflect.DeepEqual(table, expected) {
		t.Errorf("Incorrect table\n   expected: %v\n   got:      %v\n", expected, table)
	}
}

func TestMakeTableWithOutOfOrderColumns(t *testing.T) {
	expected := Table{
		Header: []string{"artista", "album", "url_portada", "votos"},
		Entries: []Entry{
			{Artist: "Queen", Album: "A Night at the Opera", CoverURL: "http://x/q.jpg", Votes: 3},
		},
	}

	data := [][]any{
		{"Votos", "URL_Portada", "Album", "Artista"},
		{"3", "http://x/q.jpg", "A Night at the Opera", "Queen"},
	}

	table, err := MakeTable(data)
	if err != nil {
		t.Fatalf("Unexpected error returned from MakeTable (%v)", err)
	}

	if !reflect.DeepEqual(table, expected) {
		t.Errorf("Incorrect table\n   expected: %v\n   got:      %v\n", expected, table)
	}
}

func TestMakeTableDropsBlankRows(t *testing.T) {
	data := [][]any{
		{"artista", "album", "url_portada", "votos"},
		{"Queen", "A Night at the Opera", "", "3"},
		{"", "", "", ""},
		{"  ", nil},
		{},
		{"Charly García", "Clics Modernos", "", "1"},
	}

	table, err := MakeTable(data)
	if err != nil {
		t.Fatalf("Unexpected error returned from MakeTable (%v)", err)
	}

	if table.Len() != 2 {
		t.Fatalf("Expected 2 entries, got %v", table.Len())
	}

	if table.Entries[1].Album != "Clics Modernos" {
		t.Errorf("Incorrect entry order - expected 'Clics Modernos', got %q", table.Entries[1].Album)
	}
}

func TestMakeTableWithShortRows(t *testing.T) {
	data := [][]any{
		{"artista", "album", "url_portada", "votos"},
		{"Queen", "A Night at the Opera"},
	}

	table, err := MakeTable(data)
	if err != nil {
		t.Fatalf("Unexpected error returned from MakeTable (%v)", err)
	}

	expected := []Entry{
		{Artist: "Queen", Album: "A Night at the Opera", CoverURL: "", Votes: 0},
	}

	if !reflect.DeepEqual(table.Entries, expected) {
		t.Errorf("Incorrect entries\n   expected: %v\n   got:      %v\n", expected, table.Entries)
	}
}

func TestMakeTableWithNumericCells(t *testing.T) {
	data := [][]any{
		{"artista", "album", "url_portada", "votos"},
		{"Queen", "A Night at the Opera", "", float64(7)},
		{"Sumo", "Llegando los monos", "", 2.9},
	}

	table, err := MakeTable(data)
	if err != nil {
		t.Fatalf("Unexpected error returned from MakeTable (%v)", err)
	}

	if table.Entries[0].Votes != 7 {
		t.Errorf("Incorrect votes - expected 7, got %v", table.Entries[0].Votes)
	}

	if table.Entries[1].Votes != 2 {
		t.Errorf("Incorrect votes - expected 2, got %v", table.Entries[1].Votes)
	}
}

func TestMakeTableWithEmptySheet(t *testing.T) {
	table, err := MakeTable([][]any{})
	if err == nil {
		t.Fatalf("Expected error return for empty sheet, got %v", err)
	}

	if !reflect.DeepEqual(table.Header, Header()) || table.Len() != 0 {
		t.Errorf("Expected empty table with header, got %v", table)
	}
}

func TestMakeTableWithoutHeaders(t *testing.T) {
	_, err := MakeTable([][]any{{}})
	if err == nil {
		t.Fatalf("Expected error return for missing headers, got %v", err)
	}
}

func TestMakeTableWithMissingColumn(t *testing.T) {
	tests := [][]any{
		{"album", "url_portada", "votos"},
		{"artista", "url_portada", "votos"},
		{"artista", "album", "votos"},
		{"artista", "album", "url_portada"},
	}

	for _, header := range tests {
		if _, err := MakeTable([][]any{header}); err == nil {
			t.Errorf("Expected error return for header %v, got %v", header, err)
		}
	}
}

func TestMakeTableWithDuplicateColumn(t *testing.T) {
	data := [][]any{
		{"artista", "album", "url_portada", "votos", "Album"},
	}

	if _, err := MakeTable(data); err == nil {
		t.Fatalf("Expected error return for duplicate column, got %v", err)
	}
}

func TestVotes(t *testing.T) {
	tests := []struct {
		value    any
		expected int
	}{
		{nil, 0},
		{"", 0},
		{"3", 3},
		{" 42 ", 42},
		{"4.7", 4},
		{"abc", 0},
		{"-5", 0},
		{"NaN", 0},
		{"Inf", 0},
		{float64(12), 12},
		{-1.5, 0},
		{int64(9), 9},
		{17, 17},
		{true, 0},
		{"2147483648", 2147483648},
		{int64(MaxVotes), MaxVotes},
		{int64(MaxVotes) + 1, MaxVotes},
		{float64(MaxVotes), MaxVotes},
		{1e300, MaxVotes},
		{"9007199254740993", MaxVotes},
	}

	for _, test := range tests {
		if v := Votes(test.value); v != test.expected {
			t.Errorf("Votes(%#v): expected %v, got %v", test.value, test.expected, v)
		}
	}
}

func TestIncrement(t *testing.T) {
	table := NewTable(
		Entry{Artist: "Queen", Album: "A Night at the Opera", Votes: 3},
		Entry{Artist: "Virus", Album: "Locura", Votes: 1},
	)

	updated, ok := table.Increment(0)
	if !ok {
		t.Fatalf("Expected increment of entry 0 to succeed")
	}

	if updated.Entries[0].Votes != 4 {
		t.Errorf("Incorrect votes - expected 4, got %v", updated.Entries[0].Votes)
	}

	if updated.Entries[1] != table.Entries[1] {
		t.Errorf("Unexpected change to entry 1 - expected %v, got %v", table.Entries[1], updated.Entries[1])
	}

	if table.Entries[0].Votes != 3 {
		t.Errorf("Increment modified the original table")
	}

	for _, index := range []int{-1, 2, 100} {
		if unchanged, ok := table.Increment(index); ok {
			t.Errorf("Expected increment of entry %v to fail", index)
		} else if !reflect.DeepEqual(unchanged, table) {
			t.Errorf("Table changed by out of range increment %v", index)
		}
	}
}

func TestIncrementAtMaxVotes(t *testing.T) {
	table := NewTable(
		Entry{Artist: "Queen", Album: "A Night at the Opera", Votes: MaxVotes - 1},
	)

	updated, ok := table.Increment(0)
	if !ok {
		t.Fatalf("Expected increment below MaxVotes to succeed")
	}

	if updated.Entries[0].Votes != MaxVotes {
		t.Errorf("Incorrect votes - expected %v, got %v", MaxVotes, updated.Entries[0].Votes)
	}

	if unchanged, ok := updated.Increment(0); ok {
		t.Errorf("Expected increment at MaxVotes to fail")
	} else if !reflect.DeepEqual(unchanged, updated) {
		t.Errorf("Table changed by increment at MaxVotes")
	}
}

func TestIncrementPastInt32(t *testing.T) {
	table := NewTable(Entry{Artist: "Queen", Album: "A Night at the Opera", Votes: 2147483647})

	updated, ok := table.Increment(0)
	if !ok {
		t.Fatalf("Expected increment to succeed")
	}

	var b bytes.Buffer
	if err := WriteCSV(&b, updated); err != nil {
		t.Fatalf("Unexpected error writing CSV (%v)", err)
	}

	reloaded, err := ReadCSV(&b)
	if err != nil {
		t.Fatalf("Unexpected error reading CSV (%v)", err)
	}

	if votes := reloaded.Entries[0].Votes; votes != 2147483648 {
		t.Errorf("Incorrect votes - expected %v, got %v", 2147483648, votes)
	}
}

func TestValues(t *testing.T) {
	table := NewTable(Entry{Artist: "Queen", Album: "A Night at the Opera", CoverURL: "http://x/q.jpg", Votes: 4})

	expected := [][]any{
		{"artista", "album", "url_portada", "votos"},
		{"Queen", "A Night at the Opera", "http://x/q.jpg", 4},
	}

	if values := table.Values(); !reflect.DeepEqual(values, expected) {
		t.Errorf("Incorrect values\n   expected: %v\n   got:      %v\n", expected, values)
	}
}
