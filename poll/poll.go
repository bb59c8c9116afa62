package poll

import (
	"fmt"
	"strings"
)

// Column names of the album table, in the order they are written to a
// worksheet or file.
const (
	ARTIST = "artista"
	ALBUM  = "album"
	COVER  = "url_portada"
	VOTES  = "votos"
)

// MaxVotes is the largest vote count a worksheet number cell holds exactly.
const MaxVotes = 1 << 53

// Entry is one album's display and vote record.
type Entry struct {
	Artist   string `json:"artista"`
	Album    string `json:"album"`
	CoverURL string `json:"url_portada"`
	Votes    int    `json:"votos"`
}

// Table is the ordered list of entries at a point in time. The position of
// an entry is its identity for voting.
type Table struct {
	Header  []string `json:"header"`
	Entries []Entry  `json:"entries"`
}

// Header returns the canonical header row.
func Header() []string {
	return []string{ARTIST, ALBUM, COVER, VOTES}
}

// Empty returns a table with the canonical header and no entries.
func Empty() Table {
	return Table{
		Header:  Header(),
		Entries: []Entry{},
	}
}

func NewTable(entries ...Entry) Table {
	t := Empty()
	t.Entries = append(t.Entries, entries...)

	return t
}

func (t Table) Len() int {
	return len(t.Entries)
}

func (t Table) IsEmpty() bool {
	return len(t.Entries) == 0
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	header := make([]string, len(t.Header))
	copy(header, t.Header)

	entries := make([]Entry, len(t.Entries))
	copy(entries, t.Entries)

	return Table{
		Header:  header,
		Entries: entries,
	}
}

// Increment returns a copy of the table with one vote added to the entry at
// index. The second return value is false if the index is out of range or the
// entry already has MaxVotes, in which case the table is returned unchanged.
func (t Table) Increment(index int) (Table, bool) {
	if index < 0 || index >= len(t.Entries) {
		return t, false
	}

	if t.Entries[index].Votes >= MaxVotes {
		return t, false
	}

	updated := t.Clone()
	updated.Entries[index].Votes++

	return updated, true
}

// Values returns the table as worksheet rows: the header followed by one row
// per entry, with the vote count as an integer.
func (t Table) Values() [][]any {
	header := t.Header
	if len(header) == 0 {
		header = Header()
	}

	h := make([]any, len(header))
	for i, v := range header {
		h[i] = v
	}

	rows := [][]any{h}
	for _, e := range t.Entries {
		rows = append(rows, []any{e.Artist, e.Album, e.CoverURL, e.Votes})
	}

	return rows
}

// Records returns the table as string records for a delimited file.
func (t Table) Records() [][]string {
	header := t.Header
	if len(header) == 0 {
		header = Header()
	}

	records := [][]string{append([]string{}, header...)}
	for _, e := range t.Entries {
		records = append(records, []string{e.Artist, e.Album, e.CoverURL, fmt.Sprintf("%d", e.Votes)})
	}

	return records
}

func (e Entry) String() string {
	return fmt.Sprintf("%s - %s (%d)", e.Artist, e.Album, e.Votes)
}

func (e Entry) HasCover() bool {
	return strings.TrimSpace(e.CoverURL) != ""
}
