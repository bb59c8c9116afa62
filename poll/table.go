package poll

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MakeTable builds a table from worksheet rows. The first row is the header
// and columns are matched by name, so the column order of the source does not
// matter. Blank rows are dropped and the vote count is coerced to a
// non-negative integer.
func MakeTable(rows [][]any) (Table, error) {
	if len(rows) == 0 {
		return Empty(), fmt.Errorf("Empty sheet")
	}

	// .. build index
	index := map[string]int{}
	for i, v := range rows[0] {
		k := normalise(cell(v))
		if k == "" {
			continue
		}

		if _, ok := index[k]; ok {
			return Empty(), fmt.Errorf("Duplicate column name '%v'", v)
		}

		index[k] = i
	}

	if len(index) == 0 {
		return Empty(), fmt.Errorf("Missing/invalid header row")
	}

	for _, h := range Header() {
		if _, ok := index[normalise(h)]; !ok {
			return Empty(), fmt.Errorf("Missing '%s' column", h)
		}
	}

	// ... records
	table := Empty()
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}

		get := func(column string) any {
			if ix := index[normalise(column)]; ix < len(row) {
				return row[ix]
			}

			return nil
		}

		table.Entries = append(table.Entries, Entry{
			Artist:   clean(cell(get(ARTIST))),
			Album:    clean(cell(get(ALBUM))),
			CoverURL: clean(cell(get(COVER))),
			Votes:    Votes(get(VOTES)),
		})
	}

	return table, nil
}

// Votes coerces a cell value to a vote count. Anything that is not a finite,
// non-negative number counts as zero, fractions are truncated and counts above
// MaxVotes are clamped to MaxVotes.
func Votes(v any) int {
	switch n := v.(type) {
	case nil:
		return 0

	case int:
		return count(int64(n))

	case int64:
		return count(n)

	case float64:
		return truncate(n)

	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return count(i)
		} else if x, err := strconv.ParseFloat(s, 64); err == nil {
			return truncate(x)
		}

		return 0

	default:
		return Votes(fmt.Sprintf("%v", n))
	}
}

func count(n int64) int {
	if n <= 0 {
		return 0
	} else if n > MaxVotes {
		return MaxVotes
	}

	return int(n)
}

func truncate(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	} else if f >= MaxVotes {
		return MaxVotes
	}

	return int(math.Trunc(f))
}

func blank(row []any) bool {
	for _, v := range row {
		if clean(cell(v)) != "" {
			return false
		}
	}

	return true
}

func cell(v any) string {
	switch s := v.(type) {
	case nil:
		return ""

	case string:
		return s

	default:
		return fmt.Sprintf("%v", s)
	}
}

func clean(v string) string {
	return strings.TrimSpace(v)
}

func normalise(v string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(v), " ", ""))
}
