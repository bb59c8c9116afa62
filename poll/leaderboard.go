package poll

import (
	"sort"
)

// Top returns the n entries with the most votes in descending order. Entries
// with the same count keep their table order.
func Top(table Table, n int) []Entry {
	if n <= 0 {
		return []Entry{}
	}

	entries := make([]Entry, len(table.Entries))
	copy(entries, table.Entries)

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Votes > entries[j].Votes
	})

	if len(entries) > n {
		entries = entries[:n]
	}

	return entries
}

// Total returns the sum of all the votes in the table.
func Total(table Table) int {
	total := 0
	for _, e := range table.Entries {
		total += e.Votes
	}

	return total
}
