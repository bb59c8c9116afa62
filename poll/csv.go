package poll

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ReadCSV reads a comma separated table with a header row, applying the same
// cleansing as MakeTable.
func ReadCSV(f io.Reader) (Table, error) {
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return Empty(), err
	}

	if len(records) == 0 {
		return Empty(), fmt.Errorf("CSV file is empty")
	}

	rows := make([][]any, 0, len(records))
	for _, record := range records {
		row := make([]any, len(record))
		for i, v := range record {
			row[i] = v
		}

		rows = append(rows, row)
	}

	return MakeTable(rows)
}

// WriteCSV writes the header and every entry of the table.
func WriteCSV(f io.Writer, table Table) error {
	w := csv.NewWriter(f)

	if err := w.WriteAll(table.Records()); err != nil {
		return err
	}

	return w.Error()
}
