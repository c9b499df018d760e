// Package results projects decoded submissions into presentation formats:
// an ordered cell table for JSON rendering and a CSV byte stream for export.
package results

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/mbolis/formie/schema"
	"github.com/mbolis/formie/storage"
)

// Table decodes every stored row into display cells, row id first. Rows come
// out in storage order and cells in schema order, so the CSV export and the
// table rendering always agree.
func Table(fields []schema.Field, rows []storage.Row) ([][]string, error) {
	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells, err := schema.DecodeRow(fields, row.Values)
		if err != nil {
			return nil, err
		}

		record := make([]string, 0, len(cells)+1)
		record = append(record, strconv.FormatInt(row.ID, 10))
		record = append(record, cells...)
		table = append(table, record)
	}
	return table, nil
}

// CSV serializes a projected table, one line per row, with standard CSV
// quoting for embedded delimiters, quotes and newlines.
func CSV(table [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(table); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
