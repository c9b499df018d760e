package results

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/formie/schema"
	"github.com/mbolis/formie/storage"
)

func exampleFields() []schema.Field {
	return []schema.Field{
		schema.TextField{Name: "Name", Default: ""},
		schema.ChoiceField{Name: "Color", Default: 0, Single: false, Choices: []string{"Red", "Green", "Blue"}},
	}
}

func exampleRows() []storage.Row {
	return []storage.Row{
		{ID: 1, Values: map[string]any{"col0": "Ann", "col1": int64(5)}},
		{ID: 2, Values: map[string]any{"col0": "Bob, Jr.", "col1": int64(0)}},
	}
}

func TestTable(t *testing.T) {
	table, err := Table(exampleFields(), exampleRows())
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"1", "Ann", "Red+Blue"},
		{"2", "Bob, Jr.", ""},
	}, table)
}

func TestTableDecodeFault(t *testing.T) {
	fields := []schema.Field{
		schema.ChoiceField{Name: "Pick", Default: 0, Single: true, Choices: []string{"a"}},
	}
	rows := []storage.Row{{ID: 1, Values: map[string]any{"col0": int64(9)}}}

	_, err := Table(fields, rows)
	require.Error(t, err)
	assert.IsType(t, &schema.DecodeError{}, err)
}

func TestCSVMatchesTable(t *testing.T) {
	table, err := Table(exampleFields(), exampleRows())
	require.NoError(t, err)

	data, err := CSV(table)
	require.NoError(t, err)
	assert.Equal(t, "1,Ann,Red+Blue\n2,\"Bob, Jr.\",\n", string(data))

	// parsing the export back yields exactly the table cells
	parsed, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, table, parsed)
}
