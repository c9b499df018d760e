// Package storage maps decoded schemas to per-form answer tables and
// provides the create/insert/query primitives over them. Every form gets its
// own table, named after the form id, with one column per non-info field.
package storage

import (
	"database/sql"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/mbolis/formie/schema"
)

type ColumnType string

const (
	TextColumn    ColumnType = "TEXT"
	IntegerColumn ColumnType = "INTEGER"
)

// Column describes one answer column of a form table.
type Column struct {
	Name    string
	Type    ColumnType
	Default any
}

// Shape is the immutable column layout of one form's answer table.
type Shape struct {
	Table   string
	Columns []Column
}

// Row is one stored submission: the auto-assigned row id plus the answer
// column values keyed by column name.
type Row struct {
	ID     int64
	Values map[string]any
}

// Registry memoizes form shapes by form id. Entries are populated on first
// access and never evicted or invalidated: schemas are immutable once a form
// exists, so a shape can never go stale.
//
// The mutex only guards the map itself. Table creation happens inside a
// per-id sync.Once, so concurrent first accesses for the same form create
// the backing table at most once while unrelated form ids never wait on each
// other's DDL.
type Registry struct {
	db     *sql.DB
	mu     sync.Mutex
	shapes map[string]*shapeEntry
}

type shapeEntry struct {
	once  sync.Once
	shape *Shape
	err   error
}

func NewRegistry(db *sql.DB) *Registry {
	return &Registry{
		db:     db,
		shapes: make(map[string]*shapeEntry),
	}
}

// ColumnsFor derives the column layout from a decoded schema. Column names
// are positional over the original field list, so info fields keep later
// indices stable even though they get no column themselves.
//
// This is the single derivation used by the creation, submission and results
// paths: the column set must be the same pure function of the schema in all
// three, or they would disagree on column names.
func ColumnsFor(fields []schema.Field) []Column {
	columns := make([]Column, 0, len(fields))
	for i, field := range fields {
		name := "col" + strconv.Itoa(i)
		switch field := field.(type) {
		case schema.InfoField:
			continue
		case schema.TextField:
			columns = append(columns, Column{Name: name, Type: TextColumn, Default: field.Default})
		case schema.ChoiceField:
			columns = append(columns, Column{Name: name, Type: IntegerColumn, Default: field.Default})
		case schema.RangeField:
			columns = append(columns, Column{Name: name, Type: IntegerColumn, Default: field.Default})
		}
	}
	return columns
}

// GetOrCreate returns the shape for formID, creating the backing table on
// first access. Losing a creation race is a no-op: the winner's entry is
// returned and CREATE TABLE IF NOT EXISTS absorbs any duplicate DDL.
func (r *Registry) GetOrCreate(formID string, fields []schema.Field) (*Shape, error) {
	r.mu.Lock()
	entry, ok := r.shapes[formID]
	if !ok {
		entry = &shapeEntry{}
		r.shapes[formID] = entry
	}
	r.mu.Unlock()

	entry.once.Do(func() {
		shape := &Shape{Table: formID, Columns: ColumnsFor(fields)}
		if err := r.createTable(shape); err != nil {
			entry.err = errors.Wrapf(err, "create answer table for form %s", formID)
			return
		}
		entry.shape = shape
	})

	if entry.err != nil {
		// drop the failed entry so a later request can retry creation
		r.mu.Lock()
		if r.shapes[formID] == entry {
			delete(r.shapes, formID)
		}
		r.mu.Unlock()
		return nil, entry.err
	}
	return entry.shape, nil
}

func (r *Registry) createTable(shape *Shape) error {
	var ddl strings.Builder
	ddl.WriteString("CREATE TABLE IF NOT EXISTS ")
	ddl.WriteString(quoteIdent(shape.Table))
	ddl.WriteString(` ("id" INTEGER PRIMARY KEY AUTOINCREMENT`)
	for _, col := range shape.Columns {
		ddl.WriteString(", ")
		ddl.WriteString(quoteIdent(col.Name))
		ddl.WriteString(" ")
		ddl.WriteString(string(col.Type))
		ddl.WriteString(" DEFAULT ")
		ddl.WriteString(literal(col.Default))
	}
	ddl.WriteString(")")

	_, err := r.db.Exec(ddl.String())
	return err
}

// Insert stores one encoded submission and returns the assigned row id.
// Columns absent from values fall back to their declared defaults.
func (r *Registry) Insert(shape *Shape, values map[string]any) (int64, error) {
	names := make([]string, 0, len(shape.Columns))
	marks := make([]string, 0, len(shape.Columns))
	args := make([]any, 0, len(shape.Columns))
	for _, col := range shape.Columns {
		v, ok := values[col.Name]
		if !ok {
			continue
		}
		names = append(names, quoteIdent(col.Name))
		marks = append(marks, "?")
		args = append(args, v)
	}

	query := "INSERT INTO " + quoteIdent(shape.Table) + " DEFAULT VALUES"
	if len(names) > 0 {
		query = "INSERT INTO " + quoteIdent(shape.Table) +
			" (" + strings.Join(names, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
	}

	res, err := r.db.Exec(query, args...)
	if err != nil {
		return 0, errors.Wrapf(err, "insert into form table %s", shape.Table)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrapf(err, "insert into form table %s", shape.Table)
	}
	return id, nil
}

// Rows returns every stored submission in insertion order.
func (r *Registry) Rows(shape *Shape) ([]Row, error) {
	names := make([]string, 0, len(shape.Columns)+1)
	names = append(names, `"id"`)
	for _, col := range shape.Columns {
		names = append(names, quoteIdent(col.Name))
	}
	query := "SELECT " + strings.Join(names, ", ") +
		" FROM " + quoteIdent(shape.Table) + ` ORDER BY "id"`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, errors.Wrapf(err, "query form table %s", shape.Table)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		var id int64
		values := make([]any, len(shape.Columns))
		dest := make([]any, 0, len(shape.Columns)+1)
		dest = append(dest, &id)
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrapf(err, "scan form table %s", shape.Table)
		}

		row := Row{ID: id, Values: make(map[string]any, len(shape.Columns))}
		for i, col := range shape.Columns {
			row.Values[col.Name] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "query form table %s", shape.Table)
	}
	return result, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func literal(v any) string {
	switch v := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	}
	return "NULL"
}
