// Package table provides the in-memory tabular data structure produced by
// load operations: ordered rows over named, ordered, typed columns.
//
// Cells hold typed scalars (string, int64, float64, bool) with nil as the
// explicit null marker. The column set is fixed at construction and every
// appended row is validated against it, so the column count and names are
// consistent across all rows by construction.
package table

import (
	"sort"

	"github.com/eduviz/eduviz/pkg/errors"
)

// Row is a mapping view of a single table row, from column name to cell
// value. Mutating a Row does not write back to the table.
type Row map[string]interface{}

// Table is an ordered sequence of rows sharing a single schema. A Table is
// constructed fresh by each load and owned entirely by the caller; the
// loader retains no reference after returning it.
type Table struct {
	schema *Schema
	rows   [][]interface{}
}

// New creates an empty table with the given schema.
func New(schema *Schema) *Table {
	return &Table{
		schema: schema,
		rows:   make([][]interface{}, 0),
	}
}

// Schema returns the table schema.
func (t *Table) Schema() *Schema {
	return t.schema
}

// Columns returns the ordered column names.
func (t *Table) Columns() []string {
	return t.schema.ColumnNames()
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return len(t.rows)
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return len(t.schema.Fields)
}

// AppendRow appends an ordered row of cells. The cell count must match the
// column count exactly; a short or long row fails the append.
func (t *Table) AppendRow(cells []interface{}) error {
	if len(cells) != len(t.schema.Fields) {
		return errors.New(errors.ErrorTypeParse, "row width does not match column count").
			WithDetail("expected", len(t.schema.Fields)).
			WithDetail("got", len(cells))
	}
	row := make([]interface{}, len(cells))
	copy(row, cells)
	t.rows = append(t.rows, row)
	return nil
}

// AppendMap appends a row given as a column name to value mapping. Columns
// absent from the mapping become null; unknown keys are rejected.
func (t *Table) AppendMap(row Row) error {
	for name := range row {
		if t.schema.FieldIndex(name) < 0 {
			return errors.Newf(errors.ErrorTypeData, "unknown column %q", name)
		}
	}
	cells := make([]interface{}, len(t.schema.Fields))
	for i, f := range t.schema.Fields {
		cells[i] = row[f.Name]
	}
	t.rows = append(t.rows, cells)
	return nil
}

// Row returns a mapping view of the i-th row.
func (t *Table) Row(i int) Row {
	row := make(Row, len(t.schema.Fields))
	for j, f := range t.schema.Fields {
		row[f.Name] = t.rows[i][j]
	}
	return row
}

// Cells returns the ordered cell slice of the i-th row. The slice is shared
// with the table and must not be mutated.
func (t *Table) Cells(i int) []interface{} {
	return t.rows[i]
}

// Value returns the cell at row i in the named column.
func (t *Table) Value(i int, column string) (interface{}, error) {
	idx := t.schema.FieldIndex(column)
	if idx < 0 {
		return nil, errors.Newf(errors.ErrorTypeData, "unknown column %q", column)
	}
	if i < 0 || i >= len(t.rows) {
		return nil, errors.Newf(errors.ErrorTypeData, "row index %d out of range", i)
	}
	return t.rows[i][idx], nil
}

// Column returns all cells of the named column, in row order.
func (t *Table) Column(name string) ([]interface{}, error) {
	idx := t.schema.FieldIndex(name)
	if idx < 0 {
		return nil, errors.Newf(errors.ErrorTypeData, "unknown column %q", name)
	}
	values := make([]interface{}, len(t.rows))
	for i, row := range t.rows {
		values[i] = row[idx]
	}
	return values, nil
}

// Float returns the cell at row i in the named column as a float64. Both
// integer and float cells convert; null and non-numeric cells report false.
func (t *Table) Float(i int, column string) (float64, bool) {
	idx := t.schema.FieldIndex(column)
	if idx < 0 || i < 0 || i >= len(t.rows) {
		return 0, false
	}
	return AsFloat(t.rows[i][idx])
}

// String returns the cell at row i in the named column rendered as text.
// Null cells report false.
func (t *Table) String(i int, column string) (string, bool) {
	idx := t.schema.FieldIndex(column)
	if idx < 0 || i < 0 || i >= len(t.rows) {
		return "", false
	}
	if t.rows[i][idx] == nil {
		return "", false
	}
	return FormatValue(t.rows[i][idx]), true
}

// FloatColumn returns the non-null numeric values of the named column, in
// row order. Null cells are skipped.
func (t *Table) FloatColumn(name string) ([]float64, error) {
	values, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := AsFloat(v); ok {
			out = append(out, f)
		}
	}
	return out, nil
}

// SetValue replaces the cell at row i in the named column.
func (t *Table) SetValue(i int, column string, value interface{}) error {
	idx := t.schema.FieldIndex(column)
	if idx < 0 {
		return errors.Newf(errors.ErrorTypeData, "unknown column %q", column)
	}
	if i < 0 || i >= len(t.rows) {
		return errors.Newf(errors.ErrorTypeData, "row index %d out of range", i)
	}
	t.rows[i][idx] = value
	return nil
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	clone := New(t.schema.Clone())
	clone.rows = make([][]interface{}, len(t.rows))
	for i, row := range t.rows {
		cells := make([]interface{}, len(row))
		copy(cells, row)
		clone.rows[i] = cells
	}
	return clone
}

// Filter returns a new table containing the rows for which keep returns
// true, preserving order.
func (t *Table) Filter(keep func(i int) bool) *Table {
	out := New(t.schema.Clone())
	for i, row := range t.rows {
		if keep(i) {
			cells := make([]interface{}, len(row))
			copy(cells, row)
			out.rows = append(out.rows, cells)
		}
	}
	return out
}

// SortBy stably sorts the rows ascending by the named column. Null cells
// order first; values of mixed types order by their textual form.
func (t *Table) SortBy(column string) error {
	idx := t.schema.FieldIndex(column)
	if idx < 0 {
		return errors.Newf(errors.ErrorTypeData, "unknown column %q", column)
	}
	sort.SliceStable(t.rows, func(a, b int) bool {
		return lessValue(t.rows[a][idx], t.rows[b][idx])
	})
	return nil
}

// Equal reports whether two tables have equal schemas and cell-for-cell
// equal rows, including null markers.
func (t *Table) Equal(other *Table) bool {
	if other == nil {
		return false
	}
	if !t.schema.Equal(other.schema) {
		return false
	}
	if len(t.rows) != len(other.rows) {
		return false
	}
	for i, row := range t.rows {
		for j, cell := range row {
			if cell != other.rows[i][j] {
				return false
			}
		}
	}
	return true
}

// AsFloat converts a numeric cell to float64.
func AsFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

func lessValue(a, b interface{}) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	af, aok := AsFloat(a)
	bf, bok := AsFloat(b)
	if aok && bok {
		return af < bf
	}
	return FormatValue(a) < FormatValue(b)
}
