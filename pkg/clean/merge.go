package clean

import (
	"github.com/eduviz/eduviz/pkg/errors"
	"github.com/eduviz/eduviz/pkg/table"
)

// Merge left-joins a grades table with per-student and, optionally,
// per-subject reference tables. Students join on student_id, subjects on
// subject; colliding column names from the right side gain a _student or
// _subject suffix. Rows without a match keep nulls in the joined columns.
// The result is sorted by date when a date column is present.
func Merge(grades, students, subjects *table.Table) (*table.Table, error) {
	if students.Schema().FieldIndex("student_id") < 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "students table must contain a student_id column")
	}

	merged, err := leftJoin(grades, students, "student_id", "_student")
	if err != nil {
		return nil, err
	}

	if subjects != nil && subjects.Schema().FieldIndex("subject") >= 0 {
		merged, err = leftJoin(merged, subjects, "subject", "_subject")
		if err != nil {
			return nil, err
		}
	}

	if merged.Schema().FieldIndex("date") >= 0 {
		if err := merged.SortBy("date"); err != nil {
			return nil, err
		}
	}

	return merged, nil
}

// leftJoin joins right onto left using the named key column. Only the
// first matching right row per key is used.
func leftJoin(left, right *table.Table, key, suffix string) (*table.Table, error) {
	leftSchema := left.Schema()
	rightSchema := right.Schema()

	// Columns carried over from the right side, key excluded.
	rightCols := make([]int, 0, len(rightSchema.Fields))
	fields := make([]table.Field, 0, len(leftSchema.Fields)+len(rightSchema.Fields))
	fields = append(fields, leftSchema.Fields...)

	for i, f := range rightSchema.Fields {
		if f.Name == key {
			continue
		}
		name := f.Name
		if leftSchema.FieldIndex(name) >= 0 {
			name += suffix
		}
		fields = append(fields, table.Field{Name: name, Type: f.Type, Nullable: true})
		rightCols = append(rightCols, i)
	}

	// Index the right side by key; first occurrence wins.
	index := make(map[string]int, right.NumRows())
	for i := 0; i < right.NumRows(); i++ {
		k, ok := right.String(i, key)
		if !ok {
			continue
		}
		if _, exists := index[k]; !exists {
			index[k] = i
		}
	}

	out := table.New(table.NewSchema(leftSchema.Name, fields))
	for i := 0; i < left.NumRows(); i++ {
		cells := make([]interface{}, 0, len(fields))
		cells = append(cells, left.Cells(i)...)

		matched := -1
		if k, ok := left.String(i, key); ok {
			if idx, found := index[k]; found {
				matched = idx
			}
		}

		for _, col := range rightCols {
			if matched < 0 {
				cells = append(cells, nil)
			} else {
				cells = append(cells, right.Cells(matched)[col])
			}
		}

		if err := out.AppendRow(cells); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to join tables")
		}
	}

	return out, nil
}
