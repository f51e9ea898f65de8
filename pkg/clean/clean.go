// Package clean prepares raw student-grade tables for analysis: duplicate
// removal, missing-value handling, range filtering, identifier
// normalization and derived calendar columns.
package clean

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eduviz/eduviz/pkg/errors"
	"github.com/eduviz/eduviz/pkg/logger"
	"github.com/eduviz/eduviz/pkg/stats"
	"github.com/eduviz/eduviz/pkg/table"
)

// Options controls the cleaning pipeline.
type Options struct {
	// GradeMin and GradeMax bound the valid grade range; rows outside it
	// are dropped.
	GradeMin float64
	GradeMax float64

	// RequiredColumns are the columns a row must have non-null for the row
	// to survive cleaning.
	RequiredColumns []string

	// FillAttendance is the value substituted for missing attendance.
	FillAttendance float64
}

// DefaultOptions returns the cleaning defaults for the 1-10 grading scale.
func DefaultOptions() Options {
	return Options{
		GradeMin:        1,
		GradeMax:        10,
		RequiredColumns: []string{"student_id", "grade", "subject"},
		FillAttendance:  1.0,
	}
}

// Report summarizes what cleaning changed.
type Report struct {
	InitialRows       int `json:"initial_rows"`
	DuplicatesRemoved int `json:"duplicates_removed"`
	GradesFilled      int `json:"grades_filled"`
	AttendanceFilled  int `json:"attendance_filled"`
	IncompleteDropped int `json:"incomplete_dropped"`
	InvalidGrades     int `json:"invalid_grades"`
	FinalRows         int `json:"final_rows"`
}

// Clean returns a cleaned copy of the table together with a report of the
// applied changes. The input table is not modified.
func Clean(tbl *table.Table, opts Options) (*table.Table, *Report, error) {
	if opts.GradeMax == 0 && opts.GradeMin == 0 {
		defaults := DefaultOptions()
		opts.GradeMin = defaults.GradeMin
		opts.GradeMax = defaults.GradeMax
	}
	if opts.RequiredColumns == nil {
		opts.RequiredColumns = DefaultOptions().RequiredColumns
	}
	if opts.FillAttendance == 0 {
		opts.FillAttendance = DefaultOptions().FillAttendance
	}

	report := &Report{InitialRows: tbl.NumRows()}

	out := dropDuplicates(tbl, report)

	if out.Schema().FieldIndex("grade") >= 0 && out.Schema().FieldIndex("subject") >= 0 {
		fillGradesBySubjectMedian(out, report)
	}
	if out.Schema().FieldIndex("attendance") >= 0 {
		fillAttendance(out, opts.FillAttendance, report)
	}

	out = dropIncomplete(out, opts.RequiredColumns, report)

	if out.Schema().FieldIndex("grade") >= 0 {
		out = filterGradeRange(out, opts.GradeMin, opts.GradeMax, report)
	}

	ensureStringColumn(out, "student_id")
	ensureStringColumn(out, "group")

	var err error
	out, err = deriveCalendarColumns(out)
	if err != nil {
		return nil, nil, err
	}

	report.FinalRows = out.NumRows()

	logger.Get().Info("data cleaned",
		zap.Int("initial_rows", report.InitialRows),
		zap.Int("final_rows", report.FinalRows),
		zap.Int("duplicates_removed", report.DuplicatesRemoved),
		zap.Int("invalid_grades", report.InvalidGrades))

	return out, report, nil
}

// dropDuplicates removes rows whose full cell sequence repeats an earlier
// row.
func dropDuplicates(tbl *table.Table, report *Report) *table.Table {
	seen := make(map[string]struct{}, tbl.NumRows())
	out := tbl.Filter(func(i int) bool {
		key := rowKey(tbl.Cells(i))
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		return true
	})
	report.DuplicatesRemoved = tbl.NumRows() - out.NumRows()
	return out
}

func rowKey(cells []interface{}) string {
	var b strings.Builder
	for _, cell := range cells {
		if cell == nil {
			b.WriteString("\x00∅")
		} else {
			b.WriteString(table.FormatValue(cell))
		}
		b.WriteByte('\x1f')
	}
	return b.String()
}

// fillGradesBySubjectMedian substitutes each missing grade with the median
// of the non-missing grades of the same subject.
func fillGradesBySubjectMedian(tbl *table.Table, report *Report) {
	bySubject := make(map[string][]float64)
	for i := 0; i < tbl.NumRows(); i++ {
		subject, ok := tbl.String(i, "subject")
		if !ok {
			continue
		}
		if grade, ok := tbl.Float(i, "grade"); ok {
			bySubject[subject] = append(bySubject[subject], grade)
		}
	}

	medians := make(map[string]float64, len(bySubject))
	for subject, grades := range bySubject {
		medians[subject] = stats.Median(grades)
	}

	for i := 0; i < tbl.NumRows(); i++ {
		if _, ok := tbl.Float(i, "grade"); ok {
			continue
		}
		subject, ok := tbl.String(i, "subject")
		if !ok {
			continue
		}
		if median, ok := medians[subject]; ok {
			_ = tbl.SetValue(i, "grade", median)
			report.GradesFilled++
		}
	}
}

func fillAttendance(tbl *table.Table, fill float64, report *Report) {
	for i := 0; i < tbl.NumRows(); i++ {
		if _, ok := tbl.Float(i, "attendance"); !ok {
			_ = tbl.SetValue(i, "attendance", fill)
			report.AttendanceFilled++
		}
	}
}

// dropIncomplete removes rows that are still missing a required column
// after filling.
func dropIncomplete(tbl *table.Table, required []string, report *Report) *table.Table {
	present := make([]string, 0, len(required))
	for _, col := range required {
		if tbl.Schema().FieldIndex(col) >= 0 {
			present = append(present, col)
		}
	}

	before := tbl.NumRows()
	out := tbl.Filter(func(i int) bool {
		cells := tbl.Cells(i)
		for _, col := range present {
			if cells[tbl.Schema().FieldIndex(col)] == nil {
				return false
			}
		}
		return true
	})
	report.IncompleteDropped = before - out.NumRows()
	return out
}

func filterGradeRange(tbl *table.Table, min, max float64, report *Report) *table.Table {
	before := tbl.NumRows()
	out := tbl.Filter(func(i int) bool {
		grade, ok := tbl.Float(i, "grade")
		if !ok {
			return true
		}
		return grade >= min && grade <= max
	})
	report.InvalidGrades = before - out.NumRows()
	return out
}

// ensureStringColumn rewrites the named column to string cells, so numeric
// looking identifiers compare and group as text.
func ensureStringColumn(tbl *table.Table, column string) {
	idx := tbl.Schema().FieldIndex(column)
	if idx < 0 || tbl.Schema().Fields[idx].Type == table.FieldTypeString {
		return
	}
	for i := 0; i < tbl.NumRows(); i++ {
		if cell := tbl.Cells(i)[idx]; cell != nil {
			_ = tbl.SetValue(i, column, table.FormatValue(cell))
		}
	}
	tbl.Schema().Fields[idx].Type = table.FieldTypeString
}

// deriveCalendarColumns appends week, month and day_of_week columns
// computed from an ISO-formatted date column, when one is present and the
// targets are not.
func deriveCalendarColumns(tbl *table.Table) (*table.Table, error) {
	schema := tbl.Schema()
	if schema.FieldIndex("date") < 0 {
		return tbl, nil
	}

	addWeek := schema.FieldIndex("week") < 0
	addMonth := schema.FieldIndex("month") < 0
	addDay := schema.FieldIndex("day_of_week") < 0
	if !addWeek && !addMonth && !addDay {
		return tbl, nil
	}

	fields := make([]table.Field, len(schema.Fields), len(schema.Fields)+3)
	copy(fields, schema.Fields)
	if addWeek {
		fields = append(fields, table.Field{Name: "week", Type: table.FieldTypeInt, Nullable: true})
	}
	if addMonth {
		fields = append(fields, table.Field{Name: "month", Type: table.FieldTypeInt, Nullable: true})
	}
	if addDay {
		fields = append(fields, table.Field{Name: "day_of_week", Type: table.FieldTypeString, Nullable: true})
	}

	out := table.New(table.NewSchema(schema.Name, fields))
	for i := 0; i < tbl.NumRows(); i++ {
		cells := make([]interface{}, 0, len(fields))
		cells = append(cells, tbl.Cells(i)...)

		var week, month, day interface{}
		if raw, ok := tbl.String(i, "date"); ok {
			if t, err := parseDate(raw); err == nil {
				_, isoWeek := t.ISOWeek()
				week = int64(isoWeek)
				month = int64(t.Month())
				day = t.Weekday().String()
			}
		}
		if addWeek {
			cells = append(cells, week)
		}
		if addMonth {
			cells = append(cells, month)
		}
		if addDay {
			cells = append(cells, day)
		}
		if err := out.AppendRow(cells); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to derive calendar columns")
		}
	}
	return out, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02.01.2006",
}

func parseDate(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
