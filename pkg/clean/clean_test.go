package clean

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduviz/eduviz/pkg/table"
)

func gradeTable(t *testing.T, rows ...[]interface{}) *table.Table {
	t.Helper()
	tbl := table.New(table.NewSchema("grades", []table.Field{
		{Name: "student_id", Type: table.FieldTypeString, Nullable: true},
		{Name: "subject", Type: table.FieldTypeString, Nullable: true},
		{Name: "grade", Type: table.FieldTypeFloat, Nullable: true},
	}))
	for _, row := range rows {
		require.NoError(t, tbl.AppendRow(row))
	}
	return tbl
}

func TestCleanRemovesDuplicates(t *testing.T) {
	tbl := gradeTable(t,
		[]interface{}{"STD001", "Math", 7.0},
		[]interface{}{"STD001", "Math", 7.0},
		[]interface{}{"STD002", "Math", 8.0},
	)

	out, report, err := Clean(tbl, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, out.NumRows())
	assert.Equal(t, 1, report.DuplicatesRemoved)
	assert.Equal(t, 3, report.InitialRows)
	assert.Equal(t, 2, report.FinalRows)
}

func TestCleanFillsGradesWithSubjectMedian(t *testing.T) {
	tbl := gradeTable(t,
		[]interface{}{"STD001", "Math", 6.0},
		[]interface{}{"STD002", "Math", 8.0},
		[]interface{}{"STD003", "Math", nil},
	)

	out, report, err := Clean(tbl, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, report.GradesFilled)
	assert.Equal(t, 3, out.NumRows())

	g, ok := out.Float(2, "grade")
	require.True(t, ok)
	assert.Equal(t, 7.0, g)
}

func TestCleanDropsIncompleteRows(t *testing.T) {
	tbl := gradeTable(t,
		[]interface{}{"STD001", "Math", 7.0},
		[]interface{}{nil, "Math", 8.0},
		// no other grade in Physics to fill the median from
		[]interface{}{"STD003", "Physics", nil},
	)

	out, report, err := Clean(tbl, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, out.NumRows())
	assert.Equal(t, 2, report.IncompleteDropped)
}

func TestCleanFiltersGradeRange(t *testing.T) {
	tbl := gradeTable(t,
		[]interface{}{"STD001", "Math", 7.0},
		[]interface{}{"STD002", "Math", 15.0},
		[]interface{}{"STD003", "Math", 0.5},
	)

	out, report, err := Clean(tbl, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, out.NumRows())
	assert.Equal(t, 2, report.InvalidGrades)
}

func TestCleanNormalizesNumericStudentIDs(t *testing.T) {
	tbl := table.New(table.NewSchema("grades", []table.Field{
		{Name: "student_id", Type: table.FieldTypeInt, Nullable: true},
		{Name: "subject", Type: table.FieldTypeString, Nullable: true},
		{Name: "grade", Type: table.FieldTypeFloat, Nullable: true},
	}))
	require.NoError(t, tbl.AppendRow([]interface{}{int64(123), "Math", 7.0}))

	out, _, err := Clean(tbl, DefaultOptions())
	require.NoError(t, err)

	idx := out.Schema().FieldIndex("student_id")
	assert.Equal(t, table.FieldTypeString, out.Schema().Fields[idx].Type)

	id, ok := out.String(0, "student_id")
	require.True(t, ok)
	assert.Equal(t, "123", id)
}

func TestCleanDerivesCalendarColumns(t *testing.T) {
	tbl := table.New(table.NewSchema("grades", []table.Field{
		{Name: "student_id", Type: table.FieldTypeString, Nullable: true},
		{Name: "subject", Type: table.FieldTypeString, Nullable: true},
		{Name: "grade", Type: table.FieldTypeFloat, Nullable: true},
		{Name: "date", Type: table.FieldTypeString, Nullable: true},
	}))
	require.NoError(t, tbl.AppendRow([]interface{}{"STD001", "Math", 7.0, "2025-03-10"}))
	require.NoError(t, tbl.AppendRow([]interface{}{"STD002", "Math", 8.0, "not a date"}))

	out, _, err := Clean(tbl, DefaultOptions())
	require.NoError(t, err)

	require.True(t, out.Schema().FieldIndex("week") >= 0)
	require.True(t, out.Schema().FieldIndex("month") >= 0)
	require.True(t, out.Schema().FieldIndex("day_of_week") >= 0)

	week, err := out.Value(0, "week")
	require.NoError(t, err)
	assert.Equal(t, int64(11), week) // 2025-03-10 is ISO week 11

	month, err := out.Value(0, "month")
	require.NoError(t, err)
	assert.Equal(t, int64(3), month)

	day, ok := out.String(0, "day_of_week")
	require.True(t, ok)
	assert.Equal(t, "Monday", day)

	// unparseable dates leave the derived cells null
	week, err = out.Value(1, "week")
	require.NoError(t, err)
	assert.Nil(t, week)
}

func TestCleanDoesNotMutateInput(t *testing.T) {
	tbl := gradeTable(t,
		[]interface{}{"STD001", "Math", 7.0},
		[]interface{}{"STD001", "Math", 7.0},
	)

	_, _, err := Clean(tbl, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.NumRows())
}
