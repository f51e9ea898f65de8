package clean

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduviz/eduviz/pkg/table"
)

func TestMerge(t *testing.T) {
	grades := table.New(table.NewSchema("grades", []table.Field{
		{Name: "student_id", Type: table.FieldTypeString, Nullable: true},
		{Name: "subject", Type: table.FieldTypeString, Nullable: true},
		{Name: "grade", Type: table.FieldTypeFloat, Nullable: true},
	}))
	require.NoError(t, grades.AppendRow([]interface{}{"STD001", "Math", 7.0}))
	require.NoError(t, grades.AppendRow([]interface{}{"STD002", "Math", 8.0}))
	require.NoError(t, grades.AppendRow([]interface{}{"STD003", "Physics", 6.0}))

	students := table.New(table.NewSchema("students", []table.Field{
		{Name: "student_id", Type: table.FieldTypeString, Nullable: true},
		{Name: "name", Type: table.FieldTypeString, Nullable: true},
	}))
	require.NoError(t, students.AppendRow([]interface{}{"STD001", "Alice"}))
	require.NoError(t, students.AppendRow([]interface{}{"STD002", "Bob"}))

	subjects := table.New(table.NewSchema("subjects", []table.Field{
		{Name: "subject", Type: table.FieldTypeString, Nullable: true},
		{Name: "credits", Type: table.FieldTypeInt, Nullable: true},
	}))
	require.NoError(t, subjects.AppendRow([]interface{}{"Math", int64(5)}))

	merged, err := Merge(grades, students, subjects)
	require.NoError(t, err)

	assert.Equal(t, 3, merged.NumRows())
	assert.Equal(t, []string{"student_id", "subject", "grade", "name", "credits"}, merged.Columns())

	name, ok := merged.String(0, "name")
	require.True(t, ok)
	assert.Equal(t, "Alice", name)

	credits, err := merged.Value(0, "credits")
	require.NoError(t, err)
	assert.Equal(t, int64(5), credits)

	// STD003 has no student match, Physics no subject match
	name3, err := merged.Value(2, "name")
	require.NoError(t, err)
	assert.Nil(t, name3)

	credits3, err := merged.Value(2, "credits")
	require.NoError(t, err)
	assert.Nil(t, credits3)
}

func TestMergeSuffixesCollidingColumns(t *testing.T) {
	grades := table.New(table.NewSchema("grades", []table.Field{
		{Name: "student_id", Type: table.FieldTypeString, Nullable: true},
		{Name: "group", Type: table.FieldTypeString, Nullable: true},
	}))
	require.NoError(t, grades.AppendRow([]interface{}{"STD001", "GRP-1"}))

	students := table.New(table.NewSchema("students", []table.Field{
		{Name: "student_id", Type: table.FieldTypeString, Nullable: true},
		{Name: "group", Type: table.FieldTypeString, Nullable: true},
	}))
	require.NoError(t, students.AppendRow([]interface{}{"STD001", "GRP-9"}))

	merged, err := Merge(grades, students, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"student_id", "group", "group_student"}, merged.Columns())

	original, ok := merged.String(0, "group")
	require.True(t, ok)
	assert.Equal(t, "GRP-1", original)

	joined, ok := merged.String(0, "group_student")
	require.True(t, ok)
	assert.Equal(t, "GRP-9", joined)
}

func TestMergeRequiresStudentIDColumn(t *testing.T) {
	grades := table.New(table.NewSchema("grades", []table.Field{
		{Name: "student_id", Type: table.FieldTypeString, Nullable: true},
	}))
	bad := table.New(table.NewSchema("students", []table.Field{
		{Name: "name", Type: table.FieldTypeString, Nullable: true},
	}))

	_, err := Merge(grades, bad, nil)
	require.Error(t, err)
}

func TestValidateQualityReport(t *testing.T) {
	tbl := gradeTable(t,
		[]interface{}{"STD001", "Math", 7.0},
		[]interface{}{"STD001", "Physics", nil},
		[]interface{}{"STD002", "Math", 9.0},
	)

	report := Validate(tbl)

	assert.Equal(t, 3, report.TotalRecords)
	assert.Equal(t, 3, report.TotalColumns)
	assert.Equal(t, 2, report.UniqueStudents)
	assert.Equal(t, 2, report.UniqueSubjects)
	assert.InDelta(t, 1.5, report.RecordsPerStudent, 1e-9)

	grade := report.MissingValues["grade"]
	assert.Equal(t, 1, grade.Count)
	assert.InDelta(t, 100.0/3, grade.Percentage, 1e-9)

	stats, ok := report.BasicStats["grade"]
	require.True(t, ok)
	assert.InDelta(t, 8.0, stats.Mean, 1e-9)
	assert.Equal(t, 7.0, stats.Min)
	assert.Equal(t, 9.0, stats.Max)

	assert.Equal(t, table.FieldTypeFloat, report.DataTypes["grade"])
	_, hasStringStats := report.BasicStats["student_id"]
	assert.False(t, hasStringStats)
}
