package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduviz/eduviz/pkg/errors"
)

func gradeSchema() *Schema {
	return NewSchema("grades", []Field{
		{Name: "student_id", Type: FieldTypeString, Nullable: true},
		{Name: "grade", Type: FieldTypeFloat, Nullable: true},
		{Name: "week", Type: FieldTypeInt, Nullable: true},
	})
}

func TestAppendRow(t *testing.T) {
	tbl := New(gradeSchema())

	require.NoError(t, tbl.AppendRow([]interface{}{"STD001", 7.5, int64(1)}))
	require.NoError(t, tbl.AppendRow([]interface{}{"STD002", nil, int64(1)}))

	assert.Equal(t, 2, tbl.NumRows())
	assert.Equal(t, 3, tbl.NumCols())

	v, err := tbl.Value(0, "grade")
	require.NoError(t, err)
	assert.Equal(t, 7.5, v)

	v, err = tbl.Value(1, "grade")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestAppendRowWidthMismatch(t *testing.T) {
	tbl := New(gradeSchema())

	err := tbl.AppendRow([]interface{}{"STD001", 7.5})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeParse))
}

func TestAppendRowCopiesCells(t *testing.T) {
	tbl := New(gradeSchema())

	cells := []interface{}{"STD001", 7.5, int64(1)}
	require.NoError(t, tbl.AppendRow(cells))

	cells[0] = "STD999"
	require.NoError(t, tbl.AppendRow(cells))

	id, ok := tbl.String(0, "student_id")
	require.True(t, ok)
	assert.Equal(t, "STD001", id)
}

func TestAppendMap(t *testing.T) {
	tbl := New(gradeSchema())

	require.NoError(t, tbl.AppendMap(Row{"student_id": "STD001", "grade": 8.0}))

	row := tbl.Row(0)
	assert.Equal(t, "STD001", row["student_id"])
	assert.Equal(t, 8.0, row["grade"])
	assert.Nil(t, row["week"])

	err := tbl.AppendMap(Row{"nope": 1})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestFloatAndString(t *testing.T) {
	tbl := New(gradeSchema())
	require.NoError(t, tbl.AppendRow([]interface{}{"STD001", 7.5, int64(3)}))
	require.NoError(t, tbl.AppendRow([]interface{}{nil, nil, nil}))

	t.Run("float from float cell", func(t *testing.T) {
		v, ok := tbl.Float(0, "grade")
		require.True(t, ok)
		assert.Equal(t, 7.5, v)
	})

	t.Run("float from int cell", func(t *testing.T) {
		v, ok := tbl.Float(0, "week")
		require.True(t, ok)
		assert.Equal(t, 3.0, v)
	})

	t.Run("float from string cell", func(t *testing.T) {
		_, ok := tbl.Float(0, "student_id")
		assert.False(t, ok)
	})

	t.Run("null cells report false", func(t *testing.T) {
		_, ok := tbl.Float(1, "grade")
		assert.False(t, ok)
		_, ok = tbl.String(1, "student_id")
		assert.False(t, ok)
	})
}

func TestFloatColumn(t *testing.T) {
	tbl := New(gradeSchema())
	require.NoError(t, tbl.AppendRow([]interface{}{"STD001", 5.0, int64(1)}))
	require.NoError(t, tbl.AppendRow([]interface{}{"STD002", nil, int64(1)}))
	require.NoError(t, tbl.AppendRow([]interface{}{"STD003", 9.0, int64(1)}))

	values, err := tbl.FloatColumn("grade")
	require.NoError(t, err)
	assert.Equal(t, []float64{5.0, 9.0}, values)

	_, err = tbl.FloatColumn("missing")
	require.Error(t, err)
}

func TestFilter(t *testing.T) {
	tbl := New(gradeSchema())
	require.NoError(t, tbl.AppendRow([]interface{}{"STD001", 3.0, int64(1)}))
	require.NoError(t, tbl.AppendRow([]interface{}{"STD002", 8.0, int64(1)}))
	require.NoError(t, tbl.AppendRow([]interface{}{"STD003", 9.5, int64(2)}))

	passed := tbl.Filter(func(i int) bool {
		g, ok := tbl.Float(i, "grade")
		return ok && g >= 5.0
	})

	assert.Equal(t, 2, passed.NumRows())
	assert.Equal(t, 3, tbl.NumRows())

	id, ok := passed.String(0, "student_id")
	require.True(t, ok)
	assert.Equal(t, "STD002", id)
}

func TestSortBy(t *testing.T) {
	tbl := New(gradeSchema())
	require.NoError(t, tbl.AppendRow([]interface{}{"STD003", 9.5, int64(2)}))
	require.NoError(t, tbl.AppendRow([]interface{}{"STD001", 3.0, int64(1)}))
	require.NoError(t, tbl.AppendRow([]interface{}{"STD002", 8.0, int64(1)}))

	require.NoError(t, tbl.SortBy("student_id"))

	ids := make([]string, tbl.NumRows())
	for i := range ids {
		ids[i], _ = tbl.String(i, "student_id")
	}
	assert.Equal(t, []string{"STD001", "STD002", "STD003"}, ids)
}

func TestCloneIsIndependent(t *testing.T) {
	tbl := New(gradeSchema())
	require.NoError(t, tbl.AppendRow([]interface{}{"STD001", 7.0, int64(1)}))

	clone := tbl.Clone()
	require.NoError(t, clone.SetValue(0, "grade", 1.0))

	v, ok := tbl.Float(0, "grade")
	require.True(t, ok)
	assert.Equal(t, 7.0, v)

	v, ok = clone.Float(0, "grade")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
}

func TestEqual(t *testing.T) {
	a := New(gradeSchema())
	require.NoError(t, a.AppendRow([]interface{}{"STD001", 7.0, int64(1)}))

	b := a.Clone()
	assert.True(t, a.Equal(b))

	require.NoError(t, b.SetValue(0, "grade", 7.1))
	assert.False(t, a.Equal(b))

	c := New(NewSchema("other", []Field{{Name: "x", Type: FieldTypeInt}}))
	assert.False(t, a.Equal(c))
}
