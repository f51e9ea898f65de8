package sample

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	opts := Options{Students: 20, Weeks: 4, Seed: 7}
	tbl, err := Generate(opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"student_id", "group", "subject", "grade", "attendance", "date", "week"}, tbl.Columns())

	// 2-4 subjects per student per week
	assert.GreaterOrEqual(t, tbl.NumRows(), 20*4*2)
	assert.LessOrEqual(t, tbl.NumRows(), 20*4*4)

	for i := 0; i < tbl.NumRows(); i++ {
		g, ok := tbl.Float(i, "grade")
		require.True(t, ok)
		assert.GreaterOrEqual(t, g, 1.0)
		assert.LessOrEqual(t, g, 10.0)

		a, ok := tbl.Float(i, "attendance")
		require.True(t, ok)
		assert.True(t, a == 0.5 || a == 1.0, "attendance %v", a)

		w, ok := tbl.Float(i, "week")
		require.True(t, ok)
		assert.GreaterOrEqual(t, w, 1.0)
		assert.LessOrEqual(t, w, 4.0)
	}
}

func TestGenerateDeterministicWithSeed(t *testing.T) {
	start := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	opts := Options{Students: 10, Weeks: 3, Seed: 42, Start: start}

	a, err := Generate(opts)
	require.NoError(t, err)
	b, err := Generate(opts)
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
}

func TestGenerateStableGroupPerStudent(t *testing.T) {
	tbl, err := Generate(Options{Students: 15, Weeks: 4, Seed: 1})
	require.NoError(t, err)

	groupOf := make(map[string]string)
	for i := 0; i < tbl.NumRows(); i++ {
		id, ok := tbl.String(i, "student_id")
		require.True(t, ok)
		group, ok := tbl.String(i, "group")
		require.True(t, ok)

		if prev, seen := groupOf[id]; seen {
			assert.Equal(t, prev, group, "student %s changed group", id)
		}
		groupOf[id] = group
	}
}

func TestGenerateValidation(t *testing.T) {
	_, err := Generate(Options{Students: 0, Weeks: 4})
	require.Error(t, err)

	_, err = Generate(Options{Students: 5, Weeks: 0})
	require.Error(t, err)
}
