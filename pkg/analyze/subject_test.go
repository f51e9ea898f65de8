package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectStatistics(t *testing.T) {
	records := append(
		steadyStudent("STD001", "GRP-1", 8.0, []string{"Math", "Physics"}, 2),
		steadyStudent("STD002", "GRP-2", 4.0, []string{"Math"}, 2)...,
	)
	tbl := buildTable(t, records)

	subjects, err := SubjectStatistics(tbl)
	require.NoError(t, err)
	require.Len(t, subjects, 2)

	// sorted by subject name
	assert.Equal(t, "Math", subjects[0].Subject)
	assert.Equal(t, "Physics", subjects[1].Subject)

	math := subjects[0]
	assert.Equal(t, 4, math.Count)
	assert.Equal(t, 2, math.StudentCount)
	assert.InDelta(t, 6.0, math.Mean, 1e-9)
	assert.Equal(t, 4.0, math.Min)
	assert.Equal(t, 8.0, math.Max)
	assert.InDelta(t, 50.0, math.PassRate, 1e-9)
	assert.Equal(t, 0.0, math.ExcellentRate)

	assert.Equal(t, map[string]int{"8": 2, "4": 2}, math.Distribution)
	assert.InDelta(t, 8.0, math.GroupAverages["GRP-1"], 1e-9)
	assert.InDelta(t, 4.0, math.GroupAverages["GRP-2"], 1e-9)

	require.Contains(t, math.Percentiles, "p50")
	assert.InDelta(t, 6.0, math.Percentiles["p50"], 1e-9)

	require.Len(t, math.WeeklyTrend, 2)
	assert.Equal(t, 1, math.WeeklyTrend[0].Week)
	assert.InDelta(t, 6.0, math.WeeklyTrend[0].AvgGrade, 1e-9)
}

func TestSubjectStatisticsEmptyTable(t *testing.T) {
	subjects, err := SubjectStatistics(buildTable(t, nil))
	require.NoError(t, err)
	assert.Empty(t, subjects)
}
