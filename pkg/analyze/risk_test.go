package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifyAtRiskLowAverage(t *testing.T) {
	records := append(
		steadyStudent("STD001", "GRP-1", 3.0, []string{"Math"}, 4),
		steadyStudent("STD002", "GRP-1", 8.0, []string{"Math"}, 4)...,
	)
	tbl := buildTable(t, records)

	flagged, err := IdentifyAtRisk(tbl, DefaultRiskOptions())
	require.NoError(t, err)

	require.Len(t, flagged, 1)
	s := flagged[0]
	assert.Equal(t, "STD001", s.StudentID)
	assert.Equal(t, "GRP-1", s.Group)
	assert.Equal(t, 3.0, s.AvgGrade)
	require.Len(t, s.RiskFactors, 1)
	assert.Equal(t, RiskLowAverage, s.RiskFactors[0].Kind)
	assert.Equal(t, 1, s.RiskScore)
	assert.NotEmpty(t, s.Recommendations)
}

func TestIdentifyAtRiskDecliningTrend(t *testing.T) {
	var records []record
	// passes on average but drops a full grade every week
	grades := []float64{9, 8, 7, 6}
	for w, g := range grades {
		records = append(records, record{"STD001", "GRP-1", "Math", g, 1.0, int64(w + 1)})
	}
	tbl := buildTable(t, records)

	flagged, err := IdentifyAtRisk(tbl, DefaultRiskOptions())
	require.NoError(t, err)

	require.Len(t, flagged, 1)
	kinds := factorKinds(flagged[0].RiskFactors)
	assert.Contains(t, kinds, RiskDecliningTrend)
	assert.Contains(t, kinds, RiskSharpDrop)
	assert.NotContains(t, kinds, RiskLowAverage)
}

func TestIdentifyAtRiskLowAttendance(t *testing.T) {
	var records []record
	for w := 1; w <= 3; w++ {
		records = append(records, record{"STD001", "GRP-1", "Math", 7.0, 0.5, int64(w)})
	}
	tbl := buildTable(t, records)

	flagged, err := IdentifyAtRisk(tbl, DefaultRiskOptions())
	require.NoError(t, err)

	require.Len(t, flagged, 1)
	kinds := factorKinds(flagged[0].RiskFactors)
	assert.Equal(t, []RiskFactorKind{RiskLowAttendance}, kinds)
}

func TestIdentifyAtRiskOrdering(t *testing.T) {
	// STD001: low average only. STD002: low average and low attendance.
	records := steadyStudent("STD001", "GRP-1", 4.5, []string{"Math"}, 3)
	for w := 1; w <= 3; w++ {
		records = append(records, record{"STD002", "GRP-1", "Math", 4.0, 0.5, int64(w)})
	}
	tbl := buildTable(t, records)

	flagged, err := IdentifyAtRisk(tbl, DefaultRiskOptions())
	require.NoError(t, err)

	require.Len(t, flagged, 2)
	assert.Equal(t, "STD002", flagged[0].StudentID)
	assert.Equal(t, 2, flagged[0].RiskScore)
	assert.Equal(t, "STD001", flagged[1].StudentID)
}

func TestIdentifyAtRiskNoFlagsForHealthyCohort(t *testing.T) {
	tbl := buildTable(t, steadyStudent("STD001", "GRP-1", 8.0, []string{"Math"}, 4))

	flagged, err := IdentifyAtRisk(tbl, DefaultRiskOptions())
	require.NoError(t, err)
	assert.Empty(t, flagged)
}

func TestRecommendations(t *testing.T) {
	t.Run("deduplicated and capped", func(t *testing.T) {
		factors := []RiskFactor{
			{Kind: RiskLowAverage},
			{Kind: RiskLowAverage},
			{Kind: RiskDecliningTrend},
			{Kind: RiskSharpDrop},
		}
		recs := Recommendations(factors)
		assert.Len(t, recs, maxRecommendations)

		seen := make(map[string]int)
		for _, r := range recs {
			seen[r]++
		}
		for r, n := range seen {
			assert.Equal(t, 1, n, "recommendation %q repeated", r)
		}
	})

	t.Run("no factors no advice", func(t *testing.T) {
		assert.Empty(t, Recommendations(nil))
	})
}

func factorKinds(factors []RiskFactor) []RiskFactorKind {
	kinds := make([]RiskFactorKind, len(factors))
	for i, f := range factors {
		kinds[i] = f.Kind
	}
	return kinds
}
