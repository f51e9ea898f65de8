package analyze

import (
	"fmt"
	"sort"

	"github.com/eduviz/eduviz/pkg/stats"
	"github.com/eduviz/eduviz/pkg/table"
)

// RiskFactorKind identifies a category of academic risk.
type RiskFactorKind string

const (
	// RiskLowAverage flags an average grade below the threshold
	RiskLowAverage RiskFactorKind = "low_average"
	// RiskHighVariability flags strongly fluctuating grades
	RiskHighVariability RiskFactorKind = "high_variability"
	// RiskDecliningTrend flags a negative weekly grade trend
	RiskDecliningTrend RiskFactorKind = "declining_trend"
	// RiskSharpDrop flags a large first-half to second-half grade drop
	RiskSharpDrop RiskFactorKind = "sharp_drop"
	// RiskLowAttendance flags attendance below 70%
	RiskLowAttendance RiskFactorKind = "low_attendance"
)

// RiskFactor is one detected risk signal with a human-readable summary.
type RiskFactor struct {
	Kind        RiskFactorKind `json:"kind"`
	Description string         `json:"description"`
}

// AtRiskStudent is a student flagged by the multi-criteria risk screen.
type AtRiskStudent struct {
	StudentID       string       `json:"student_id"`
	Group           string       `json:"group,omitempty"`
	AvgGrade        float64      `json:"avg_grade"`
	GradeStd        float64      `json:"grade_std"`
	SubjectCount    int          `json:"subject_count"`
	TotalGrades     int          `json:"total_grades"`
	RiskFactors     []RiskFactor `json:"risk_factors"`
	RiskScore       int          `json:"risk_score"`
	Recommendations []string     `json:"recommendations"`
}

// RiskOptions tunes the multi-criteria risk screen.
type RiskOptions struct {
	// Threshold is the average grade below which a student is flagged.
	Threshold float64

	// MinWeeks is the minimum number of distinct weeks needed before the
	// trend criteria apply.
	MinWeeks int

	// DeclineThreshold is the first-half minus second-half mean grade
	// difference counted as a sharp drop.
	DeclineThreshold float64
}

// DefaultRiskOptions returns the screening defaults.
func DefaultRiskOptions() RiskOptions {
	return RiskOptions{
		Threshold:        5.0,
		MinWeeks:         3,
		DeclineThreshold: 1.5,
	}
}

// IdentifyAtRisk screens every student against multiple risk criteria and
// returns the flagged ones, highest risk score first. Students with no
// risk factors are omitted.
func IdentifyAtRisk(tbl *table.Table, opts RiskOptions) ([]AtRiskStudent, error) {
	if opts.Threshold == 0 {
		opts.Threshold = DefaultRiskOptions().Threshold
	}
	if opts.MinWeeks == 0 {
		opts.MinWeeks = DefaultRiskOptions().MinWeeks
	}
	if opts.DeclineThreshold == 0 {
		opts.DeclineThreshold = DefaultRiskOptions().DeclineThreshold
	}

	if err := requireColumns(tbl, "student_id", "grade", "subject"); err != nil {
		return nil, err
	}

	hasGroup := tbl.Schema().FieldIndex("group") >= 0
	hasAttendance := tbl.Schema().FieldIndex("attendance") >= 0

	byStudent := groupRows(tbl, "student_id")
	flagged := make([]AtRiskStudent, 0)

	for _, id := range sortedKeys(byStudent) {
		rows := byStudent[id]
		g := grades(tbl, rows)
		if len(g) == 0 {
			continue
		}

		avg := stats.Mean(g)
		std := stats.Std(g)
		var factors []RiskFactor

		if avg < opts.Threshold {
			factors = append(factors, RiskFactor{
				Kind:        RiskLowAverage,
				Description: fmt.Sprintf("low average grade (%.2f)", avg),
			})
		}

		if std > 2.5 {
			factors = append(factors, RiskFactor{
				Kind:        RiskHighVariability,
				Description: fmt.Sprintf("high grade variability (σ=%.2f)", std),
			})
		}

		if weeks, means := weeklyMeans(tbl, rows); len(weeks) >= opts.MinWeeks {
			if slope, ok := trendSlope(means); ok && slope < -0.2 {
				factors = append(factors, RiskFactor{
					Kind:        RiskDecliningTrend,
					Description: fmt.Sprintf("declining performance (%.2f per week)", slope),
				})
			}

			firstHalf := stats.Mean(means[:len(means)/2])
			secondHalf := stats.Mean(means[len(means)/2:])
			if firstHalf-secondHalf > opts.DeclineThreshold {
				factors = append(factors, RiskFactor{
					Kind:        RiskSharpDrop,
					Description: fmt.Sprintf("sharp performance drop (%.1f → %.1f)", firstHalf, secondHalf),
				})
			}
		}

		if hasAttendance {
			att := make([]float64, 0, len(rows))
			for _, i := range rows {
				if a, ok := tbl.Float(i, "attendance"); ok {
					att = append(att, a)
				}
			}
			if len(att) > 0 {
				if rate := stats.Mean(att); rate < 0.7 {
					factors = append(factors, RiskFactor{
						Kind:        RiskLowAttendance,
						Description: fmt.Sprintf("low attendance (%.1f%%)", rate*100),
					})
				}
			}
		}

		if len(factors) == 0 {
			continue
		}

		student := AtRiskStudent{
			StudentID:       id,
			AvgGrade:        avg,
			GradeStd:        std,
			SubjectCount:    countUniqueIn(tbl, rows, "subject"),
			TotalGrades:     len(g),
			RiskFactors:     factors,
			RiskScore:       len(factors),
			Recommendations: Recommendations(factors),
		}
		if hasGroup {
			if group, ok := tbl.String(rows[0], "group"); ok {
				student.Group = group
			}
		}
		flagged = append(flagged, student)
	}

	sort.SliceStable(flagged, func(a, b int) bool {
		if flagged[a].RiskScore != flagged[b].RiskScore {
			return flagged[a].RiskScore > flagged[b].RiskScore
		}
		return flagged[a].AvgGrade < flagged[b].AvgGrade
	})
	return flagged, nil
}

// maxRecommendations caps the advice list per student.
const maxRecommendations = 5

var recommendationsByKind = map[RiskFactorKind][]string{
	RiskLowAverage: {
		"Ask the course teacher for targeted help",
		"Draw up an individual study plan",
		"Increase preparation time before classes",
	},
	RiskHighVariability: {
		"Review the causes of fluctuating results",
		"Build a steady preparation routine",
		"Pay attention to time management",
	},
	RiskDecliningTrend: {
		"Diagnose the causes of declining motivation",
		"Set short-term study goals",
		"Increase the frequency of self-checks",
	},
	RiskSharpDrop: {
		"Contact the group curator urgently",
		"Schedule an individual consultation with the teacher",
		"Review the current study load",
	},
	RiskLowAttendance: {
		"Review the reasons for missed classes",
		"Draw up a class attendance schedule",
		"Set up a reminder system",
	},
}

// Recommendations maps detected risk factors to advice, deduplicated and
// capped at maxRecommendations entries.
func Recommendations(factors []RiskFactor) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, maxRecommendations)

	for _, factor := range factors {
		for _, rec := range recommendationsByKind[factor.Kind] {
			if _, dup := seen[rec]; dup {
				continue
			}
			seen[rec] = struct{}{}
			out = append(out, rec)
			if len(out) == maxRecommendations {
				return out
			}
		}
	}
	return out
}
