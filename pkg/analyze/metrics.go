package analyze

import (
	"github.com/eduviz/eduviz/pkg/stats"
	"github.com/eduviz/eduviz/pkg/table"
)

// GradeBands is the fraction of grades falling into each qualitative band.
type GradeBands struct {
	Excellent    float64 `json:"excellent"`    // 9-10
	Good         float64 `json:"good"`         // 7-8
	Satisfactory float64 `json:"satisfactory"` // 5-6
	Poor         float64 `json:"poor"`         // below 5
}

// SubjectEfficiency summarises how one subject performs across the cohort.
type SubjectEfficiency struct {
	AverageGrade float64 `json:"average_grade"`
	PassRate     float64 `json:"pass_rate"`
	StudentCount int     `json:"student_count"`
	GradeStd     float64 `json:"grade_std"`
}

// LearningMetrics summarises cohort-level learning quality.
type LearningMetrics struct {
	// Efficiency is the percentage of grades at or above the passing mark.
	Efficiency float64 `json:"efficiency"`

	// ExcellenceRate is the percentage of grades at or above the
	// excellent mark.
	ExcellenceRate float64 `json:"excellence_rate"`

	Bands GradeBands `json:"bands"`

	// WeeklyVariance is the per-week grade standard deviation averaged
	// across weeks. Zero when no week has two or more grades.
	WeeklyVariance float64 `json:"weekly_variance"`

	// Consistency is the stability score 100 - min(100, WeeklyVariance*10),
	// so grades that spread little within each week score high.
	Consistency float64 `json:"consistency"`

	// SubjectEfficiency breaks the pass rate and grade spread down per
	// subject.
	SubjectEfficiency map[string]SubjectEfficiency `json:"subject_efficiency"`

	// Improvement is the cohort mean grade of the second half of the
	// observed weeks minus the first half. Zero when fewer than two
	// weeks are observed.
	Improvement float64 `json:"improvement"`
}

// CalculateLearningMetrics computes cohort learning-quality metrics from
// the grade table.
func CalculateLearningMetrics(tbl *table.Table) (*LearningMetrics, error) {
	if err := requireColumns(tbl, "student_id", "grade", "subject"); err != nil {
		return nil, err
	}

	all := grades(tbl, allRows(tbl))
	m := &LearningMetrics{}
	if len(all) == 0 {
		return m, nil
	}

	m.Efficiency = rateAtLeast(all, passGrade)
	m.ExcellenceRate = rateAtLeast(all, excellentGrade)
	m.Bands = gradeBands(all)
	m.WeeklyVariance, m.Consistency = cohortConsistency(tbl)
	m.SubjectEfficiency = subjectEfficiency(tbl)
	m.Improvement = cohortImprovement(tbl)
	return m, nil
}

func subjectEfficiency(tbl *table.Table) map[string]SubjectEfficiency {
	bySubject := groupRows(tbl, "subject")
	out := make(map[string]SubjectEfficiency, len(bySubject))
	for subject, rows := range bySubject {
		g := grades(tbl, rows)
		if len(g) == 0 {
			continue
		}
		out[subject] = SubjectEfficiency{
			AverageGrade: stats.Mean(g),
			PassRate:     rateAtLeast(g, passGrade),
			StudentCount: countUniqueIn(tbl, rows, "student_id"),
			GradeStd:     stats.Std(g),
		}
	}
	return out
}

func gradeBands(values []float64) GradeBands {
	var b GradeBands
	n := float64(len(values))
	if n == 0 {
		return b
	}
	for _, g := range values {
		switch {
		case g >= excellentGrade:
			b.Excellent++
		case g >= 7:
			b.Good++
		case g >= passGrade:
			b.Satisfactory++
		default:
			b.Poor++
		}
	}
	b.Excellent /= n
	b.Good /= n
	b.Satisfactory /= n
	b.Poor /= n
	return b
}

// cohortConsistency averages the per-week grade standard deviation and
// turns it into a 0..100 stability score. Weeks with a single grade carry
// no spread and are skipped; with no week data at all the spread is
// treated as zero.
func cohortConsistency(tbl *table.Table) (variance, score float64) {
	if tbl.Schema().FieldIndex("week") < 0 {
		return 0, 0
	}

	byWeek := make(map[int][]float64)
	for i := 0; i < tbl.NumRows(); i++ {
		w, ok := tbl.Float(i, "week")
		if !ok {
			continue
		}
		if g, ok := tbl.Float(i, "grade"); ok {
			byWeek[int(w)] = append(byWeek[int(w)], g)
		}
	}

	var stds []float64
	for _, g := range byWeek {
		if len(g) < 2 {
			continue
		}
		stds = append(stds, stats.Std(g))
	}
	if len(stds) > 0 {
		variance = stats.Mean(stds)
	}

	penalty := variance * 10
	if penalty > 100 {
		penalty = 100
	}
	return variance, 100 - penalty
}

func cohortImprovement(tbl *table.Table) float64 {
	weeks, means := weeklyMeans(tbl, allRows(tbl))
	if len(weeks) < 2 {
		return 0
	}
	half := len(means) / 2
	return stats.Mean(means[half:]) - stats.Mean(means[:half])
}
