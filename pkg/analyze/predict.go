package analyze

import (
	"sort"

	"github.com/eduviz/eduviz/pkg/stats"
	"github.com/eduviz/eduviz/pkg/table"
)

// semesterWeeks is the week the semester ends on; predictions extrapolate
// grades out to this week.
const semesterWeeks = 16

// defaultCurrentWeek stands in when the table carries no week column at
// all, so confidence still lands on a sensible scale.
const defaultCurrentWeek = 10

// GradePrediction is the projected end-of-semester grade for one student
// in one subject.
type GradePrediction struct {
	StudentID      string  `json:"student_id"`
	Subject        string  `json:"subject"`
	CurrentWeek    int     `json:"current_week"`
	CurrentAvg     float64 `json:"current_avg"`
	PredictedGrade float64 `json:"predicted_grade"`
	Slope          float64 `json:"slope"`
	WeeksObserved  int     `json:"weeks_observed"`
	Confidence     float64 `json:"confidence"`
}

// PredictFinalGrades extrapolates each student's per-subject weekly trend
// out to the end of the semester. Students with fewer than two observed
// weeks in a subject keep their current average as the prediction.
// Predicted grades are clamped to the 1..10 scale. Results are ordered by
// student then subject.
//
// currentWeek anchors the confidence score, weeksObserved/currentWeek, so
// a student whose data stops early scores lower than one observed through
// the whole period. Zero or negative means the latest week in the table.
func PredictFinalGrades(tbl *table.Table, currentWeek int) ([]GradePrediction, error) {
	if err := requireColumns(tbl, "student_id", "grade", "subject"); err != nil {
		return nil, err
	}

	if currentWeek <= 0 {
		currentWeek = latestWeek(tbl)
	}
	if currentWeek <= 0 {
		currentWeek = defaultCurrentWeek
	}

	byStudent := groupRows(tbl, "student_id")
	out := make([]GradePrediction, 0, len(byStudent))

	for _, id := range sortedKeys(byStudent) {
		bySubject := make(map[string][]int)
		for _, i := range byStudent[id] {
			if subject, ok := tbl.String(i, "subject"); ok {
				bySubject[subject] = append(bySubject[subject], i)
			}
		}

		for _, subject := range sortedKeys(bySubject) {
			rows := bySubject[subject]
			g := grades(tbl, rows)
			if len(g) == 0 {
				continue
			}

			pred := GradePrediction{
				StudentID:   id,
				Subject:     subject,
				CurrentWeek: currentWeek,
				CurrentAvg:  stats.Mean(g),
			}

			weeks, means := weeklyMeans(tbl, rows)
			pred.WeeksObserved = len(weeks)

			if len(weeks) < 2 {
				pred.PredictedGrade = clampGrade(pred.CurrentAvg)
				pred.Confidence = 0
				out = append(out, pred)
				continue
			}

			xs := make([]float64, len(weeks))
			for i, w := range weeks {
				xs[i] = float64(w)
			}
			slope, intercept := stats.LinearFit(xs, means)
			pred.Slope = slope
			pred.PredictedGrade = clampGrade(intercept + slope*semesterWeeks)

			pred.Confidence = float64(len(weeks)) / float64(currentWeek)
			if pred.Confidence > 1 {
				pred.Confidence = 1
			}
			out = append(out, pred)
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].StudentID != out[b].StudentID {
			return out[a].StudentID < out[b].StudentID
		}
		return out[a].Subject < out[b].Subject
	})
	return out, nil
}

// latestWeek returns the highest week number observed in the table, or 0
// when the table has no week data.
func latestWeek(tbl *table.Table) int {
	weeks, _ := weeklyMeans(tbl, allRows(tbl))
	if len(weeks) == 0 {
		return 0
	}
	return weeks[len(weeks)-1]
}

// clampGrade pins a projected grade onto the 1..10 scale.
func clampGrade(g float64) float64 {
	if g < 1 {
		return 1
	}
	if g > 10 {
		return 10
	}
	return g
}
