package analyze

import (
	"github.com/eduviz/eduviz/pkg/stats"
	"github.com/eduviz/eduviz/pkg/table"
)

// WeekPoint is the mean grade observed in one week.
type WeekPoint struct {
	Week     int     `json:"week"`
	AvgGrade float64 `json:"avg_grade"`
}

// SubjectStats is the full statistical profile of one subject.
type SubjectStats struct {
	Subject       string             `json:"subject"`
	Mean          float64            `json:"mean"`
	Median        float64            `json:"median"`
	Std           float64            `json:"std"`
	Min           float64            `json:"min"`
	Max           float64            `json:"max"`
	Count         int                `json:"count"`
	StudentCount  int                `json:"student_count"`
	PassRate      float64            `json:"pass_rate"`
	ExcellentRate float64            `json:"excellent_rate"`
	Distribution  map[string]int     `json:"distribution"`
	Percentiles   map[string]float64 `json:"percentiles"`
	GroupAverages map[string]float64 `json:"group_averages,omitempty"`
	WeeklyTrend   []WeekPoint        `json:"weekly_trend,omitempty"`
}

// SubjectStatistics profiles every subject in the table: central tendency,
// spread, pass and excellence rates, grade distribution, percentiles,
// per-group averages and the weekly trend. Subjects are returned sorted by
// name.
func SubjectStatistics(tbl *table.Table) ([]SubjectStats, error) {
	if err := requireColumns(tbl, "student_id", "grade", "subject"); err != nil {
		return nil, err
	}

	hasGroup := tbl.Schema().FieldIndex("group") >= 0
	bySubject := groupRows(tbl, "subject")
	out := make([]SubjectStats, 0, len(bySubject))

	for _, subject := range sortedKeys(bySubject) {
		rows := bySubject[subject]
		g := grades(tbl, rows)
		if len(g) == 0 {
			continue
		}

		summary := stats.Describe(g)
		s := SubjectStats{
			Subject:       subject,
			Mean:          summary.Mean,
			Median:        summary.Median,
			Std:           summary.Std,
			Min:           summary.Min,
			Max:           summary.Max,
			Count:         len(g),
			StudentCount:  countUniqueIn(tbl, rows, "student_id"),
			PassRate:      rateAtLeast(g, passGrade),
			ExcellentRate: rateAtLeast(g, excellentGrade),
			Distribution:  distribution(g),
			Percentiles: map[string]float64{
				"p25": stats.Quantile(g, 0.25),
				"p50": stats.Quantile(g, 0.50),
				"p75": stats.Quantile(g, 0.75),
				"p90": stats.Quantile(g, 0.90),
			},
		}

		if hasGroup {
			s.GroupAverages = groupAverages(tbl, rows)
		}

		if weeks, means := weeklyMeans(tbl, rows); len(weeks) > 1 {
			trend := make([]WeekPoint, len(weeks))
			for i := range weeks {
				trend[i] = WeekPoint{Week: weeks[i], AvgGrade: means[i]}
			}
			s.WeeklyTrend = trend
		}

		out = append(out, s)
	}
	return out, nil
}

func groupAverages(tbl *table.Table, rows []int) map[string]float64 {
	byGroup := make(map[string][]float64)
	for _, i := range rows {
		group, ok := tbl.String(i, "group")
		if !ok {
			continue
		}
		if g, ok := tbl.Float(i, "grade"); ok {
			byGroup[group] = append(byGroup[group], g)
		}
	}

	out := make(map[string]float64, len(byGroup))
	for group, g := range byGroup {
		out[group] = stats.Mean(g)
	}
	return out
}
