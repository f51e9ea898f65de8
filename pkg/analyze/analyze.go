// Package analyze derives performance analytics from cleaned student-grade
// tables: cohort statistics, per-subject and per-group breakdowns, at-risk
// detection, trend fitting, subject correlations and student clustering.
//
// All functions treat the input table as read-only and require at least
// the student_id, grade and subject columns; the week, group, attendance
// and date columns unlock the corresponding optional sections.
package analyze

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/eduviz/eduviz/pkg/errors"
	"github.com/eduviz/eduviz/pkg/logger"
	"github.com/eduviz/eduviz/pkg/stats"
	"github.com/eduviz/eduviz/pkg/table"
)

// Options tunes the performance analysis.
type Options struct {
	// RiskThreshold is the average grade below which a student is flagged.
	RiskThreshold float64

	// MinRecords is the minimum number of grades a student needs before
	// being judged at all.
	MinRecords int
}

// DefaultOptions returns the analysis defaults: flag averages below 5.0
// computed over at least 3 grades.
func DefaultOptions() Options {
	return Options{
		RiskThreshold: 5.0,
		MinRecords:    3,
	}
}

// OverallStats summarizes the whole cohort.
type OverallStats struct {
	TotalRecords      int            `json:"total_records"`
	TotalStudents     int            `json:"total_students"`
	TotalSubjects     int            `json:"total_subjects"`
	TotalGroups       int            `json:"total_groups,omitempty"`
	MeanGrade         float64        `json:"mean_grade"`
	MedianGrade       float64        `json:"median_grade"`
	StdGrade          float64        `json:"std_grade"`
	MinGrade          float64        `json:"min_grade"`
	MaxGrade          float64        `json:"max_grade"`
	GradeDistribution map[string]int `json:"grade_distribution"`
}

// SubjectSummary summarizes one subject.
type SubjectSummary struct {
	MeanGrade         float64        `json:"mean_grade"`
	MedianGrade       float64        `json:"median_grade"`
	StdGrade          float64        `json:"std_grade"`
	StudentCount      int            `json:"student_count"`
	RecordCount       int            `json:"record_count"`
	PassRate          float64        `json:"pass_rate"`
	ExcellentRate     float64        `json:"excellent_rate"`
	GradeDistribution map[string]int `json:"grade_distribution"`
}

// GroupSummary summarizes one student group.
type GroupSummary struct {
	MeanGrade      float64  `json:"mean_grade"`
	MedianGrade    float64  `json:"median_grade"`
	StudentCount   int      `json:"student_count"`
	SubjectCount   int      `json:"subject_count"`
	PassRate       float64  `json:"pass_rate"`
	AttendanceRate *float64 `json:"attendance_rate"`
}

// RiskStudent describes a student flagged by the average-grade threshold.
type RiskStudent struct {
	StudentID    string   `json:"student_id"`
	AvgGrade     float64  `json:"avg_grade"`
	GradeCount   int      `json:"grade_count"`
	GradeStd     float64  `json:"grade_std"`
	SubjectCount int      `json:"subject_count"`
	RiskLevel    string   `json:"risk_level"`
	Groups       []string `json:"groups,omitempty"`
	Trend        string   `json:"trend,omitempty"`
	TrendSlope   float64  `json:"trend_slope,omitempty"`
}

// WeeklyTrend is the cohort mean grade per week.
type WeeklyTrend struct {
	Weeks      []int     `json:"weeks"`
	MeanGrades []float64 `json:"mean_grades"`
}

// OverallTrend is the linear fit over the weekly means.
type OverallTrend struct {
	Slope              float64 `json:"slope"`
	Intercept          float64 `json:"intercept"`
	Direction          string  `json:"direction"`
	PredictionNextWeek float64 `json:"prediction_next_week"`
}

// Trends bundles the week-resolved results.
type Trends struct {
	Weekly  *WeeklyTrend  `json:"weekly,omitempty"`
	Overall *OverallTrend `json:"overall_trend,omitempty"`
}

// Correlation is the Pearson correlation of mean grades between two
// subjects across common students.
type Correlation struct {
	Subject1    string  `json:"subject1"`
	Subject2    string  `json:"subject2"`
	Correlation float64 `json:"correlation"`
	Strength    string  `json:"strength"`
}

// Cluster describes one k-means cluster of student aggregates.
type Cluster struct {
	StudentCount int      `json:"student_count"`
	AvgGradeMean float64  `json:"avg_grade_mean"`
	AvgGradeStd  float64  `json:"avg_grade_std"`
	StudentIDs   []string `json:"student_ids"`
}

// PerformanceAnalysis is the complete analysis result.
type PerformanceAnalysis struct {
	Overall      OverallStats              `json:"overall"`
	BySubject    map[string]SubjectSummary `json:"by_subject"`
	ByGroup      map[string]GroupSummary   `json:"by_group,omitempty"`
	RiskStudents []RiskStudent             `json:"risk_students"`
	Trends       Trends                    `json:"trends"`
	Correlations []Correlation             `json:"correlations,omitempty"`
	Clusters     map[string]Cluster        `json:"clusters,omitempty"`
	Timestamp    string                    `json:"timestamp"`
}

// studentAggregate is the per-student view several analyses share.
type studentAggregate struct {
	id           string
	rows         []int
	avgGrade     float64
	gradeStd     float64
	gradeCount   int
	subjectCount int
}

// AnalyzePerformance runs the full analysis over the table.
func AnalyzePerformance(tbl *table.Table, opts Options) (*PerformanceAnalysis, error) {
	if opts.RiskThreshold == 0 {
		opts.RiskThreshold = DefaultOptions().RiskThreshold
	}
	if opts.MinRecords == 0 {
		opts.MinRecords = DefaultOptions().MinRecords
	}

	if err := requireColumns(tbl, "student_id", "grade", "subject"); err != nil {
		return nil, err
	}
	if tbl.NumRows() == 0 {
		return nil, errors.New(errors.ErrorTypeData, "cannot analyze an empty table")
	}

	result := &PerformanceAnalysis{
		BySubject: make(map[string]SubjectSummary),
		Timestamp: time.Now().Format(time.RFC3339),
	}

	allGrades, _ := tbl.FloatColumn("grade")
	summary := stats.Describe(allGrades)

	byStudent := groupRows(tbl, "student_id")
	bySubject := groupRows(tbl, "subject")

	result.Overall = OverallStats{
		TotalRecords:      tbl.NumRows(),
		TotalStudents:     len(byStudent),
		TotalSubjects:     len(bySubject),
		MeanGrade:         summary.Mean,
		MedianGrade:       summary.Median,
		StdGrade:          summary.Std,
		MinGrade:          summary.Min,
		MaxGrade:          summary.Max,
		GradeDistribution: distribution(allGrades),
	}

	hasGroup := tbl.Schema().FieldIndex("group") >= 0
	var byGroup map[string][]int
	if hasGroup {
		byGroup = groupRows(tbl, "group")
		result.Overall.TotalGroups = len(byGroup)
	}

	for _, subject := range sortedKeys(bySubject) {
		rows := bySubject[subject]
		g := grades(tbl, rows)
		s := stats.Describe(g)
		result.BySubject[subject] = SubjectSummary{
			MeanGrade:         s.Mean,
			MedianGrade:       s.Median,
			StdGrade:          s.Std,
			StudentCount:      countUniqueIn(tbl, rows, "student_id"),
			RecordCount:       len(rows),
			PassRate:          rateAtLeast(g, passGrade),
			ExcellentRate:     rateAtLeast(g, excellentGrade),
			GradeDistribution: distribution(g),
		}
	}

	if hasGroup {
		result.ByGroup = make(map[string]GroupSummary, len(byGroup))
		hasAttendance := tbl.Schema().FieldIndex("attendance") >= 0
		for _, group := range sortedKeys(byGroup) {
			rows := byGroup[group]
			g := grades(tbl, rows)
			summary := GroupSummary{
				MeanGrade:    stats.Mean(g),
				MedianGrade:  stats.Median(g),
				StudentCount: countUniqueIn(tbl, rows, "student_id"),
				SubjectCount: countUniqueIn(tbl, rows, "subject"),
				PassRate:     rateAtLeast(g, passGrade),
			}
			if hasAttendance {
				att := make([]float64, 0, len(rows))
				for _, i := range rows {
					if a, ok := tbl.Float(i, "attendance"); ok {
						att = append(att, a)
					}
				}
				if len(att) > 0 {
					rate := stats.Mean(att) * 100
					summary.AttendanceRate = &rate
				}
			}
			result.ByGroup[group] = summary
		}
	}

	aggregates := buildAggregates(tbl, byStudent, opts.MinRecords)
	result.RiskStudents = riskStudents(tbl, aggregates, opts.RiskThreshold, hasGroup)
	result.Trends = cohortTrends(tbl)
	result.Correlations = subjectCorrelations(tbl, byStudent, bySubject)
	result.Clusters = clusterStudents(aggregates)

	logger.Get().Info("performance analysis complete",
		zap.Int("students", result.Overall.TotalStudents),
		zap.Int("subjects", result.Overall.TotalSubjects),
		zap.Int("risk_students", len(result.RiskStudents)))

	return result, nil
}

func requireColumns(tbl *table.Table, columns ...string) error {
	for _, col := range columns {
		if tbl.Schema().FieldIndex(col) < 0 {
			return errors.Newf(errors.ErrorTypeValidation, "required column %q is missing", col)
		}
	}
	return nil
}

// buildAggregates computes the per-student aggregate view, keeping only
// students with at least minRecords grades.
func buildAggregates(tbl *table.Table, byStudent map[string][]int, minRecords int) []studentAggregate {
	aggregates := make([]studentAggregate, 0, len(byStudent))
	for _, id := range sortedKeys(byStudent) {
		rows := byStudent[id]
		g := grades(tbl, rows)
		if len(g) < minRecords {
			continue
		}
		aggregates = append(aggregates, studentAggregate{
			id:           id,
			rows:         rows,
			avgGrade:     stats.Mean(g),
			gradeStd:     stats.Std(g),
			gradeCount:   len(g),
			subjectCount: countUniqueIn(tbl, rows, "subject"),
		})
	}
	return aggregates
}

// riskStudents flags aggregates below the threshold, worst averages first.
func riskStudents(tbl *table.Table, aggregates []studentAggregate, threshold float64, hasGroup bool) []RiskStudent {
	flagged := make([]RiskStudent, 0)
	for _, agg := range aggregates {
		if agg.avgGrade >= threshold {
			continue
		}

		level := "medium"
		if agg.avgGrade < 4.0 {
			level = "high"
		}

		student := RiskStudent{
			StudentID:    agg.id,
			AvgGrade:     agg.avgGrade,
			GradeCount:   agg.gradeCount,
			GradeStd:     agg.gradeStd,
			SubjectCount: agg.subjectCount,
			RiskLevel:    level,
		}

		if hasGroup {
			groups := make(map[string]struct{})
			for _, i := range agg.rows {
				if g, ok := tbl.String(i, "group"); ok {
					groups[g] = struct{}{}
				}
			}
			student.Groups = sortedKeys(groups)
		}

		if _, means := weeklyMeans(tbl, agg.rows); len(means) > 1 {
			slope, _ := trendSlope(means)
			student.TrendSlope = slope
			switch {
			case slope > 0.1:
				student.Trend = "positive"
			case slope < -0.1:
				student.Trend = "negative"
			default:
				student.Trend = "stable"
			}
		}

		flagged = append(flagged, student)
	}

	sort.SliceStable(flagged, func(a, b int) bool {
		return flagged[a].AvgGrade < flagged[b].AvgGrade
	})
	return flagged
}

// cohortTrends fits the whole-cohort weekly trend when week data exists.
func cohortTrends(tbl *table.Table) Trends {
	weeks, means := weeklyMeans(tbl, allRows(tbl))
	if len(weeks) == 0 {
		return Trends{}
	}

	trends := Trends{
		Weekly: &WeeklyTrend{Weeks: weeks, MeanGrades: means},
	}

	if len(means) > 1 {
		xs := make([]float64, len(means))
		for i := range xs {
			xs[i] = float64(i)
		}
		slope, intercept := stats.LinearFit(xs, means)

		direction := "stable"
		if slope > 0.05 {
			direction = "improving"
		} else if slope < -0.05 {
			direction = "declining"
		}

		trends.Overall = &OverallTrend{
			Slope:              slope,
			Intercept:          intercept,
			Direction:          direction,
			PredictionNextWeek: slope*float64(len(means)) + intercept,
		}
	}

	return trends
}

// subjectCorrelations computes pairwise Pearson correlations of mean
// grades per subject across students taking both subjects. Only
// correlations with |r| > 0.3 are kept, strongest first, at most ten.
func subjectCorrelations(tbl *table.Table, byStudent, bySubject map[string][]int) []Correlation {
	if len(bySubject) < 2 || len(byStudent) <= 5 {
		return nil
	}

	// Pivot: student -> subject -> mean grade, for students covering at
	// least three subjects.
	pivot := make(map[string]map[string]float64, len(byStudent))
	for id, rows := range byStudent {
		perSubject := make(map[string][]float64)
		for _, i := range rows {
			subject, ok := tbl.String(i, "subject")
			if !ok {
				continue
			}
			if g, ok := tbl.Float(i, "grade"); ok {
				perSubject[subject] = append(perSubject[subject], g)
			}
		}
		if len(perSubject) < 3 {
			continue
		}
		means := make(map[string]float64, len(perSubject))
		for subject, g := range perSubject {
			means[subject] = stats.Mean(g)
		}
		pivot[id] = means
	}
	if len(pivot) <= 5 {
		return nil
	}

	subjects := sortedKeys(bySubject)
	correlations := make([]Correlation, 0)

	for i := 0; i < len(subjects); i++ {
		for j := i + 1; j < len(subjects); j++ {
			var xs, ys []float64
			for _, means := range pivot {
				x, okX := means[subjects[i]]
				y, okY := means[subjects[j]]
				if okX && okY {
					xs = append(xs, x)
					ys = append(ys, y)
				}
			}
			if len(xs) < 2 {
				continue
			}
			r := stats.Pearson(xs, ys)
			if math.Abs(r) <= 0.3 {
				continue
			}
			strength := "weak"
			if math.Abs(r) > 0.7 {
				strength = "strong"
			} else if math.Abs(r) > 0.5 {
				strength = "moderate"
			}
			correlations = append(correlations, Correlation{
				Subject1:    subjects[i],
				Subject2:    subjects[j],
				Correlation: r,
				Strength:    strength,
			})
		}
	}

	sort.SliceStable(correlations, func(a, b int) bool {
		return math.Abs(correlations[a].Correlation) > math.Abs(correlations[b].Correlation)
	})
	if len(correlations) > 10 {
		correlations = correlations[:10]
	}
	return correlations
}
