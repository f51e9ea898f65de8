// Package report assembles analysis results into exportable reports.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/eduviz/eduviz/pkg/analyze"
	"github.com/eduviz/eduviz/pkg/errors"
	"github.com/eduviz/eduviz/pkg/logger"
	"github.com/eduviz/eduviz/pkg/table"
)

// Kind selects the report flavor.
type Kind string

const (
	KindWeekly   Kind = "weekly"
	KindMonthly  Kind = "monthly"
	KindDetailed Kind = "detailed"
)

// Period is the date range covered by the underlying data.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Metadata describes when and from what the report was built.
type Metadata struct {
	GeneratedAt time.Time `json:"generated_at"`
	Kind        Kind      `json:"report_type"`
	DataSource  string    `json:"data_source"`
	Period      *Period   `json:"period,omitempty"`
}

// Summary is the headline numbers of the report.
type Summary struct {
	TotalStudents     int     `json:"total_students"`
	TotalSubjects     int     `json:"total_subjects"`
	AverageGrade      float64 `json:"average_grade"`
	MedianGrade       float64 `json:"median_grade"`
	PassRate          float64 `json:"pass_rate"`
	RiskStudentsCount int     `json:"risk_students_count"`
	RiskPercentage    float64 `json:"risk_percentage"`
}

// RankedSubject is a subject ranked by its mean grade.
type RankedSubject struct {
	Subject      string  `json:"subject"`
	AverageGrade float64 `json:"average_grade"`
	StudentCount int     `json:"student_count"`
}

// RankedStudent is a student ranked by their mean grade.
type RankedStudent struct {
	StudentID    string  `json:"student_id"`
	AverageGrade float64 `json:"average_grade"`
	SubjectCount int     `json:"subject_count"`
}

// Details holds the ranked breakdowns of the report.
type Details struct {
	TopSubjects  []RankedSubject           `json:"top_subjects"`
	TopStudents  []RankedStudent           `json:"top_students"`
	RiskAnalysis []analyze.RiskStudent     `json:"risk_analysis"`
	Subjects     []analyze.SubjectStats    `json:"subjects,omitempty"`
	Predictions  []analyze.GradePrediction `json:"predictions,omitempty"`
}

// Recommendation is one actionable suggestion with a priority.
type Recommendation struct {
	Type        string `json:"type"`
	Priority    string `json:"priority"`
	Description string `json:"description"`
	Action      string `json:"action"`
}

// Report is the complete generated report.
type Report struct {
	Metadata        Metadata         `json:"metadata"`
	Summary         Summary          `json:"summary"`
	Details         Details          `json:"details"`
	Recommendations []Recommendation `json:"recommendations"`
}

const (
	topSubjects = 5
	topStudents = 5
	topRisk     = 10
	dataSource  = "EduViz Dashboard"
)

// Generate builds a report of the given kind from the grade table. The
// detailed kind additionally carries per-subject statistics and grade
// predictions.
func Generate(tbl *table.Table, kind Kind) (*Report, error) {
	switch kind {
	case KindWeekly, KindMonthly, KindDetailed:
	default:
		return nil, errors.Newf(errors.ErrorTypeValidation, "unknown report type %q", kind)
	}

	analysis, err := analyze.AnalyzePerformance(tbl, analyze.DefaultOptions())
	if err != nil {
		return nil, err
	}

	r := &Report{
		Metadata: Metadata{
			GeneratedAt: time.Now(),
			Kind:        kind,
			DataSource:  dataSource,
			Period:      dataPeriod(tbl),
		},
	}

	overall := analysis.Overall
	riskCount := len(analysis.RiskStudents)
	r.Summary = Summary{
		TotalStudents:     overall.TotalStudents,
		TotalSubjects:     overall.TotalSubjects,
		AverageGrade:      overall.MeanGrade,
		MedianGrade:       overall.MedianGrade,
		PassRate:          passRate(tbl),
		RiskStudentsCount: riskCount,
	}
	if overall.TotalStudents > 0 {
		r.Summary.RiskPercentage = float64(riskCount) / float64(overall.TotalStudents) * 100
	}

	r.Details.TopSubjects = rankSubjects(analysis.BySubject)
	r.Details.TopStudents = rankStudents(tbl)
	if riskCount > topRisk {
		r.Details.RiskAnalysis = analysis.RiskStudents[:topRisk]
	} else {
		r.Details.RiskAnalysis = analysis.RiskStudents
	}

	subjectStats, err := analyze.SubjectStatistics(tbl)
	if err != nil {
		return nil, err
	}

	if kind == KindDetailed {
		r.Details.Subjects = subjectStats
		predictions, err := analyze.PredictFinalGrades(tbl, 0)
		if err != nil {
			return nil, err
		}
		r.Details.Predictions = predictions
	}

	r.Recommendations = buildRecommendations(tbl, analysis, subjectStats)

	logger.Get().Info("report generated",
		zap.String("kind", string(kind)),
		zap.Int("risk_students", riskCount),
		zap.Int("recommendations", len(r.Recommendations)))

	return r, nil
}

// SaveJSON writes the report as indented JSON, creating parent
// directories as needed.
func SaveJSON(r *Report, path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to encode report")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to create report directory").
				WithDetail("path", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write report").
			WithDetail("path", path)
	}
	return nil
}

// passRate is the percentage of grades at or above the passing mark of 5.
func passRate(tbl *table.Table) float64 {
	grades, err := tbl.FloatColumn("grade")
	if err != nil || len(grades) == 0 {
		return 0
	}
	passed := 0
	for _, g := range grades {
		if g >= 5 {
			passed++
		}
	}
	return float64(passed) / float64(len(grades)) * 100
}

func dataPeriod(tbl *table.Table) *Period {
	idx := tbl.Schema().FieldIndex("date")
	if idx < 0 || tbl.NumRows() == 0 {
		return nil
	}

	var minDate, maxDate string
	for i := 0; i < tbl.NumRows(); i++ {
		d, ok := tbl.String(i, "date")
		if !ok || d == "" {
			continue
		}
		if minDate == "" || d < minDate {
			minDate = d
		}
		if d > maxDate {
			maxDate = d
		}
	}
	if minDate == "" {
		return nil
	}
	return &Period{Start: minDate, End: maxDate}
}

func rankSubjects(bySubject map[string]analyze.SubjectSummary) []RankedSubject {
	ranked := make([]RankedSubject, 0, len(bySubject))
	for subject, s := range bySubject {
		ranked = append(ranked, RankedSubject{
			Subject:      subject,
			AverageGrade: s.MeanGrade,
			StudentCount: s.StudentCount,
		})
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		if ranked[a].AverageGrade != ranked[b].AverageGrade {
			return ranked[a].AverageGrade > ranked[b].AverageGrade
		}
		return ranked[a].Subject < ranked[b].Subject
	})
	if len(ranked) > topSubjects {
		ranked = ranked[:topSubjects]
	}
	return ranked
}

func rankStudents(tbl *table.Table) []RankedStudent {
	type acc struct {
		sum      float64
		count    int
		subjects map[string]struct{}
	}
	byStudent := make(map[string]*acc)

	for i := 0; i < tbl.NumRows(); i++ {
		id, ok := tbl.String(i, "student_id")
		if !ok {
			continue
		}
		g, ok := tbl.Float(i, "grade")
		if !ok {
			continue
		}
		a := byStudent[id]
		if a == nil {
			a = &acc{subjects: make(map[string]struct{})}
			byStudent[id] = a
		}
		a.sum += g
		a.count++
		if subject, ok := tbl.String(i, "subject"); ok {
			a.subjects[subject] = struct{}{}
		}
	}

	students := make([]RankedStudent, 0, len(byStudent))
	for id, a := range byStudent {
		students = append(students, RankedStudent{
			StudentID:    id,
			AverageGrade: a.sum / float64(a.count),
			SubjectCount: len(a.subjects),
		})
	}
	sort.SliceStable(students, func(a, b int) bool {
		if students[a].AverageGrade != students[b].AverageGrade {
			return students[a].AverageGrade > students[b].AverageGrade
		}
		return students[a].StudentID < students[b].StudentID
	})
	if len(students) > topStudents {
		students = students[:topStudents]
	}
	return students
}

func buildRecommendations(tbl *table.Table, analysis *analyze.PerformanceAnalysis, subjects []analyze.SubjectStats) []Recommendation {
	var recs []Recommendation

	if n := len(analysis.RiskStudents); n > 0 {
		recs = append(recs, Recommendation{
			Type:        "risk_mitigation",
			Priority:    "high",
			Description: fmt.Sprintf("%d students need attention as an at-risk group", n),
			Action:      "Hold individual consultations with the group curators",
		})
	}

	var lowSubjects []string
	for _, s := range subjects {
		if s.Mean < 5 {
			lowSubjects = append(lowSubjects, s.Subject)
		}
	}
	if len(lowSubjects) > 0 {
		if len(lowSubjects) > 3 {
			lowSubjects = lowSubjects[:3]
		}
		recs = append(recs, Recommendation{
			Type:        "curriculum",
			Priority:    "medium",
			Description: fmt.Sprintf("Low performance in subjects: %s", strings.Join(lowSubjects, ", ")),
			Action:      "Review the teaching methodology for these subjects",
		})
	}

	if tbl.Schema().FieldIndex("attendance") >= 0 {
		var sum float64
		var count int
		for i := 0; i < tbl.NumRows(); i++ {
			if a, ok := tbl.Float(i, "attendance"); ok {
				sum += a
				count++
			}
		}
		if count > 0 {
			if avg := sum / float64(count); avg < 0.8 {
				recs = append(recs, Recommendation{
					Type:        "attendance",
					Priority:    "medium",
					Description: fmt.Sprintf("Average attendance is %.1f%%", avg*100),
					Action:      "Introduce an attendance monitoring system",
				})
			}
		}
	}

	return recs
}
