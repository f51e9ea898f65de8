package clean

import (
	"github.com/eduviz/eduviz/pkg/stats"
	"github.com/eduviz/eduviz/pkg/table"
)

// MissingStats describes the null cells of one column.
type MissingStats struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// NumericStats holds the basic statistics of a numeric column.
type NumericStats struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// QualityReport describes the shape and health of a loaded dataset.
type QualityReport struct {
	TotalRecords      int                        `json:"total_records"`
	TotalColumns      int                        `json:"total_columns"`
	MissingValues     map[string]MissingStats    `json:"missing_values"`
	DataTypes         map[string]table.FieldType `json:"data_types"`
	BasicStats        map[string]NumericStats    `json:"basic_stats"`
	UniqueStudents    int                        `json:"unique_students,omitempty"`
	RecordsPerStudent float64                    `json:"records_per_student,omitempty"`
	UniqueSubjects    int                        `json:"unique_subjects,omitempty"`
}

// Validate inspects the table and reports missing values, column types,
// numeric summaries and per-entity uniqueness counts. It does not modify
// the table.
func Validate(tbl *table.Table) *QualityReport {
	report := &QualityReport{
		TotalRecords:  tbl.NumRows(),
		TotalColumns:  tbl.NumCols(),
		MissingValues: make(map[string]MissingStats, tbl.NumCols()),
		DataTypes:     make(map[string]table.FieldType, tbl.NumCols()),
		BasicStats:    make(map[string]NumericStats),
	}

	for _, field := range tbl.Schema().Fields {
		values, _ := tbl.Column(field.Name)

		missing := 0
		for _, v := range values {
			if v == nil {
				missing++
			}
		}
		pct := 0.0
		if tbl.NumRows() > 0 {
			pct = float64(missing) / float64(tbl.NumRows()) * 100
		}
		report.MissingValues[field.Name] = MissingStats{Count: missing, Percentage: pct}
		report.DataTypes[field.Name] = field.Type

		if field.Type == table.FieldTypeInt || field.Type == table.FieldTypeFloat {
			numeric, _ := tbl.FloatColumn(field.Name)
			if len(numeric) > 0 {
				s := stats.Describe(numeric)
				report.BasicStats[field.Name] = NumericStats{
					Mean:   s.Mean,
					Std:    s.Std,
					Min:    s.Min,
					Max:    s.Max,
					Median: s.Median,
				}
			}
		}
	}

	if tbl.Schema().FieldIndex("student_id") >= 0 {
		report.UniqueStudents = countUnique(tbl, "student_id")
		if report.UniqueStudents > 0 {
			report.RecordsPerStudent = float64(tbl.NumRows()) / float64(report.UniqueStudents)
		}
	}
	if tbl.Schema().FieldIndex("subject") >= 0 {
		report.UniqueSubjects = countUnique(tbl, "subject")
	}

	return report
}

func countUnique(tbl *table.Table, column string) int {
	seen := make(map[string]struct{})
	for i := 0; i < tbl.NumRows(); i++ {
		if v, ok := tbl.String(i, column); ok {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}
