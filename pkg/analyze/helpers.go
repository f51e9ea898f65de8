package analyze

import (
	"sort"

	"github.com/eduviz/eduviz/pkg/stats"
	"github.com/eduviz/eduviz/pkg/table"
)

// Grade thresholds on the 1-10 scale.
const (
	passGrade      = 5.0
	excellentGrade = 9.0
)

// groupRows collects row indices keyed by the textual value of a column.
// Rows with a null key are skipped.
func groupRows(tbl *table.Table, column string) map[string][]int {
	groups := make(map[string][]int)
	for i := 0; i < tbl.NumRows(); i++ {
		key, ok := tbl.String(i, column)
		if !ok {
			continue
		}
		groups[key] = append(groups[key], i)
	}
	return groups
}

// sortedKeys returns the map keys in lexical order, so every derived list
// and report is deterministic.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// grades extracts the non-null grade values of the given rows.
func grades(tbl *table.Table, rows []int) []float64 {
	out := make([]float64, 0, len(rows))
	for _, i := range rows {
		if g, ok := tbl.Float(i, "grade"); ok {
			out = append(out, g)
		}
	}
	return out
}

// rateAtLeast returns the percentage of values at or above the threshold.
func rateAtLeast(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v >= threshold {
			count++
		}
	}
	return float64(count) / float64(len(values)) * 100
}

// countUniqueIn counts distinct textual values of a column across the
// given rows.
func countUniqueIn(tbl *table.Table, rows []int, column string) int {
	seen := make(map[string]struct{})
	for _, i := range rows {
		if v, ok := tbl.String(i, column); ok {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}

// distribution counts grade occurrences keyed by their textual value.
func distribution(values []float64) map[string]int {
	dist := make(map[string]int)
	for _, v := range values {
		dist[table.FormatValue(v)]++
	}
	return dist
}

// weeklyMeans averages grades per week for the given rows and returns the
// weeks in ascending order with their mean grades aligned.
func weeklyMeans(tbl *table.Table, rows []int) (weeks []int, means []float64) {
	if tbl.Schema().FieldIndex("week") < 0 {
		return nil, nil
	}

	byWeek := make(map[int][]float64)
	for _, i := range rows {
		w, ok := tbl.Float(i, "week")
		if !ok {
			continue
		}
		g, ok := tbl.Float(i, "grade")
		if !ok {
			continue
		}
		byWeek[int(w)] = append(byWeek[int(w)], g)
	}

	weeks = make([]int, 0, len(byWeek))
	for w := range byWeek {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)

	means = make([]float64, len(weeks))
	for i, w := range weeks {
		means[i] = stats.Mean(byWeek[w])
	}
	return weeks, means
}

// trendSlope fits a line through sequential mean grades and returns its
// slope. Fewer than two points have no trend.
func trendSlope(means []float64) (float64, bool) {
	if len(means) < 2 {
		return 0, false
	}
	xs := make([]float64, len(means))
	for i := range xs {
		xs[i] = float64(i)
	}
	slope, _ := stats.LinearFit(xs, means)
	return slope, true
}

// allRows returns every row index of the table.
func allRows(tbl *table.Table) []int {
	rows := make([]int, tbl.NumRows())
	for i := range rows {
		rows[i] = i
	}
	return rows
}
