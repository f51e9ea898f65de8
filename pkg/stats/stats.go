// Package stats provides the small set of descriptive statistics and
// regression primitives the analysis layer is built on.
package stats

import (
	"math"
	"sort"
)

// Summary holds the descriptive statistics of a numeric sample.
type Summary struct {
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Std      float64 `json:"std"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Range    float64 `json:"range"`
	Q1       float64 `json:"q1"`
	Q3       float64 `json:"q3"`
	IQR      float64 `json:"iqr"`
	Skewness float64 `json:"skewness"`
	Count    int     `json:"count"`
}

// Describe computes the summary statistics of data. An empty sample yields
// a zero Summary with Count 0.
func Describe(data []float64) Summary {
	if len(data) == 0 {
		return Summary{}
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	q1 := quantileSorted(sorted, 0.25)
	q3 := quantileSorted(sorted, 0.75)

	return Summary{
		Mean:     Mean(data),
		Median:   quantileSorted(sorted, 0.5),
		Std:      Std(data),
		Min:      sorted[0],
		Max:      sorted[len(sorted)-1],
		Range:    sorted[len(sorted)-1] - sorted[0],
		Q1:       q1,
		Q3:       q3,
		IQR:      q3 - q1,
		Skewness: Skewness(data),
		Count:    len(data),
	}
}

// Mean returns the arithmetic mean, or 0 for an empty sample.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// Median returns the middle value, interpolating between the two central
// values for even-sized samples.
func Median(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	return quantileSorted(sorted, 0.5)
}

// Std returns the sample standard deviation (n-1 denominator). Samples of
// fewer than two values have no spread and return 0.
func Std(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	mean := Mean(data)
	sum := 0.0
	for _, v := range data {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(data)-1))
}

// Quantile returns the q-th quantile (0 <= q <= 1) using linear
// interpolation between closest ranks.
func Quantile(data []float64, q float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	return quantileSorted(sorted, q)
}

func quantileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Skewness returns the adjusted Fisher-Pearson sample skewness. Samples of
// fewer than three values return 0.
func Skewness(data []float64) float64 {
	n := float64(len(data))
	if n < 3 {
		return 0
	}
	mean := Mean(data)
	m2, m3 := 0.0, 0.0
	for _, v := range data {
		d := v - mean
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= n
	m3 /= n
	if m2 == 0 {
		return 0
	}
	g1 := m3 / math.Pow(m2, 1.5)
	return g1 * math.Sqrt(n*(n-1)) / (n - 2)
}

// LinearFit fits y = slope*x + intercept by least squares. Fewer than two
// points yield a flat line through the mean.
func LinearFit(x, y []float64) (slope, intercept float64) {
	n := len(x)
	if n != len(y) || n == 0 {
		return 0, 0
	}
	if n == 1 {
		return 0, y[0]
	}

	meanX := Mean(x)
	meanY := Mean(y)

	num, den := 0.0, 0.0
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		num += dx * (y[i] - meanY)
		den += dx * dx
	}
	if den == 0 {
		return 0, meanY
	}
	slope = num / den
	return slope, meanY - slope*meanX
}

// Pearson returns the Pearson correlation coefficient of two equal-length
// samples, or 0 when either sample has no variance.
func Pearson(x, y []float64) float64 {
	n := len(x)
	if n != len(y) || n < 2 {
		return 0
	}

	meanX := Mean(x)
	meanY := Mean(y)

	num, sumX, sumY := 0.0, 0.0, 0.0
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		num += dx * dy
		sumX += dx * dx
		sumY += dy * dy
	}
	if sumX == 0 || sumY == 0 {
		return 0
	}
	return num / math.Sqrt(sumX*sumY)
}
