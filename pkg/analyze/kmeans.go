package analyze

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/eduviz/eduviz/pkg/stats"
)

// clusterSeed fixes the k-means initialization so repeated analyses of the
// same data produce the same clusters.
const clusterSeed = 42

// minClusterStudents is the smallest cohort worth clustering.
const minClusterStudents = 10

// clusterStudents groups students by k-means over their standardized
// (average grade, grade count, grade std) aggregates. Cohorts below
// minClusterStudents skip clustering.
func clusterStudents(aggregates []studentAggregate) map[string]Cluster {
	if len(aggregates) < minClusterStudents {
		return nil
	}

	points := make([][]float64, len(aggregates))
	for i, agg := range aggregates {
		points[i] = []float64{agg.avgGrade, float64(agg.gradeCount), agg.gradeStd}
	}
	standardize(points)

	k := len(aggregates) / 3
	if k > 4 {
		k = 4
	}
	if k < 2 {
		k = 2
	}

	assignments := kmeans(points, k, clusterSeed)

	clusters := make(map[string]Cluster, k)
	for c := 0; c < k; c++ {
		var ids []string
		var avgs []float64
		for i, assigned := range assignments {
			if assigned != c {
				continue
			}
			ids = append(ids, aggregates[i].id)
			avgs = append(avgs, aggregates[i].avgGrade)
		}
		if len(ids) == 0 {
			continue
		}
		if len(ids) > 10 {
			ids = ids[:10]
		}
		clusters[fmt.Sprintf("cluster_%d", c)] = Cluster{
			StudentCount: len(avgs),
			AvgGradeMean: stats.Mean(avgs),
			AvgGradeStd:  stats.Std(avgs),
			StudentIDs:   ids,
		}
	}
	return clusters
}

// standardize scales each feature column to zero mean and unit variance in
// place. Zero-variance columns are left centered.
func standardize(points [][]float64) {
	if len(points) == 0 {
		return
	}
	dims := len(points[0])
	for d := 0; d < dims; d++ {
		col := make([]float64, len(points))
		for i, p := range points {
			col[i] = p[d]
		}
		mean := stats.Mean(col)
		std := stats.Std(col)
		for i := range points {
			points[i][d] -= mean
			if std > 0 {
				points[i][d] /= std
			}
		}
	}
}

// kmeans runs Lloyd's algorithm with random initial centroids drawn from
// the points, returning a cluster index per point.
func kmeans(points [][]float64, k int, seed int64) []int {
	rng := rand.New(rand.NewSource(seed))

	// Initial centroids: k distinct points.
	perm := rng.Perm(len(points))
	centroids := make([][]float64, k)
	for c := 0; c < k; c++ {
		centroids[c] = append([]float64(nil), points[perm[c]]...)
	}

	assignments := make([]int, len(points))
	const maxIterations = 100

	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, p := range points {
			best := 0
			bestDist := math.MaxFloat64
			for c, centroid := range centroids {
				if d := sqDist(p, centroid); d < bestDist {
					bestDist = d
					best = c
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		// Recompute centroids; empty clusters keep their position.
		dims := len(points[0])
		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dims)
		}
		for i, p := range points {
			c := assignments[i]
			counts[c]++
			for d, v := range p {
				sums[c][d] += v
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			for d := 0; d < dims; d++ {
				centroids[c][d] = sums[c][d] / float64(counts[c])
			}
		}
	}

	return assignments
}

func sqDist(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
