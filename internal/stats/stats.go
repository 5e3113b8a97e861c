// Package stats holds the descriptive statistics used by the cleaning
// pipeline. Location and spread come from gonum; quantiles use linear
// interpolation between closest ranks.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean, or NaN for an empty slice.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil)
}

// MeanStd returns the mean and population (ddof 0) standard deviation.
func MeanStd(x []float64) (mean, std float64) {
	if len(x) == 0 {
		return math.NaN(), math.NaN()
	}
	return stat.PopMeanStdDev(x, nil)
}

// Median returns the 50th percentile, or NaN for an empty slice.
func Median(x []float64) float64 {
	return Quantile(x, 0.5)
}

// Quantile returns the q-th quantile (0 <= q <= 1) of x using linear
// interpolation at position q*(n-1) of the sorted values. x is not modified.
func Quantile(x []float64, q float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)
	return QuantileSorted(sorted, q)
}

// QuantileSorted is Quantile for already sorted input.
func QuantileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
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
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// IQRBounds returns the Tukey fences [Q1-k*IQR, Q3+k*IQR].
func IQRBounds(x []float64, k float64) (lower, upper float64) {
	if len(x) == 0 {
		return math.NaN(), math.NaN()
	}
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)
	q1 := QuantileSorted(sorted, 0.25)
	q3 := QuantileSorted(sorted, 0.75)
	iqr := q3 - q1
	return q1 - k*iqr, q3 + k*iqr
}

// Mode returns the most frequent string; ties go to the lexically smallest.
func Mode(values []string) (string, int) {
	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	var best string
	bestN := 0
	for v, n := range counts {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	return best, bestN
}

// Correlation returns the Pearson correlation of x and y, or NaN when it is
// undefined (fewer than two points or a constant input).
func Correlation(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return math.NaN()
	}
	r := stat.Correlation(x, y, nil)
	if math.IsInf(r, 0) {
		return math.NaN()
	}
	return math.Max(-1, math.Min(1, r))
}

// CorrelationMatrix computes pairwise Pearson correlations between columns.
// present[i][k] reports whether cols[i][k] holds a value; each pair uses only
// the rows where both columns are present.
func CorrelationMatrix(cols [][]float64, present [][]bool) [][]float64 {
	n := len(cols)
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			var x, y []float64
			for k := range cols[i] {
				if present[i][k] && present[j][k] {
					x = append(x, cols[i][k])
					y = append(y, cols[j][k])
				}
			}
			r := Correlation(x, y)
			if i == j && !math.IsNaN(r) {
				r = 1
			}
			out[i][j], out[j][i] = r, r
		}
	}
	return out
}
