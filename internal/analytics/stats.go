package analytics

import "math"

// olsLine fits value = slope*year + intercept by ordinary least squares over
// (x, y) pairs. Fewer than 2 points yields slope 0 and intercept equal to the
// single available value (or 0 when there is none).
func olsLine(xs, ys []float64) (slope, intercept float64) {
	n := float64(len(xs))
	if len(xs) < 2 {
		if len(ys) == 1 {
			return 0, ys[0]
		}
		return 0, 0
	}
	var sumX, sumY, sumXX, sumXY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXX += xs[i] * xs[i]
		sumXY += xs[i] * ys[i]
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// pearson computes the Pearson correlation coefficient of two aligned series.
// Returns nil when fewer than 2 points exist or either series has zero
// variance.
func pearson(a, b []float64) *float64 {
	if len(a) != len(b) || len(a) < 2 {
		return nil
	}
	var n, sumX, sumY, sumXX, sumYY, sumXY float64
	for i := range a {
		n++
		sumX += a[i]
		sumY += b[i]
		sumXX += a[i] * a[i]
		sumYY += b[i] * b[i]
		sumXY += a[i] * b[i]
	}
	denom := math.Sqrt((n*sumXX - sumX*sumX) * (n*sumYY - sumY*sumY))
	if denom == 0 || math.IsNaN(denom) {
		return nil
	}
	r := (n*sumXY - sumX*sumY) / denom
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return &r
}
