package formulas

import "gonum.org/v1/gonum/stat"

// CalculateAVWAP computes the anchored volume-weighted average price over
// the most recent `length` bars (anchor = length bars ago).
func CalculateAVWAP(closes []float64, volumes []float64, length int) *float64 {
	if len(closes) < length || len(volumes) < length || length == 0 {
		return nil
	}

	window := closes[len(closes)-length:]
	volWindow := volumes[len(volumes)-length:]

	totalVolume := Mean(volWindow) * float64(length)
	if totalVolume == 0 {
		return nil
	}

	weighted := stat.Mean(window, volWindow)
	return &weighted
}

// CalculatePctDeviation returns the percentage deviation of price from a
// reference value (e.g. AVWAP), positive when price is above it.
func CalculatePctDeviation(price, reference float64) float64 {
	if reference == 0 {
		return 0
	}
	return (price - reference) / reference * 100
}

// LinearRegressionSlope fits an ordinary least-squares line to the given
// y-values (x = 0..n-1) and returns its slope.
func LinearRegressionSlope(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	_, slope := stat.LinearRegression(xs, values, nil, false)
	return slope
}

// PercentileRank returns the percentile (0..100) of the last value of
// `values` within the whole series, used for the BBWP (Bollinger
// Band Width Percentile) field.
func PercentileRank(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	last := values[n-1]
	below := 0
	for _, v := range values {
		if v <= last {
			below++
		}
	}
	return float64(below) / float64(n) * 100
}
