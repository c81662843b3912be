package features

import (
	"math"

	"MarketWhisperer/internal/domain/models"
)

// PctReturns computes simple returns r_t = C_t / C_{t-1} - 1.
// Pairs with a non-positive previous close are skipped.
func PctReturns(candles []models.Candle) []float64 {
	if len(candles) < 2 {
		return nil
	}
	out := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].Close
		if prev <= 0 {
			continue
		}
		out = append(out, candles[i].Close/prev-1)
	}
	return out
}

// SampleStdDev is the n-1 standard deviation; fewer than two values give NaN.
func SampleStdDev(xs []float64) float64 {
	n := float64(len(xs))
	if n < 2 {
		return math.NaN()
	}
	mean := Mean(xs)
	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / (n - 1))
}

// Mean returns the arithmetic mean, NaN for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Volumes extracts the volume column.
func Volumes(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}

// ChangePct is the percent move from the first to the last close.
func ChangePct(candles []models.Candle) float64 {
	if len(candles) == 0 || candles[0].Close == 0 {
		return math.NaN()
	}
	first := candles[0].Close
	last := candles[len(candles)-1].Close
	return (last - first) / first * 100
}
