package features

import (
	"math"
	"testing"

	"MarketWhisperer/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

func closes(vals ...float64) []models.Candle {
	out := make([]models.Candle, len(vals))
	for i, v := range vals {
		out[i] = models.Candle{Close: v, Volume: float64(i + 1)}
	}
	return out
}

func TestPctReturns(t *testing.T) {
	got := PctReturns(closes(100, 110, 99))
	assert.InDeltaSlice(t, []float64{0.1, -0.1}, got, 1e-9)
	assert.Nil(t, PctReturns(closes(100)))
}

func TestSampleStdDev(t *testing.T) {
	// sample variance of {2,4,4,4,5,5,7,9} is 32/7
	assert.InDelta(t, math.Sqrt(32.0/7.0), SampleStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
	assert.True(t, math.IsNaN(SampleStdDev([]float64{1})))
}

func TestChangePct(t *testing.T) {
	assert.InDelta(t, 10.0, ChangePct(closes(100, 90, 110)), 1e-9)
	assert.True(t, math.IsNaN(ChangePct(nil)))
}

func TestMeanAndVolumes(t *testing.T) {
	c := closes(1, 2, 3, 4)
	assert.Equal(t, []float64{1, 2, 3, 4}, Volumes(c))
	assert.InDelta(t, 2.5, Mean(Volumes(c)), 1e-9)
	assert.True(t, math.IsNaN(Mean(nil)))
}
