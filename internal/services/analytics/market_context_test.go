package analytics

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"MarketWhisperer/internal/domain/models"
	"MarketWhisperer/pkg/cache"
	"MarketWhisperer/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCandles struct {
	candles []models.Candle
	err     error
	panics  bool
	calls   int32
}

func (s *stubCandles) DailyCandles(_ context.Context, _ string) ([]models.Candle, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.panics {
		panic("boom")
	}
	return s.candles, s.err
}

func series(closes []float64, volumes []float64) []models.Candle {
	out := make([]models.Candle, len(closes))
	for i := range closes {
		out[i] = models.Candle{Close: closes[i], Volume: volumes[i]}
	}
	return out
}

func TestDescribeUptrendHighVolatility(t *testing.T) {
	// returns +10%, -5%, +10% -> sample std ~8.66%
	c := series([]float64{100, 110, 104.5, 114.95}, []float64{100, 100, 100, 300})
	got := Describe(c)
	assert.Equal(t, "Price Trend (1mo): UPTREND (15.0%). Volatility: HIGH (8.7% daily). Volume: 2.0x average. Current Price: 114.95.", got)
}

func TestDescribeSidewaysLowVolatility(t *testing.T) {
	c := series([]float64{100, 100.5, 100, 100.5}, []float64{10, 10, 10, 10})
	got := Describe(c)
	assert.Equal(t, "Price Trend (1mo): SIDEWAYS (0.5%). Volatility: LOW (0.6% daily). Volume: 1.0x average. Current Price: 100.50.", got)
}

func TestDescribeDowntrendZeroVolume(t *testing.T) {
	c := series([]float64{100, 98.5, 97, 94}, []float64{0, 0, 0, 0})
	got := Describe(c)
	assert.Contains(t, got, "Price Trend (1mo): DOWNTREND (-6.0%).")
	assert.Contains(t, got, "Volatility: LOW (0.9% daily).")
	assert.Contains(t, got, "Volume: 1.0x average.")
	assert.Contains(t, got, "Current Price: 94.00.")
}

func TestDescribeSingleCandle(t *testing.T) {
	got := Describe(series([]float64{42}, []float64{5}))
	assert.Equal(t, "Price Trend (1mo): SIDEWAYS (0.0%). Volatility: LOW (0.0% daily). Volume: 1.0x average. Current Price: 42.00.", got)
}

func TestGetContextSentinels(t *testing.T) {
	ctx := context.Background()

	empty := NewMarketContextAdapter(&stubCandles{}, nil, 0, logger.Nop())
	mc := empty.GetContext(ctx, "ZERO")
	assert.Equal(t, models.NoDataContext, mc.Text)
	assert.Equal(t, models.ContextNoData, mc.Status)

	failing := NewMarketContextAdapter(&stubCandles{err: errors.New("timeout")}, nil, 0, logger.Nop())
	mc = failing.GetContext(ctx, "ACME")
	assert.Equal(t, models.UnavailableContext, mc.Text)
	assert.Equal(t, models.ContextUnavailable, mc.Status)

	panicking := NewMarketContextAdapter(&stubCandles{panics: true}, nil, 0, logger.Nop())
	mc = panicking.GetContext(ctx, "ACME")
	assert.Equal(t, models.ContextUnavailable, mc.Status)
}

func TestGetContextIsIdempotentAndCached(t *testing.T) {
	ctx := context.Background()
	src := &stubCandles{candles: series([]float64{100, 110, 104.5, 114.95}, []float64{100, 100, 100, 300})}

	mem := cache.NewMemoryCache()
	defer mem.Close()
	a := NewMarketContextAdapter(src, mem, time.Minute, logger.Nop())

	first := a.GetContext(ctx, "ACME")
	second := a.GetContext(ctx, "ACME")
	require.Equal(t, models.ContextOK, first.Status)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, atomic.LoadInt32(&src.calls))

	uncached := NewMarketContextAdapter(src, nil, 0, logger.Nop())
	assert.Equal(t, first.Text, uncached.GetContext(ctx, "ACME").Text)
}

func TestGetContextDoesNotCacheFailures(t *testing.T) {
	ctx := context.Background()
	src := &stubCandles{err: errors.New("down")}

	mem := cache.NewMemoryCache()
	defer mem.Close()
	a := NewMarketContextAdapter(src, mem, time.Minute, logger.Nop())

	a.GetContext(ctx, "ACME")
	a.GetContext(ctx, "ACME")
	assert.EqualValues(t, 2, atomic.LoadInt32(&src.calls))
}
