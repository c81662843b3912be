package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"MarketWhisperer/internal/domain/models"
	domrepo "MarketWhisperer/internal/domain/repository"
	"MarketWhisperer/internal/services/features"
	"MarketWhisperer/pkg/cache"
	"MarketWhisperer/pkg/logger"
)

const (
	trendThresholdPct = 5.0
	highVolPct        = 2.0
	mediumVolPct      = 1.0
)

// MarketContextAdapter condenses a month of daily candles into one sentence.
type MarketContextAdapter struct {
	source domrepo.CandleSource
	cache  cache.Service
	ttl    time.Duration
	log    *logger.Logger
}

// NewMarketContextAdapter builds the adapter; c may be nil to disable caching.
func NewMarketContextAdapter(source domrepo.CandleSource, c cache.Service, ttl time.Duration, log *logger.Logger) *MarketContextAdapter {
	return &MarketContextAdapter{source: source, cache: c, ttl: ttl, log: log}
}

// GetContext never fails: problems are reported through the sentinel sentences.
func (a *MarketContextAdapter) GetContext(ctx context.Context, symbol string) (mc models.MarketContext) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("market context panic", logger.String("symbol", symbol), logger.Any("panic", r))
			mc = unavailable(symbol)
		}
	}()

	key := cache.GenerateKey("context", symbol)
	if a.cache != nil && a.ttl > 0 {
		var cached models.MarketContext
		if err := a.cache.Get(ctx, key, &cached); err == nil {
			return cached
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			a.log.Warn("context cache read failed", logger.String("symbol", symbol), logger.Error(err))
		}
	}

	candles, err := a.source.DailyCandles(ctx, symbol)
	if err != nil {
		a.log.Warn("market data unavailable", logger.String("symbol", symbol), logger.Error(err))
		return unavailable(symbol)
	}
	if len(candles) == 0 {
		return models.MarketContext{Symbol: symbol, Text: models.NoDataContext, Status: models.ContextNoData}
	}

	mc = models.MarketContext{Symbol: symbol, Text: Describe(candles), Status: models.ContextOK}
	if a.cache != nil && a.ttl > 0 {
		if err := a.cache.Set(ctx, key, mc, a.ttl); err != nil {
			a.log.Warn("context cache write failed", logger.String("symbol", symbol), logger.Error(err))
		}
	}
	return mc
}

func unavailable(symbol string) models.MarketContext {
	return models.MarketContext{Symbol: symbol, Text: models.UnavailableContext, Status: models.ContextUnavailable}
}

// Describe formats the trend, volatility and volume sentence for non-empty candles.
func Describe(candles []models.Candle) string {
	last := candles[len(candles)-1]

	change := features.ChangePct(candles)
	if math.IsNaN(change) {
		change = 0
	}
	trend := "SIDEWAYS"
	switch {
	case change > trendThresholdPct:
		trend = "UPTREND"
	case change < -trendThresholdPct:
		trend = "DOWNTREND"
	}

	vol := features.SampleStdDev(features.PctReturns(candles)) * 100
	if math.IsNaN(vol) {
		// a single session has no return dispersion
		vol = 0
	}
	volLabel := "LOW"
	switch {
	case vol > highVolPct:
		volLabel = "HIGH"
	case vol > mediumVolPct:
		volLabel = "MEDIUM"
	}

	ratio := 1.0
	if avg := features.Mean(features.Volumes(candles)); avg > 0 {
		ratio = last.Volume / avg
	}

	return fmt.Sprintf(
		"Price Trend (1mo): %s (%.1f%%). Volatility: %s (%.1f%% daily). Volume: %.1fx average. Current Price: %.2f.",
		trend, change, volLabel, vol, ratio, last.Close,
	)
}
