package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"MarketWhisperer/internal/domain/models"
	"MarketWhisperer/internal/services/analytics"
	xhttp "MarketWhisperer/pkg/http"
	"MarketWhisperer/pkg/logger"
)

// Options configures the Yahoo chart client.
type Options struct {
	BaseURL  string
	Range    string
	Timeout  time.Duration
	Attempts int
}

// YahooChart reads daily candles from the Yahoo Finance chart endpoint.
type YahooChart struct {
	http *analytics.HTTPServiceBase
	rng  string
	log  *logger.Logger
}

func NewYahooChart(opts Options, log *logger.Logger) *YahooChart {
	if opts.Range == "" {
		opts.Range = "1mo"
	}
	return &YahooChart{
		// the endpoint rejects Go's default user agent
		http: analytics.NewHTTPServiceBase("yahoo_chart", opts.BaseURL, opts.Timeout, opts.Attempts,
			xhttp.WithHeader("User-Agent", "Mozilla/5.0 (compatible; MarketWhisperer/1.0)")),
		rng: opts.Range,
		log: log,
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// DailyCandles returns the configured range of daily candles, oldest first.
// An unknown symbol yields no candles rather than an error.
func (y *YahooChart) DailyCandles(ctx context.Context, symbol string) ([]models.Candle, error) {
	path := "/v8/finance/chart/" + url.PathEscape(symbol)
	body, err := y.http.GetBytesWithRetry(ctx, path, map[string][]string{
		"range":    {y.rng},
		"interval": {"1d"},
	})
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			y.log.Debug("chart not found", logger.String("symbol", symbol))
			return nil, nil
		}
		return nil, fmt.Errorf("%w: chart for %s: %v", models.ErrSourceUnavailable, symbol, err)
	}

	candles, err := parseChart(symbol, body)
	if err != nil {
		return nil, fmt.Errorf("%w: chart for %s: %v", models.ErrMalformedResponse, symbol, err)
	}
	return candles, nil
}

func parseChart(symbol string, body []byte) ([]models.Candle, error) {
	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		if resp.Chart.Error.Code == "Not Found" {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	res := resp.Chart.Result[0]
	q := res.Indicators.Quote[0]
	out := make([]models.Candle, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		closePx := at(q.Close, i)
		if closePx == nil {
			// halted or not yet settled
			continue
		}
		out = append(out, models.Candle{
			Bucket: time.Unix(ts, 0).UTC(),
			Symbol: symbol,
			Open:   deref(at(q.Open, i)),
			High:   deref(at(q.High, i)),
			Low:    deref(at(q.Low, i)),
			Close:  *closePx,
			Volume: deref(at(q.Volume, i)),
		})
	}
	return out, nil
}

func at(xs []*float64, i int) *float64 {
	if i < len(xs) {
		return xs[i]
	}
	return nil
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
