package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"MarketWhisperer/internal/domain/models"
	"MarketWhisperer/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartBody = `{"chart":{"result":[{"meta":{"symbol":"ACME"},
"timestamp":[1728518400,1728604800,1728691200],
"indicators":{"quote":[{"open":[10,11,null],"high":[10.5,11.5,null],"low":[9.5,10.5,null],
"close":[10.2,null,12.4],"volume":[1000,2000,3000]}]}}],"error":null}}`

func newChart(url string) *YahooChart {
	return NewYahooChart(Options{BaseURL: url, Range: "1mo", Timeout: 2 * time.Second, Attempts: 1}, logger.Nop())
}

func TestDailyCandles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/ACME", r.URL.Path)
		assert.Equal(t, "1mo", r.URL.Query().Get("range"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		_, _ = w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	candles, err := newChart(srv.URL).DailyCandles(context.Background(), "ACME")
	require.NoError(t, err)

	// the null close is skipped
	require.Len(t, candles, 2)
	assert.Equal(t, 10.2, candles[0].Close)
	assert.Equal(t, 12.4, candles[1].Close)
	assert.Equal(t, 3000.0, candles[1].Volume)
	assert.Equal(t, 0.0, candles[1].Open)
	assert.Equal(t, time.Unix(1728691200, 0).UTC(), candles[1].Bucket)
}

func TestDailyCandlesUnknownSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	candles, err := newChart(srv.URL).DailyCandles(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Empty(t, candles)
}

func TestDailyCandlesFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newChart(srv.URL).DailyCandles(context.Background(), "ACME")
	assert.True(t, errors.Is(err, models.ErrSourceUnavailable))

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":`))
	}))
	defer bad.Close()

	_, err = newChart(bad.URL).DailyCandles(context.Background(), "ACME")
	assert.True(t, errors.Is(err, models.ErrMalformedResponse))
}
