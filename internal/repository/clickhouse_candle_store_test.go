package repository

import (
	"context"
	"os"
	"testing"
	"time"

	pkgch "MarketWhisperer/pkg/clickhouse"
	applogger "MarketWhisperer/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookbackFor(t *testing.T) {
	assert.Equal(t, 31*24*time.Hour, LookbackFor("1mo"))
	assert.Equal(t, 5*24*time.Hour, LookbackFor("5d"))
	assert.Equal(t, 365*24*time.Hour, LookbackFor("1y"))
	assert.Equal(t, 31*24*time.Hour, LookbackFor("bogus"))
}

func TestCandleSchemaNamesTable(t *testing.T) {
	stmts := CandleSchema("whisperer.daily_candles")
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS whisperer.daily_candles")
}

// Runs against a live server when CLICKHOUSE_HOST is set.
func TestCHCandleStoreIntegration(t *testing.T) {
	host := os.Getenv("CLICKHOUSE_HOST")
	if host == "" {
		t.Skip("CLICKHOUSE_HOST not set")
	}

	ctx := context.Background()
	ch, err := pkgch.NewClient(pkgch.WithHost(host))
	require.NoError(t, err)
	defer ch.Close()

	table := "default.whisperer_candles_test"
	require.NoError(t, ch.InitSchema(ctx, CandleSchema(table)))
	_, err = ch.DB().ExecContext(ctx, "TRUNCATE TABLE "+table)
	require.NoError(t, err)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	_, err = ch.DB().ExecContext(ctx,
		"INSERT INTO "+table+" (bucket, symbol, open, high, low, close, volume) VALUES (?, ?, ?, ?, ?, ?, ?), (?, ?, ?, ?, ?, ?, ?)",
		today.Add(-48*time.Hour), "ACME", 1.0, 1.0, 1.0, 10.0, 100.0,
		today.Add(-24*time.Hour), "ACME", 1.0, 1.0, 1.0, 11.0, 200.0,
	)
	require.NoError(t, err)

	store := NewCHCandleStore(ch, table, "1mo", applogger.Nop())
	candles, err := store.DailyCandles(ctx, "ACME")
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, 10.0, candles[0].Close)
	assert.Equal(t, 11.0, candles[1].Close)
}
