package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"MarketWhisperer/internal/domain/models"
	pkgch "MarketWhisperer/pkg/clickhouse"
	applogger "MarketWhisperer/pkg/logger"
)

// CandleSchema creates the daily candle table read by CHCandleStore.
func CandleSchema(table string) []string {
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            bucket Date,
            symbol LowCardinality(String),
            open   Float64,
            high   Float64,
            low    Float64,
            close  Float64,
            volume Float64
        ) ENGINE = ReplacingMergeTree
        ORDER BY (symbol, bucket)
    `, table)}
}

// CHCandleStore serves daily candles from a ClickHouse table.
type CHCandleStore struct {
	db       *sql.DB
	table    string
	lookback time.Duration
	now      func() time.Time
	l        *applogger.Logger
}

func NewCHCandleStore(ch *pkgch.Client, table, rng string, l *applogger.Logger) *CHCandleStore {
	return &CHCandleStore{
		db:       ch.DB(),
		table:    table,
		lookback: LookbackFor(rng),
		now:      time.Now,
		l:        l,
	}
}

// LookbackFor converts a chart range ("5d", "1mo", "3mo", "1y") into a duration.
// Unknown ranges fall back to one month.
func LookbackFor(rng string) time.Duration {
	const day = 24 * time.Hour
	switch rng {
	case "5d":
		return 5 * day
	case "3mo":
		return 92 * day
	case "6mo":
		return 183 * day
	case "1y":
		return 365 * day
	default:
		return 31 * day
	}
}

// DailyCandles returns candles within the lookback window, oldest first.
func (s *CHCandleStore) DailyCandles(ctx context.Context, symbol string) ([]models.Candle, error) {
	start := time.Now()
	from := s.now().UTC().Add(-s.lookback).Truncate(24 * time.Hour)

	q := fmt.Sprintf(`
        SELECT bucket, symbol, open, high, low, close, volume
        FROM %s FINAL
        WHERE symbol = ? AND bucket >= ?
        ORDER BY bucket ASC
    `, s.table)

	rows, err := s.db.QueryContext(ctx, q, symbol, from)
	if err != nil {
		s.l.Error("clickhouse daily_candles query error",
			applogger.String("table", s.table),
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("%w: daily candles: %v", models.ErrSourceUnavailable, err)
	}
	defer rows.Close()

	out := make([]models.Candle, 0, 32)
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Bucket, &c.Symbol, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			s.l.Error("clickhouse daily_candles scan error",
				applogger.String("table", s.table),
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
			return nil, fmt.Errorf("%w: scan candle: %v", models.ErrMalformedResponse, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %v", models.ErrSourceUnavailable, err)
	}

	s.l.Debug("clickhouse daily_candles ok",
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}
