package models

import "time"

// ContextStatus reports which kind of market context was produced.
type ContextStatus string

const (
	ContextOK          ContextStatus = "OK"
	ContextNoData      ContextStatus = "NO_DATA"
	ContextUnavailable ContextStatus = "UNAVAILABLE"
)

const (
	NoDataContext      = "No historical data available."
	UnavailableContext = "Market data unavailable."
)

// MarketContext is a one-sentence summary of recent price behaviour.
// Text is always usable, even when Status is not OK.
type MarketContext struct {
	Symbol string        `json:"symbol"`
	Text   string        `json:"text"`
	Status ContextStatus `json:"status"`
}

// Candle represents a daily OHLCV record.
type Candle struct {
	Bucket time.Time
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}
