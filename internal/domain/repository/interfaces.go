package repository

import (
	"context"

	"MarketWhisperer/internal/domain/models"
)

// CandleSource returns a trailing window of daily candles, oldest first.
type CandleSource interface {
	DailyCandles(ctx context.Context, symbol string) ([]models.Candle, error)
}

// InstrumentStore keeps the tracked instrument set.
type InstrumentStore interface {
	Add(inst models.Instrument) error
	Remove(symbol string) error
	List() []models.Instrument
}

// JobStore keeps analysis job snapshots keyed by id.
type JobStore interface {
	Save(ctx context.Context, job *models.AnalysisJob) error
	Get(ctx context.Context, id string) (*models.AnalysisJob, error)
}

// WhisperPublisher fans finished whispers out to downstream consumers.
type WhisperPublisher interface {
	PublishWhispers(ctx context.Context, jobID string, whispers []models.Whisper) error
	Close() error
}

// Metrics records analysis outcomes.
type Metrics interface {
	RecordWhisper(symbol string, action models.Action)
	RecordJob(state models.JobState)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	ClassifierInFlight(delta float64)
}
