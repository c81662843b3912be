package service

import (
	"context"

	"MarketWhisperer/internal/domain/models"
)

// HeadlineFetcher returns recent headlines for a symbol.
type HeadlineFetcher interface {
	FetchHeadlines(ctx context.Context, symbol string) ([]models.Headline, error)
}

// ContextProvider summarizes recent market behaviour for a symbol.
// Failures are folded into the returned context, never returned.
type ContextProvider interface {
	GetContext(ctx context.Context, symbol string) models.MarketContext
}

// Classifier turns headlines and context into a trading signal.
// Failures are folded into a neutral signal, never returned.
type Classifier interface {
	Classify(ctx context.Context, symbol string, headlines []models.Headline, marketContext string) models.Signal
}

// TextModel is a text-in/text-out completion endpoint.
type TextModel interface {
	Configured() bool
	Generate(ctx context.Context, prompt string) (string, error)
}
