package models

// Requests for whisper HTTP endpoints. Defined in domain for consistency and reuse.

type AddInstrumentRequest struct {
	Symbol string `json:"symbol" validate:"required,max=20"`
	Name   string `json:"name" validate:"max=120"`
}

type SymbolRequest struct {
	Symbol string `param:"symbol" validate:"required"`
}

type JobRequest struct {
	TaskID string `param:"task_id" validate:"required"`
}

type StreamRequest struct {
	TaskID     string `param:"task_id" validate:"required"`
	IntervalMS int    `query:"interval_ms" default:"1000" validate:"gte=200,lte=30000"`
}
