package models

import "time"

// JobState is the lifecycle state of an analysis job.
type JobState string

const (
	JobPending JobState = "PENDING"
	JobRunning JobState = "RUNNING"
	JobSuccess JobState = "SUCCESS"
	JobFailure JobState = "FAILURE"
)

// Terminal reports whether no further transitions are allowed.
func (s JobState) Terminal() bool {
	return s == JobSuccess || s == JobFailure
}

// AnalysisJob is one asynchronous run of the orchestrator.
type AnalysisJob struct {
	ID        string    `json:"id"`
	State     JobState  `json:"state"`
	Result    []Whisper `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AnalyzePayload is the queue message body for an analysis job.
type AnalyzePayload struct {
	JobID       string       `json:"job_id"`
	Instruments []Instrument `json:"instruments"`
}
