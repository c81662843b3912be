package metrics

import (
	"MarketWhisperer/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	whispers    *prometheus.CounterVec
	jobs        *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	inFlight    prometheus.Gauge
}

// New registers the recorder's collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		whispers: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whisperer_whispers_total",
				Help: "Whispers produced, by symbol and action",
			},
			[]string{"symbol", "action"},
		),
		jobs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whisperer_jobs_total",
				Help: "Analysis jobs reaching a state",
			},
			[]string{"state"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whisperer_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "whisperer_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"operation"},
		),
		inFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "whisperer_classifier_in_flight",
				Help: "Classifier calls currently running",
			},
		),
	}
}

// RecordWhisper counts one produced whisper.
func (r *Recorder) RecordWhisper(symbol string, action models.Action) {
	r.whispers.WithLabelValues(symbol, string(action)).Inc()
}

// RecordJob counts a job state transition.
func (r *Recorder) RecordJob(state models.JobState) {
	r.jobs.WithLabelValues(string(state)).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) ClassifierInFlight(delta float64) {
	r.inFlight.Add(delta)
}
