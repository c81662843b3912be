package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	UpstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "whisperer",
			Subsystem: "upstream",
			Name:      "latency_seconds",
			Help:      "Latency of calls to news, market and model providers",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"upstream"},
	)

	UpstreamErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "whisperer",
			Subsystem: "upstream",
			Name:      "errors_total",
			Help:      "Failed upstream calls after retries",
		},
		[]string{"upstream"},
	)
)

// Register adds the upstream collectors to reg; later calls are no-ops.
func Register(reg prometheus.Registerer) {
	once.Do(func() {
		reg.MustRegister(UpstreamLatency, UpstreamErrors)
	})
}
