package metrics

import (
    "sync"
    "time"

    "github.com/prometheus/client_golang/prometheus"
)

var (
    once sync.Once

    EndpointLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "finscore",
            Subsystem: "api",
            Name:      "latency_seconds",
            Help:      "Latency of scoring endpoints",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"endpoint"},
    )

    EndpointErrors = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "finscore",
            Subsystem: "api",
            Name:      "errors_total",
            Help:      "Errors by scoring endpoint",
        },
        []string{"endpoint", "code"},
    )
)

func Register() {
    once.Do(func() {
        prometheus.MustRegister(EndpointLatency, EndpointErrors)
    })
}

// Observe records the latency of one endpoint call since start and
// counts it as an error when code is non-empty.
func Observe(endpoint string, start time.Time, code string) {
    EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
    if code != "" {
        EndpointErrors.WithLabelValues(endpoint, code).Inc()
    }
}
