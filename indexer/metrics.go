package indexer

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/omni/bridge-explorer/entity"
)

var (
	RequestResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "explorer",
		Subsystem: "indexer",
		Name:      "request_results_total",
		Help:      "Results of logical indexer requests, after all retry attempts.",
	}, []string{"url", "query", "status"})

	RequestAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "explorer",
		Subsystem: "indexer",
		Name:      "request_attempts_total",
		Help:      "Single HTTP attempts made against the indexer.",
	}, []string{"url", "query"})

	RequestDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "explorer",
		Subsystem: "indexer",
		Name:      "request_duration_seconds",
		Buckets:   []float64{0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10, 20},
	}, []string{"url", "query"})
)

func ObserveError(url, query string, err error) {
	if err == nil {
		RequestResults.WithLabelValues(url, query, "ok").Inc()
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		RequestResults.WithLabelValues(url, query, "timeout").Inc()
	} else if kind, ok := entity.ErrorKindOf(err); ok {
		RequestResults.WithLabelValues(url, query, "error-"+string(kind)).Inc()
	} else {
		RequestResults.WithLabelValues(url, query, "error").Inc()
	}
}

func ObserveDuration(url, query string) func() time.Duration {
	return prometheus.NewTimer(RequestDurations.WithLabelValues(url, query)).ObserveDuration
}
