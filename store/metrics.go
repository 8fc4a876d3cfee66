package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "explorer",
		Subsystem: "store",
		Name:      "cache_size",
		Help:      "Shows the number of bridge transactions currently held in the cache.",
	})
	Watermark = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "explorer",
		Subsystem: "store",
		Name:      "watermark_timestamp",
		Help:      "Shows the submission time of the newest cached bridge transaction, used as the lower bound of incremental refreshes.",
	})
	ReconciledTransactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "explorer",
		Subsystem: "store",
		Name:      "reconciled_transactions_total",
		Help:      "Counts cache changes applied by reconciliations.",
	}, []string{"mode", "change"})
	SupersededResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "explorer",
		Subsystem: "store",
		Name:      "superseded_responses_total",
		Help:      "Counts indexer responses discarded because a newer fetch was started.",
	}, []string{"mode"})
	FetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "explorer",
		Subsystem: "store",
		Name:      "fetch_errors_total",
		Help:      "Counts failed fetches by error kind.",
	}, []string{"mode", "kind"})
)
