package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var RefreshTicks = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "explorer",
	Subsystem: "refresher",
	Name:      "ticks_total",
	Help:      "Counts periodic refresh iterations by outcome.",
}, []string{"outcome"})
