package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	flushAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flowtide_client",
			Name:      "cache_flush_attempts_total",
			Help:      "Cache flush attempts, including retries.",
		},
		[]string{"project"},
	)

	flushFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flowtide_client",
			Name:      "cache_flush_failures_total",
			Help:      "Cache flushes that exhausted their retry budget.",
		},
		[]string{"project"},
	)
)
