package erq

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cse_erq_requests_total",
		Help: "Total engine requests submitted to the queue",
	})

	requestsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cse_erq_requests_failed_total",
		Help: "Total engine requests that completed with an error",
	})

	respawnsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cse_erq_respawns_total",
		Help: "Total engine subprocess respawns triggered by the worker",
	})

	waitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cse_erq_wait_seconds",
		Help:    "Time a request spent queued before the worker dispatched it",
		Buckets: prometheus.DefBuckets,
	})

	queueDepthGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cse_erq_queue_depth",
		Help: "Number of requests currently pending in the queue",
	})
)
