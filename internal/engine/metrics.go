package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	passDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mirrord_pass_duration_seconds",
		Help:    "Duration of each full backup pass",
		Buckets: prometheus.ExponentialBuckets(0.1, 4, 10),
	})

	passTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mirrord_pass_total",
		Help: "Total backup passes by aggregate result",
	}, []string{"result"})

	pairRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mirrord_pair_runs_total",
		Help: "Total per-pair copy runs by outcome",
	}, []string{"outcome"})

	bytesCopiedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mirrord_bytes_copied_total",
		Help: "Total bytes reported copied by the external tool",
	})

	daemonRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mirrord_daemon_running",
		Help: "1 while the background scheduler is armed",
	})
)
