package search

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crackhash_runs_total",
		Help: "Completed searches by outcome",
	}, []string{"mode", "outcome"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crackhash_run_duration_seconds",
		Help:    "Wall time of completed searches",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 12), // 1ms to ~1h
	}, []string{"mode"})

	chunksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crackhash_chunks_total",
		Help: "Chunk results received by the coordinator",
	}, []string{"result"})

	candidatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crackhash_candidates_total",
		Help: "Candidates hashed",
	}, []string{"mode"})
)
