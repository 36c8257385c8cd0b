package manager

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crackhash_jobs_total",
		Help: "Jobs that reached a terminal status",
	}, []string{"status"})

	jobsInProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crackhash_jobs_in_progress",
		Help: "Jobs currently searching",
	})

	potfileHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crackhash_potfile_hits_total",
		Help: "Requests answered from the potfile without searching",
	})
)
