// Package progress defines the observer a search reports completed work to, and
// the sinks crackhash ships with. Sinks are purely observational: they must
// return quickly and never influence the search.
package progress

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

// Sink receives the cumulative number of scanned candidates and the domain size.
// done never decreases during a run.
type Sink interface {
	OnProgress(done, total uint64)
}

// Func adapts a function to Sink.
type Func func(done, total uint64)

func (f Func) OnProgress(done, total uint64) { f(done, total) }

// Nop discards progress.
type Nop struct{}

func (Nop) OnProgress(uint64, uint64) {}

// Multi fans progress out to several sinks in order.
type Multi []Sink

func (m Multi) OnProgress(done, total uint64) {
	for _, s := range m {
		s.OnProgress(done, total)
	}
}

// Log writes at most one progress line per interval, plus the final one.
type Log struct {
	log       *slog.Logger
	sometimes *rate.Sometimes
	started   time.Time
}

func NewLog(log *slog.Logger, interval time.Duration) *Log {
	if log == nil {
		log = slog.Default()
	}
	return &Log{
		log:       log,
		sometimes: &rate.Sometimes{First: 1, Interval: interval},
		started:   time.Now(),
	}
}

func (l *Log) OnProgress(done, total uint64) {
	emit := func() {
		elapsed := time.Since(l.started)
		speed := 0.0
		if elapsed > 0 {
			speed = float64(done) / elapsed.Seconds()
		}
		l.log.Info("progress",
			slog.Uint64("done", done),
			slog.Uint64("total", total),
			slog.String("percent", percent(done, total)),
			slog.Float64("per_second", speed))
	}
	if done == total {
		emit()
		return
	}
	l.sometimes.Do(emit)
}

func percent(done, total uint64) string {
	if total == 0 {
		return "100.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(done)*100/float64(total))
}

var (
	candidatesDone = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crackhash_progress_candidates_done",
		Help: "Candidates scanned by the current run",
	})
	candidatesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crackhash_progress_candidates_total",
		Help: "Size of the current run's candidate domain",
	})
)

// Gauge mirrors progress into prometheus gauges.
type Gauge struct{}

func (Gauge) OnProgress(done, total uint64) {
	candidatesDone.Set(float64(done))
	candidatesTotal.Set(float64(total))
}
