// Package manager runs crack jobs for the CLI and the HTTP API. It answers from
// the potfile when it can, otherwise runs a search and records what it recovers.
package manager

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"crackhash/internal/attack"
	"crackhash/internal/potfile"
	"crackhash/internal/progress"
	"crackhash/internal/search"
)

const (
	StatusInProgress = "IN_PROGRESS"
	StatusReady      = "READY"
	StatusNotFound   = "NOT_FOUND"
	StatusError      = "ERROR"
	StatusCancelled  = "CANCELLED"
)

type Options struct {
	Search search.Config
	// Pot is optional; without it every request searches.
	Pot *potfile.Pot
	// Timeout bounds each submitted job; 0 means no limit.
	Timeout          time.Duration
	ProgressInterval time.Duration
	Logger           *slog.Logger
}

// Report is a search result plus where it came from.
type Report struct {
	*search.Result
	// Cached is set when the plaintext came from the potfile.
	Cached bool
}

type Manager struct {
	opts Options
	log  *slog.Logger

	mu   sync.RWMutex
	jobs map[string]*Job
	wg   sync.WaitGroup
}

func NewManager(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		opts: opts,
		log:  opts.Logger,
		jobs: make(map[string]*Job),
	}
}

// Crack runs spec to completion on the caller's goroutine.
func (m *Manager) Crack(ctx context.Context, spec attack.Spec, sink progress.Sink) (*Report, error) {
	if pot := m.opts.Pot; pot != nil && spec.Validate() == nil {
		plaintext, err := pot.Lookup(spec.Algorithm, spec.Target)
		switch {
		case err == nil:
			potfileHits.Inc()
			m.log.Info("digest already recovered",
				slog.String("algorithm", spec.Algorithm.String()),
				slog.String("digest", spec.Target))
			return &Report{
				Result: &search.Result{Outcome: search.OutcomeFound, Plaintext: plaintext, Mode: spec.Mode()},
				Cached: true,
			}, nil
		case !errors.Is(err, potfile.ErrNotFound):
			m.log.Warn("potfile lookup failed", slog.String("error", err.Error()))
		}
	}

	res, err := search.New(m.opts.Search, sink, m.log).Run(ctx, spec)
	if res.Outcome == search.OutcomeFound && m.opts.Pot != nil {
		if err := m.opts.Pot.Save(spec.Algorithm, spec.Target, res.Plaintext); err != nil {
			m.log.Warn("potfile save failed", slog.String("error", err.Error()))
		}
	}
	return &Report{Result: res}, err
}

// Submit starts spec in the background and returns the job id.
func (m *Manager) Submit(spec attack.Spec) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", err
	}

	id := uuid.New().String()
	ctx, cancel := context.WithCancelCause(context.Background())
	job := &Job{
		ID:        id,
		Spec:      spec,
		CreatedAt: time.Now(),
		status:    StatusInProgress,
		cancel:    cancel,
		finished:  make(chan struct{}),
	}

	m.mu.Lock()
	m.jobs[id] = job
	m.mu.Unlock()

	var stop context.CancelFunc = func() {}
	if m.opts.Timeout > 0 {
		ctx, stop = context.WithTimeoutCause(ctx, m.opts.Timeout, ErrJobTimeout)
	}

	log := m.log.With(slog.String("request_id", id))
	var sink progress.Sink = job
	if m.opts.ProgressInterval > 0 {
		sink = progress.Multi{job, progress.NewLog(log, m.opts.ProgressInterval)}
	}

	jobsInProgress.Inc()
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer jobsInProgress.Dec()
		defer cancel(nil)
		defer stop()

		rep, err := m.Crack(ctx, spec, sink)
		status := job.finish(rep, err, context.Cause(ctx))
		jobsTotal.WithLabelValues(status).Inc()
		log.Info("job finished", slog.String("status", status))
	}()

	log.Info("job submitted",
		slog.String("mode", spec.Mode().String()),
		slog.String("algorithm", spec.Algorithm.String()))
	return id, nil
}

// Status returns a snapshot of the job.
func (m *Manager) Status(id string) (Snapshot, error) {
	job, err := m.job(id)
	if err != nil {
		return Snapshot{}, err
	}
	return job.Snapshot(), nil
}

// Wait blocks until the job is terminal or ctx is done.
func (m *Manager) Wait(ctx context.Context, id string) (Snapshot, error) {
	job, err := m.job(id)
	if err != nil {
		return Snapshot{}, err
	}
	select {
	case <-job.finished:
		return job.Snapshot(), nil
	case <-ctx.Done():
		return job.Snapshot(), ctx.Err()
	}
}

// Cancel stops a running job. The job turns CANCELLED once its workers drain.
func (m *Manager) Cancel(id string) error {
	job, err := m.job(id)
	if err != nil {
		return err
	}
	if job.Snapshot().Status != StatusInProgress {
		return ErrJobFinished
	}
	job.cancel(ErrJobCancelled)
	m.log.Info("job cancel requested", slog.String("request_id", id))
	return nil
}

// Close cancels every running job and waits for them to drain.
func (m *Manager) Close() {
	m.mu.RLock()
	for _, job := range m.jobs {
		job.cancel(ErrShutdown)
	}
	m.mu.RUnlock()
	m.wg.Wait()
}

func (m *Manager) job(id string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// Job is one submitted search. It is also the progress sink of its own run.
type Job struct {
	ID        string
	Spec      attack.Spec
	CreatedAt time.Time

	done, total atomic.Uint64

	mu        sync.Mutex
	status    string
	plaintext string
	cached    bool
	err       error
	cancel    context.CancelCauseFunc
	finished  chan struct{}
}

func (j *Job) OnProgress(done, total uint64) {
	j.done.Store(done)
	j.total.Store(total)
}

func (j *Job) finish(rep *Report, err error, cause error) string {
	j.mu.Lock()
	defer j.mu.Unlock()
	defer close(j.finished)

	j.err = err
	res := rep.Result
	switch res.Outcome {
	case search.OutcomeFound:
		j.status = StatusReady
		j.plaintext = res.Plaintext
		j.cached = rep.Cached
	case search.OutcomeNotFound:
		j.status = StatusNotFound
	case search.OutcomeInterrupted:
		if errors.Is(cause, ErrJobTimeout) {
			j.status = StatusError
		} else {
			j.status = StatusCancelled
		}
	default:
		j.status = StatusError
	}
	if res.Total > 0 {
		j.total.Store(res.Total)
	}
	return j.status
}

// Snapshot is a consistent view of a job.
type Snapshot struct {
	ID        string
	Status    string
	Plaintext string
	Cached    bool
	Done      uint64
	Total     uint64
	Err       error
	CreatedAt time.Time
}

func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Snapshot{
		ID:        j.ID,
		Status:    j.status,
		Plaintext: j.plaintext,
		Cached:    j.cached,
		Done:      j.done.Load(),
		Total:     j.total.Load(),
		Err:       j.err,
		CreatedAt: j.CreatedAt,
	}
}
