// Package search runs an attack across a fixed pool of workers and stops every
// worker as soon as one of them finds the plaintext.
//
// Chunk results are consumed in completion order. The first match observed wins;
// matches reported by other chunks after that point are discarded. When several
// chunks match concurrently, which one is observed first depends on scheduling.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"crackhash/internal/attack"
	"crackhash/internal/hasher"
	"crackhash/internal/partition"
	"crackhash/internal/progress"
	"crackhash/internal/source"
	"crackhash/internal/worker"
)

var tracer = otel.Tracer("crackhash/internal/search")

type Config struct {
	// Workers is the pool size; 0 means runtime.NumCPU().
	Workers int
	// ChunkMultiplier is the number of chunks planned per worker.
	ChunkMultiplier int
	// MinChunk is the smallest chunk, in hash comparisons, worth dispatching.
	MinChunk uint64
	// MaxSearchSpace rejects larger domains before any work starts; 0 disables it.
	MaxSearchSpace uint64
}

func DefaultConfig() Config {
	p := partition.DefaultPolicy()
	return Config{
		Workers:         p.Workers,
		ChunkMultiplier: p.Multiplier,
		MinChunk:        p.MinChunk,
		MaxSearchSpace:  1 << 40,
	}
}

type Coordinator struct {
	cfg  Config
	sink progress.Sink
	log  *slog.Logger
}

func New(cfg Config, sink progress.Sink, log *slog.Logger) *Coordinator {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if sink == nil {
		sink = progress.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{cfg: cfg, sink: sink, log: log}
}

func (c *Coordinator) policy() partition.Policy {
	return partition.Policy{
		Workers:    c.cfg.Workers,
		Multiplier: c.cfg.ChunkMultiplier,
		MinChunk:   c.cfg.MinChunk,
	}
}

// Run validates spec, builds its candidate source and searches it. The returned
// error is non-nil exactly when the outcome is Failed or Interrupted, and is also
// stored in Result.Err.
func (c *Coordinator) Run(ctx context.Context, spec attack.Spec) (*Result, error) {
	ctx, span := tracer.Start(ctx, "search.Run", trace.WithAttributes(
		attribute.String("algorithm", spec.Algorithm.String()),
		attribute.String("mode", spec.Mode().String()),
	))
	defer span.End()

	started := time.Now()
	res := c.run(ctx, spec)
	res.Elapsed = time.Since(started)

	mode := spec.Mode().String()
	runsTotal.WithLabelValues(mode, res.Outcome.String()).Inc()
	runDuration.WithLabelValues(mode).Observe(res.Elapsed.Seconds())
	candidatesTotal.WithLabelValues(mode).Add(float64(res.Scanned))

	span.SetAttributes(
		attribute.String("outcome", res.Outcome.String()),
		attribute.Int64("total", int64(min(res.Total, 1<<63-1))),
		attribute.Int64("scanned", int64(min(res.Scanned, 1<<63-1))),
		attribute.Int("chunks", res.Chunks),
	)
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, attack.Kind(res.Err))
	}

	c.log.Info("search finished",
		slog.String("mode", mode),
		slog.String("outcome", res.Outcome.String()),
		slog.Uint64("scanned", res.Scanned),
		slog.Uint64("total", res.Total),
		slog.Duration("elapsed", res.Elapsed))
	return res, res.Err
}

func (c *Coordinator) run(ctx context.Context, spec attack.Spec) *Result {
	res := &Result{Mode: spec.Mode()}
	if err := spec.Validate(); err != nil {
		return failed(res, err)
	}
	if err := ctx.Err(); err != nil {
		return interrupted(ctx, res)
	}
	src, err := source.New(ctx, spec)
	if err != nil {
		if ctx.Err() != nil {
			return interrupted(ctx, res)
		}
		return failed(res, err)
	}
	return c.search(ctx, src, spec.Algorithm, spec.Target, res)
}

// Search runs an already built source. It is the entry point for callers that
// supply their own Source.
func (c *Coordinator) Search(ctx context.Context, src source.Source, alg hasher.Algorithm, target string) (*Result, error) {
	res := c.search(ctx, src, alg, target, &Result{Mode: src.Mode()})
	return res, res.Err
}

func (c *Coordinator) search(ctx context.Context, src source.Source, alg hasher.Algorithm, target string, res *Result) *Result {
	res.Total = src.Size()
	if c.cfg.MaxSearchSpace > 0 && res.Total > c.cfg.MaxSearchSpace {
		return failed(res, fmt.Errorf("%w: %d candidates exceeds the limit of %d",
			attack.ErrSearchSpaceTooLarge, res.Total, c.cfg.MaxSearchSpace))
	}

	chunks := src.Plan(c.policy())
	res.Chunks = len(chunks)
	if len(chunks) == 0 {
		res.Outcome = OutcomeNotFound
		return res
	}

	poolSize := min(c.cfg.Workers, len(chunks))
	pool := make([]*worker.Worker, poolSize)
	for i := range pool {
		w, err := worker.NewWorker(i+1, src, alg, target, c.log)
		if err != nil {
			return failed(res, fmt.Errorf("%w: %w", attack.ErrInvalidSpec, err))
		}
		pool[i] = w
	}

	c.log.Debug("dispatching",
		slog.String("mode", src.Mode().String()),
		slog.Uint64("total", res.Total),
		slog.Int("chunks", len(chunks)),
		slog.Int("workers", poolSize))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	tok, release := worker.NewToken(runCtx)
	defer release()

	jobs := make(chan worker.Task)
	results := make(chan worker.Result)

	// Faults travel on results so the coordinator can retry them; the group only
	// joins the pool.
	var g errgroup.Group
	for _, w := range pool {
		g.Go(func() error {
			for task := range jobs {
				r := w.Process(task, tok)
				if r.Err != nil {
					// A fault may leave the worker's hash state mid-write.
					if fresh, err := worker.NewWorker(w.ID(), src, alg, target, c.log); err == nil {
						w = fresh
					}
				}
				results <- r
			}
			return nil
		})
	}

	pump := newProgressPump(c.sink)
	defer pump.close()

	var (
		state       = StateDispatching
		next        int
		inflight    int
		retries     []worker.Task
		done        uint64
		found       *worker.Result
		fatal       error
		wasCanceled bool
		parentDone  = ctx.Done()
	)
	drain := func() {
		state = StateDraining
		tok.Stop()
		cancel()
		c.log.Debug("draining", slog.Int("inflight", inflight))
	}

	for {
		var send chan worker.Task
		var task worker.Task
		if state == StateDispatching {
			if len(retries) > 0 {
				task, send = retries[0], jobs
			} else if next < len(chunks) {
				task, send = worker.Task{Chunk: chunks[next]}, jobs
			}
		}
		if send == nil && inflight == 0 {
			break
		}

		select {
		case send <- task:
			inflight++
			if task.Attempt > 0 {
				retries = retries[1:]
			} else {
				next++
			}

		case r := <-results:
			inflight--
			res.Scanned += r.Scanned
			if state != StateDispatching {
				chunksTotal.WithLabelValues("discarded").Inc()
				if r.Found {
					c.log.Debug("discarding later match", slog.Int("chunk", r.Task.Chunk.ID))
				}
				continue
			}
			switch {
			case r.Err != nil:
				chunksTotal.WithLabelValues("fault").Inc()
				if r.Task.Attempt == 0 {
					c.log.Warn("retrying chunk after worker fault",
						slog.Int("chunk", r.Task.Chunk.ID),
						slog.Int("worker", r.Worker),
						slog.String("error", r.Err.Error()))
					res.Retries++
					retries = append(retries, worker.Task{Chunk: r.Task.Chunk, Attempt: 1})
					continue
				}
				fatal = r.Err
				drain()
			case r.Stopped:
				// Only cancellation raises the token while dispatching.
				chunksTotal.WithLabelValues("stopped").Inc()
				wasCanceled = true
				drain()
			case r.Found:
				chunksTotal.WithLabelValues("match").Inc()
				done += r.Scanned
				pump.publish(done, res.Total)
				found = &r
				drain()
			default:
				chunksTotal.WithLabelValues("exhausted").Inc()
				done += r.Scanned
				pump.publish(done, res.Total)
			}

		case <-parentDone:
			parentDone = nil
			if state == StateDispatching {
				wasCanceled = true
				drain()
			}
		}
	}

	close(jobs)
	_ = g.Wait()
	state = StateTerminated
	c.log.Debug("terminated", slog.String("state", state.String()))

	switch {
	case found != nil:
		res.Outcome = OutcomeFound
		res.Plaintext = found.Plaintext
		return res
	case fatal != nil:
		return failed(res, fatal)
	case wasCanceled:
		return interrupted(ctx, res)
	default:
		res.Outcome = OutcomeNotFound
		return res
	}
}

func failed(res *Result, err error) *Result {
	res.Outcome = OutcomeFailed
	res.Err = err
	return res
}

func interrupted(ctx context.Context, res *Result) *Result {
	res.Outcome = OutcomeInterrupted
	if cause := context.Cause(ctx); cause != nil {
		res.Err = fmt.Errorf("%w: %w", attack.ErrInterrupted, cause)
	} else {
		res.Err = attack.ErrInterrupted
	}
	return res
}
