package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"crackhash/internal/attack"
	"crackhash/internal/hasher"
	"crackhash/internal/partition"
	"crackhash/internal/source"
)

// Task hands one chunk to one worker. Attempt is 0 for the first dispatch and 1
// for the single retry after a fault.
type Task struct {
	Chunk   partition.Chunk
	Attempt int
}

type Result struct {
	Task      Task
	Worker    int
	Found     bool
	Plaintext string
	Scanned   uint64
	Stopped   bool
	Err       error
}

// Token is a cancellation flag polled at every candidate boundary.
type Token struct {
	stopped atomic.Bool
}

// NewToken returns a token raised when ctx is done, and a func that releases the
// link to ctx.
func NewToken(ctx context.Context) (*Token, func() bool) {
	t := &Token{}
	stop := context.AfterFunc(ctx, func() { t.stopped.Store(true) })
	return t, stop
}

func (t *Token) Stop()         { t.stopped.Store(true) }
func (t *Token) Stopped() bool { return t.stopped.Load() }

type Worker struct {
	id      int
	src     source.Source
	matcher *hasher.Matcher
	log     *slog.Logger
}

func NewWorker(id int, src source.Source, alg hasher.Algorithm, target string, log *slog.Logger) (*Worker, error) {
	m, err := hasher.NewMatcher(alg, target)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Worker{
		id:      id,
		src:     src,
		matcher: m,
		log:     log.With(slog.Int("worker", id)),
	}, nil
}

func (w *Worker) ID() int { return w.id }

// Process scans the task's chunk until the first match, the end of the chunk, or
// the token being raised. A panic or read failure during expansion is reported
// as ErrWorkerFault.
func (w *Worker) Process(task Task, tok *Token) (res Result) {
	res = Result{Task: task, Worker: w.id}
	w.log.Debug("processing chunk",
		slog.Int("chunk", task.Chunk.ID),
		slog.Int("length", task.Chunk.Length),
		slog.Uint64("start", task.Chunk.Start),
		slog.Uint64("end", task.Chunk.End),
		slog.Int("attempt", task.Attempt))

	defer func() {
		if r := recover(); r != nil {
			res.Found = false
			res.Plaintext = ""
			res.Err = fmt.Errorf("%w: %s: panic: %v", attack.ErrWorkerFault, task.Chunk, r)
		}
	}()

	err := w.src.Enumerate(task.Chunk, func(candidate []byte) bool {
		if tok.Stopped() {
			res.Stopped = true
			return false
		}
		res.Scanned++
		if w.matcher.Match(candidate) {
			res.Found = true
			res.Plaintext = string(candidate)
			return false
		}
		return true
	})
	if err != nil {
		res.Err = fmt.Errorf("%w: %s: %w", attack.ErrWorkerFault, task.Chunk, err)
		return res
	}
	if res.Found {
		w.log.Info("found match", slog.Int("chunk", task.Chunk.ID))
	}
	return res
}
