package search

import (
	"sync"

	"crackhash/internal/progress"
)

// progressPump decouples the coordinator from the sink. publish never blocks;
// the sink sees the latest value and may miss intermediate ones.
type progressPump struct {
	sink progress.Sink

	mu          sync.Mutex
	done, total uint64
	dirty       bool

	wake     chan struct{}
	quit     chan struct{}
	finished chan struct{}
}

func newProgressPump(sink progress.Sink) *progressPump {
	p := &progressPump{
		sink:     sink,
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *progressPump) publish(done, total uint64) {
	p.mu.Lock()
	p.done, p.total, p.dirty = done, total, true
	p.mu.Unlock()
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *progressPump) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.wake:
			p.flush()
		case <-p.quit:
			p.flush()
			return
		}
	}
}

func (p *progressPump) flush() {
	p.mu.Lock()
	if !p.dirty {
		p.mu.Unlock()
		return
	}
	done, total := p.done, p.total
	p.dirty = false
	p.mu.Unlock()
	p.sink.OnProgress(done, total)
}

// close delivers the last published value and waits for the sink to return.
func (p *progressPump) close() {
	close(p.quit)
	<-p.finished
}
