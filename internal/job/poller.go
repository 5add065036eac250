package job

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Refresher is the single-cycle unit of work driven by a Poller.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Poller drives a Refresher on a fixed interval. Start runs one cycle
// immediately, then ticks. A cycle that outlives its interval is not stacked:
// ticks that land while a run is in flight are skipped.
type Poller struct {
	tracer   trace.Tracer
	name     string
	target   Refresher
	interval time.Duration

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	inFlight atomic.Bool
}

func NewPoller(tracer trace.Tracer, name string, target Refresher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Poller{tracer: tracer, name: name, target: target, interval: interval}
}

// Start launches the polling loop in a background goroutine. Calling Start on
// a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	log.Printf("poller %s starting (interval %s)", p.name, p.interval)

	go p.loop(ctx, p.done)
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	p.runOnce(ctx)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("poller %s stopped", p.name)
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

// Stop cancels the loop and waits for the current cycle to unwind. Safe to
// call repeatedly or on a poller that was never started.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Poller) runOnce(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		log.Printf("poller %s tick skipped: previous cycle still running", p.name)
		return
	}
	defer p.inFlight.Store(false)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("poller %s cycle panic: %v", p.name, r)
		}
	}()

	ctx, span := p.tracer.Start(ctx, "job.poll-cycle")
	defer span.End()

	if err := p.target.Refresh(ctx); err != nil {
		log.Printf("poller %s cycle error: %v", p.name, err)
	}
}
