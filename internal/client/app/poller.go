package app

import (
	"context"
	"sync"
	"time"
)

// Poller runs tick every period on its own goroutine. Stopping cancels the
// context handed to tick, aborting any fetch in flight.
type Poller struct {
	mu      sync.Mutex
	tick    func(ctx context.Context)
	period  time.Duration
	cancel  context.CancelFunc
	done    chan struct{}
	reset   chan time.Duration
	running bool
	closed  bool
}

// NewPoller 建立 Poller, 需呼叫 Start 才會開始
func NewPoller(period time.Duration, tick func(ctx context.Context)) *Poller {
	if period <= 0 {
		period = 5 * time.Second
	}
	return &Poller{tick: tick, period: period}
}

// Start begin ticking, no-op when already running or closed
func (p *Poller) Start(parent context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running || p.closed {
		return
	}

	ctx, cancel := context.WithCancel(parent)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.reset = make(chan time.Duration, 1)
	p.running = true

	go p.loop(ctx, p.period, p.reset, p.done)
}

func (p *Poller) loop(ctx context.Context, period time.Duration, reset <-chan time.Duration, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(period)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case d := <-reset:
			period = d
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(period)
		case <-timer.C:
			p.tick(ctx)
			if ctx.Err() != nil {
				return
			}
			timer.Reset(period)
		}
	}
}

// Stop cancel the loop without waiting for it
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Poller) stopLocked() chan struct{} {
	if !p.running {
		return p.done
	}
	p.cancel()
	p.running = false
	return p.done
}

// Close cancel the loop and wait for it to exit. A closed Poller never
// starts again; safe to call twice.
func (p *Poller) Close() {
	p.mu.Lock()
	p.closed = true
	done := p.stopLocked()
	p.mu.Unlock()

	if done != nil {
		<-done
	}
}

// SetPeriod change the interval; the next tick is one full new period away
func (p *Poller) SetPeriod(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.period = d
	if !p.running {
		return
	}
	// drop a pending unapplied period, the latest wins
	select {
	case <-p.reset:
	default:
	}
	p.reset <- d
}

// Period current interval
func (p *Poller) Period() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.period
}

// Running report whether the loop is active
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
