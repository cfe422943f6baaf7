package pacing

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MinimumDelay is applied when no explicit delay is configured
const MinimumDelay = 100 * time.Millisecond

// Pacer defines the interface for pacing successive operations
type Pacer interface {
	// Wait blocks until the next operation may start or ctx is done
	Wait(ctx context.Context) error
	// Done marks the end of an operation; the next one waits a full gap
	// from now
	Done()
	// Reset forgets the previous operation so the next Wait returns at once
	Reset()
}

// Effective returns d, or MinimumDelay when d is not positive
func Effective(d time.Duration) time.Duration {
	if d <= 0 {
		return MinimumDelay
	}
	return d
}

// Interval keeps a fixed gap between operations. Without Done the gap runs
// from the start of one operation to the start of the next; Done restarts
// it at the end of the operation. The first Wait never blocks.
type Interval struct {
	gap     time.Duration
	mu      sync.Mutex
	limiter *rate.Limiter
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewInterval creates a pacer with the given minimum gap
func NewInterval(gap time.Duration) *Interval {
	p := &Interval{
		gap:   gap,
		now:   time.Now,
		sleep: sleepContext,
	}
	p.limiter = p.newLimiter()
	return p
}

func (p *Interval) newLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(p.gap), 1)
}

// Wait blocks until the gap has elapsed since the previous operation
func (p *Interval) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Reserve under the lock so concurrent callers queue up in order
	p.mu.Lock()
	now := p.now()
	r := p.limiter.ReserveN(now, 1)
	p.mu.Unlock()

	d := r.DelayFrom(now)
	if d <= 0 {
		return nil
	}
	if err := p.sleep(ctx, d); err != nil {
		p.mu.Lock()
		r.CancelAt(p.now())
		p.mu.Unlock()
		return err
	}
	return nil
}

// Done starts a fresh gap at the current time
func (p *Interval) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.limiter = p.newLimiter()
	p.limiter.AllowN(p.now(), 1)
}

// Reset clears the previous operation time
func (p *Interval) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.limiter = p.newLimiter()
}

// None never waits. Useful for tests and for offline extraction.
type None struct{}

func (None) Wait(ctx context.Context) error { return ctx.Err() }
func (None) Done()                          {}
func (None) Reset()                         {}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
