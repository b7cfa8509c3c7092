package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"dataweb/internal/model"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseBackoff = 2 * time.Second
	DefaultMaxBackoff  = 30 * time.Second
	DefaultMultiplier  = 2.0
	DefaultMinInterval = time.Second
)

// Clock is the time source for backoff and pacing waits.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Policy schedules requests: a bounded number of attempts per point with
// exponential backoff between them, and a minimum interval between any two
// consecutive requests.
type Policy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	Multiplier  float64
	MinInterval time.Duration
	Clock       Clock
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseBackoff: DefaultBaseBackoff,
		MaxBackoff:  DefaultMaxBackoff,
		Multiplier:  DefaultMultiplier,
		MinInterval: DefaultMinInterval,
		Clock:       SystemClock(),
	}
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.Multiplier < 1 {
		p.Multiplier = DefaultMultiplier
	}
	if p.MaxBackoff > 0 && p.MaxBackoff < p.BaseBackoff {
		p.MaxBackoff = p.BaseBackoff
	}
	if p.Clock == nil {
		p.Clock = SystemClock()
	}
	return p
}

func (p Policy) Validate() error {
	if p.BaseBackoff < 0 || p.MaxBackoff < 0 || p.MinInterval < 0 {
		return fmt.Errorf("%w: sweep: negative retry durations", model.ErrValidation)
	}
	return nil
}

func (p Policy) exponential() retry.Backoff {
	next := float64(p.BaseBackoff)
	limit := float64(p.MaxBackoff)
	return retry.BackoffFunc(func() (time.Duration, bool) {
		delay := time.Duration(next)
		next *= p.Multiplier
		if limit > 0 && next > limit {
			next = limit
		}
		return delay, false
	})
}

func (p Policy) backoff() retry.Backoff {
	b := p.exponential()
	if p.MaxBackoff > 0 {
		b = retry.WithCappedDuration(p.MaxBackoff, b)
	}
	return retry.WithMaxRetries(uint64(p.MaxAttempts-1), b)
}

// Schedule lists the waits before the second and later attempts of a point.
func (p Policy) Schedule() []time.Duration {
	p = p.withDefaults()
	b := p.backoff()
	delays := make([]time.Duration, 0, p.MaxAttempts-1)
	for {
		delay, stop := b.Next()
		if stop {
			return delays
		}
		delays = append(delays, delay)
	}
}

// clocked hands every computed delay to observe and returns zero to go-retry,
// so waits go through the policy clock instead of real timers.
func clocked(b retry.Backoff, observe func(time.Duration)) retry.Backoff {
	return retry.BackoffFunc(func() (time.Duration, bool) {
		delay, stop := b.Next()
		if stop {
			return 0, true
		}
		observe(delay)
		return 0, false
	})
}

type pacer struct {
	clock    Clock
	interval time.Duration
	last     time.Time
}

func newPacer(clock Clock, interval time.Duration) *pacer {
	return &pacer{clock: clock, interval: interval}
}

// wait blocks until interval has passed since the previous request started.
func (p *pacer) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.interval > 0 && !p.last.IsZero() {
		if delay := p.last.Add(p.interval).Sub(p.clock.Now()); delay > 0 {
			if err := p.clock.Sleep(ctx, delay); err != nil {
				return err
			}
		}
	}
	p.last = p.clock.Now()
	return nil
}
