package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Backoff names accepted by NewBackoff and the retry.backoff setting
const (
	BackoffNone        = "none"
	BackoffConstant    = "constant"
	BackoffLinear      = "linear"
	BackoffExponential = "exponential"
)

// BackoffStrategy computes the pause before attempt n+1 after attempt n failed.
// Strategies are stateless and safe to share between concurrent fetches.
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ConstantBackoff waits Delay between attempts. The zero value retries
// immediately, which is how gallery API fetches behave unless configured
// otherwise.
type ConstantBackoff struct {
	Delay time.Duration
}

func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 || cb.Delay <= 0 {
		return 0
	}
	return cb.Delay
}

// LinearBackoff waits BaseDelay, then grows by Increment per attempt up to MaxDelay
type LinearBackoff struct {
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	Increment    time.Duration
	JitterFactor float64
}

func (lb *LinearBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := float64(lb.BaseDelay + lb.Increment*time.Duration(attempt-1))
	return bounded(delay, lb.MaxDelay, lb.JitterFactor)
}

// ExponentialBackoff waits BaseDelay * Multiplier^(attempt-1), capped at MaxDelay
type ExponentialBackoff struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	// JitterFactor spreads each delay by up to ±factor of itself (0 to 1)
	JitterFactor float64
}

func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt-1))
	return bounded(delay, eb.MaxDelay, eb.JitterFactor)
}

// bounded caps delay at max (when max is set) and then applies jitter
func bounded(delay float64, max time.Duration, jitter float64) time.Duration {
	if max > 0 && delay > float64(max) {
		delay = float64(max)
	}
	if jitter > 0 {
		spread := delay * jitter
		delay += rand.Float64()*2*spread - spread
	}
	if delay < 0 {
		return 0
	}
	return time.Duration(delay)
}

// NewBackoff builds the strategy named by the retry.backoff setting.
// An empty name means none.
func NewBackoff(name string, base, max time.Duration, multiplier, jitter float64) (BackoffStrategy, error) {
	switch name {
	case "", BackoffNone:
		return &ConstantBackoff{}, nil
	case BackoffConstant:
		return &ConstantBackoff{Delay: base}, nil
	case BackoffLinear:
		return &LinearBackoff{BaseDelay: base, MaxDelay: max, Increment: base, JitterFactor: jitter}, nil
	case BackoffExponential:
		return &ExponentialBackoff{BaseDelay: base, MaxDelay: max, Multiplier: multiplier, JitterFactor: jitter}, nil
	default:
		return nil, fmt.Errorf("unknown backoff strategy %q", name)
	}
}

// Wait sleeps for delay or until ctx is done
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
