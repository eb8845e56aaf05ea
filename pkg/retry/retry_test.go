package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	errs "smugmirror/pkg/errors"
)

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.0, // No jitter for predictable testing
	}

	tests := []struct {
		attempt     int
		expectedMin time.Duration
		expectedMax time.Duration
		description string
	}{
		{1, 100 * time.Millisecond, 100 * time.Millisecond, "First attempt"},
		{2, 200 * time.Millisecond, 200 * time.Millisecond, "Second attempt"},
		{3, 400 * time.Millisecond, 400 * time.Millisecond, "Third attempt"},
		{4, 800 * time.Millisecond, 800 * time.Millisecond, "Fourth attempt"},
		{5, 1 * time.Second, 1 * time.Second, "Fifth attempt (capped at max)"},
		{6, 1 * time.Second, 1 * time.Second, "Sixth attempt (still capped)"},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			delay := backoff.NextDelay(test.attempt)
			if delay < test.expectedMin || delay > test.expectedMax {
				t.Errorf("Expected delay between %v and %v, got %v",
					test.expectedMin, test.expectedMax, delay)
			}
		})
	}
}

func TestExponentialBackoffWithJitter(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	// Test that jitter adds randomness
	delays := make(map[time.Duration]bool)
	for i := 0; i < 10; i++ {
		delay := backoff.NextDelay(2)
		delays[delay] = true
	}

	// With jitter, we should get different delays
	if len(delays) < 2 {
		t.Error("Expected multiple different delays with jitter, but got consistent delays")
	}
}

func TestRetryWithSuccess(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 10 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
	}

	err := Do(op, cfg)
	if err != nil {
		t.Errorf("Expected success after retries, got error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryWithMaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		return errors.New("persistent error")
	}

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: 10 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
	}

	err := Do(op, cfg)
	if err == nil {
		t.Error("Expected error when max attempts exceeded")
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryAllFetchKinds(t *testing.T) {
	kinds := []error{
		errs.NewNetworkError("/p", errors.New("connection reset")),
		errs.NewStatusError("/p", 401),
		errs.NewStatusError("/p", 503),
		errs.NewDecodeError("/p", errs.ErrDecode),
	}

	for _, failure := range kinds {
		attempts := 0
		err := Do(func() error {
			attempts++
			return failure
		}, &Config{MaxAttempts: DefaultMaxAttempts, Backoff: &ConstantBackoff{}})

		if !errors.Is(err, failure) {
			t.Errorf("Expected wrapped %v, got: %v", failure, err)
		}
		if attempts != DefaultMaxAttempts {
			t.Errorf("%v: expected %d attempts, got %d", failure, DefaultMaxAttempts, attempts)
		}
	}
}

func TestRetryDoesNotRetryCancellation(t *testing.T) {
	attempts := 0
	err := Do(func() error {
		attempts++
		return context.Canceled
	}, &Config{MaxAttempts: 5})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestRetryOnRetryCallback(t *testing.T) {
	var retried []int
	cfg := &Config{
		MaxAttempts: 3,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			retried = append(retried, attempt)
		},
	}

	_ = Do(func() error { return errors.New("fail") }, cfg)

	// no retry is announced after the final attempt
	if len(retried) != 2 || retried[0] != 1 || retried[1] != 2 {
		t.Errorf("Expected retries [1 2], got %v", retried)
	}
}

func TestRetryWithContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	op := func() error {
		attempts++
		if attempts == 2 {
			cancel() // Cancel after second attempt
		}
		return errors.New("error")
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 100 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     ctx,
	}

	err := Do(op, cfg)
	if err == nil {
		t.Error("Expected error when context cancelled")
	}
	if attempts > 3 {
		t.Errorf("Expected at most 3 attempts before cancellation, got %d", attempts)
	}
}

func TestNewBackoff(t *testing.T) {
	none, err := NewBackoff("none", time.Second, time.Minute, 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d := none.NextDelay(3); d != 0 {
		t.Errorf("Expected zero delay for none, got %v", d)
	}

	exp, err := NewBackoff("exponential", 100*time.Millisecond, time.Second, 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d := exp.NextDelay(2); d != 200*time.Millisecond {
		t.Errorf("Expected 200ms, got %v", d)
	}

	if _, err := NewBackoff("fibonacci", 0, 0, 0, 0); err == nil {
		t.Error("Expected error for unknown strategy")
	}
}

func TestLinearBackoff(t *testing.T) {
	backoff := &LinearBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     500 * time.Millisecond,
		Increment:    100 * time.Millisecond,
		JitterFactor: 0.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 300 * time.Millisecond},
		{4, 400 * time.Millisecond},
		{5, 500 * time.Millisecond},
		{6, 500 * time.Millisecond}, // Capped at max
	}

	for _, test := range tests {
		delay := backoff.NextDelay(test.attempt)
		if delay != test.expected {
			t.Errorf("Attempt %d: expected %v, got %v", test.attempt, test.expected, delay)
		}
	}
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	op := func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", errors.New("temporary error")
		}
		return "success", nil
	}

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: 10 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
	}

	result, err := DoWithResult(op, cfg)
	if err != nil {
		t.Errorf("Expected success, got error: %v", err)
	}
	if result != "success" {
		t.Errorf("Expected 'success', got '%s'", result)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}
func TestDefaultConfigRetriesWithoutDelay(t *testing.T) {
	cfg := DefaultConfig()
	for attempt := 1; attempt <= DefaultMaxAttempts; attempt++ {
		if d := cfg.Backoff.NextDelay(attempt); d != 0 {
			t.Errorf("attempt %d: expected no delay, got %v", attempt, d)
		}
	}

	attempts := 0
	start := time.Now()
	err := Do(func() error {
		attempts++
		return errors.New("still failing")
	}, cfg.WithLogger(nil))
	if err == nil {
		t.Fatal("Expected error after the attempt bound")
	}
	if attempts != DefaultMaxAttempts {
		t.Errorf("Expected %d attempts, got %d", DefaultMaxAttempts, attempts)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Expected immediate retries, took %v", elapsed)
	}
}

func TestJitterStaysWithinSpread(t *testing.T) {
	backoff := &LinearBackoff{BaseDelay: 100 * time.Millisecond, JitterFactor: 0.5}
	for i := 0; i < 50; i++ {
		d := backoff.NextDelay(1)
		if d < 50*time.Millisecond || d > 150*time.Millisecond {
			t.Fatalf("delay %v outside ±50%% of 100ms", d)
		}
	}
}

func TestZeroMaxDelayIsUncapped(t *testing.T) {
	backoff := &ExponentialBackoff{BaseDelay: time.Second, Multiplier: 3}
	if d := backoff.NextDelay(3); d != 9*time.Second {
		t.Errorf("Expected 9s, got %v", d)
	}
}

func TestWaitHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Wait(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if err := Wait(context.Background(), 0); err != nil {
		t.Errorf("Expected nil for zero delay, got %v", err)
	}
}
