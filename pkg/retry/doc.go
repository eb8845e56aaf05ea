// Package retry provides bounded retry with pluggable backoff for
// transient failures in gallery API calls.
//
// The default policy matches the mirror's fetch behaviour: five total
// attempts, no delay between them, every failure retried except context
// cancellation.
//
// Basic usage:
//
//	// Default policy
//	err := retry.Do(func() error {
//		return fetchOnce(path)
//	}, nil)
//
//	// Custom configuration
//	backoff, _ := retry.NewBackoff("exponential", time.Second, 30*time.Second, 2.0, 0.1)
//	cfg := &retry.Config{
//		MaxAttempts: 5,
//		Backoff:     backoff,
//		RetryIf:     retry.DefaultRetryIf,
//		Logger:      logger.GetLogger(),
//	}
//	payload, err := retry.DoWithResult(func() (*Payload, error) {
//		return fetchOnce(path)
//	}, cfg.WithContext(ctx))
package retry
