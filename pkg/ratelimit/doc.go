// Package ratelimit throttles requests to the gallery API.
//
// Throttling is opt-in: the fetcher only consults a limiter when
// rate_limit.requests_per_minute is positive. Every fetch attempt,
// including retries, takes one slot.
//
// Available Implementations:
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Suitable for burst traffic followed by quiet periods
//
// Sliding Window:
//   - Tracks requests within a moving time window
//   - Smoother over time
//
// Usage:
//
//	limiter, err := ratelimit.New(ratelimit.StrategyTokenBucket, 60)
//	if err != nil {
//	    return err
//	}
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
//	// Proceed with request
package ratelimit
