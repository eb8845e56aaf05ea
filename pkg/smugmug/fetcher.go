package smugmug

import (
	"context"
	"fmt"
	"time"

	"smugmirror/pkg/logger"
	"smugmirror/pkg/ratelimit"
	"smugmirror/pkg/retry"
)

// EnvelopeClient performs a single attempt at fetching an API resource
type EnvelopeClient interface {
	FetchEnvelope(ctx context.Context, path string) (*Payload, error)
}

// Fetcher requests API resources under a bounded retry policy
type Fetcher struct {
	client  EnvelopeClient
	policy  *retry.Config
	limiter ratelimit.Limiter
	logger  logger.Logger
}

// NewFetcher wraps client with policy. A nil policy uses retry.DefaultConfig;
// a nil limiter disables throttling.
func NewFetcher(client EnvelopeClient, policy *retry.Config, limiter ratelimit.Limiter, log logger.Logger) *Fetcher {
	if policy == nil {
		policy = retry.DefaultConfig()
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Fetcher{
		client:  client,
		policy:  policy,
		limiter: limiter,
		logger:  log,
	}
}

// MaxAttempts returns the number of requests made for one resource before giving up
func (f *Fetcher) MaxAttempts() int {
	return f.policy.MaxAttempts
}

// Fetch requests path until it succeeds or the policy is exhausted. Every
// failure kind is retried the same way.
func (f *Fetcher) Fetch(ctx context.Context, path string) (*Payload, error) {
	log := f.logger.WithField("resource", path)

	cfg := f.policy.WithContext(ctx)
	cfg.Logger = nil
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.LogFetchRetry(log, path, attempt, cfg.MaxAttempts, err)
	}

	payload, err := retry.DoWithResult(func() (*Payload, error) {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		return f.client.FetchEnvelope(ctx, path)
	}, cfg)
	if err != nil {
		log.WithError(err).Debug("Resource fetch gave up")
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	return payload, nil
}
