package apiclient

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// RetryConfig bounds the retry decorator.
type RetryConfig struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Logger          zerolog.Logger
}

// WithRetry retries GETs that failed with a NetworkError or a 5xx. Client
// errors and cancellation are returned at once. Mutations are never retried.
func WithRetry(cfg RetryConfig) Middleware {
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 200 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 2 * time.Second
	}
	logger := cfg.Logger.With().Str("component", "api-retry").Logger()

	return func(next Doer) Doer {
		return DoerFunc(func(ctx context.Context, req Request) (*Response, error) {
			if req.method() != http.MethodGet || cfg.MaxRetries == 0 {
				return next.Do(ctx, req)
			}

			eb := backoff.NewExponentialBackOff()
			eb.InitialInterval = cfg.InitialInterval
			eb.MaxInterval = cfg.MaxInterval
			eb.MaxElapsedTime = 0
			policy := backoff.WithContext(backoff.WithMaxRetries(eb, cfg.MaxRetries), ctx)

			var resp *Response
			attempt := 0
			err := backoff.Retry(func() error {
				attempt++
				r, err := next.Do(ctx, req)
				if err == nil {
					resp = r
					return nil
				}
				if !retryable(err) {
					return backoff.Permanent(err)
				}
				logger.Debug().Err(err).Str("path", req.Path).Int("attempt", attempt).Msg("retrying request")
				return err
			}, policy)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return nil, ErrCanceled
				}
				return nil, err
			}
			return resp, nil
		})
	}
}

func retryable(err error) bool {
	if IsCanceled(err) {
		return false
	}
	if IsNetwork(err) {
		return true
	}
	return StatusOf(err) >= 500
}
