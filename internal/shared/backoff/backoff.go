package backoff

import (
	"context"
	"math/rand"
	"time"

	"github.com/architeacher/svc-job-worker/internal/config"
)

type (
	// Strategy defines the methodology for backing off between two attempts
	// of a failing operation.
	Strategy interface {
		// Backoff returns the amount of time to wait before the next retry given
		// the number of consecutive failures.
		Backoff(retries int) time.Duration
	}

	// Exponential implements exponential backoff algorithm.
	Exponential struct {
		// config contains all options to configure the backoff algorithm.
		config config.BackoffConfig
	}

	// Constant waits the same delay before every retry.
	Constant time.Duration
)

func NewExponentialStrategy(cfg config.BackoffConfig) Exponential {
	return Exponential{
		config: cfg,
	}
}

// Backoff calculates the backoff duration using exponential backoff with jitter.
func (bc Exponential) Backoff(retries int) time.Duration {
	if retries == 0 {
		return bc.config.BaseDelay
	}

	backoff, maxBackoff := float64(bc.config.BaseDelay), float64(bc.config.MaxDelay)
	for backoff < maxBackoff && retries > 0 {
		backoff *= bc.config.Multiplier
		retries--
	}

	if backoff > maxBackoff {
		backoff = maxBackoff
	}

	backoff *= 1 + bc.config.Jitter*(rand.Float64()*2-1)
	if backoff < 0 {
		backoff = 0
	}

	return time.Duration(backoff)
}

func (c Constant) Backoff(int) time.Duration {
	return time.Duration(c)
}

type (
	// Retrier runs an operation until it succeeds, the attempts are exhausted,
	// the error is not retryable or the context is done.
	Retrier struct {
		strategy    Strategy
		maxAttempts int
		retryable   func(error) bool
	}

	RetrierOption func(*Retrier)
)

// WithRetryable restricts retries to errors accepted by fn.
func WithRetryable(fn func(error) bool) RetrierOption {
	return func(r *Retrier) {
		r.retryable = fn
	}
}

func NewRetrier(strategy Strategy, maxAttempts int, opts ...RetrierOption) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	r := &Retrier{
		strategy:    strategy,
		maxAttempts: maxAttempts,
		retryable:   func(error) bool { return true },
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Retrier) MaxAttempts() int {
	return r.maxAttempts
}

// Do returns the number of attempts made and the last error.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) (int, error) {
	var err error

	for attempt := 1; ; attempt++ {
		if err = op(ctx); err == nil {
			return attempt, nil
		}

		if attempt >= r.maxAttempts || !r.retryable(err) {
			return attempt, err
		}

		timer := time.NewTimer(r.strategy.Backoff(attempt - 1))

		select {
		case <-ctx.Done():
			timer.Stop()

			return attempt, err
		case <-timer.C:
		}
	}
}
