package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig controls the bounded retry policy.
type RetryConfig struct {
	MaxAttempts int
	BackoffStep time.Duration
	Logger      zerolog.Logger
	// Sleep waits between attempts; it must return early when ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Retrier wraps a Generator and retries transient failures with linear backoff.
type Retrier struct {
	next   Generator
	cfg    RetryConfig
	logger zerolog.Logger
}

// NewRetrier constructs a retrying generator. Defaults: 3 attempts, 2s step.
func NewRetrier(next Generator, cfg RetryConfig) *Retrier {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffStep <= 0 {
		cfg.BackoffStep = 2 * time.Second
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepContext
	}

	return &Retrier{
		next:   next,
		cfg:    cfg,
		logger: cfg.Logger.With().Str("component", "ai_retrier").Str("provider", next.Name()).Logger(),
	}
}

// Name reports the wrapped provider name.
func (r *Retrier) Name() string {
	return r.next.Name()
}

// Generate calls the wrapped generator until it succeeds, fails permanently,
// or runs out of attempts. The wait before attempt n+1 is n × BackoffStep.
func (r *Retrier) Generate(ctx context.Context, req Request) (string, error) {
	var last error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		text, err := r.next.Generate(ctx, req)
		if err == nil {
			return text, nil
		}
		if !IsTransient(err) {
			return "", err
		}

		last = err
		if attempt == r.cfg.MaxAttempts {
			break
		}

		wait := time.Duration(attempt) * r.cfg.BackoffStep
		r.logger.Warn().Err(err).
			Int("attempt", attempt).
			Int("max_attempts", r.cfg.MaxAttempts).
			Dur("backoff", wait).
			Msg("ai provider unavailable, retrying")
		aiRetries.WithLabelValues(r.next.Name()).Inc()

		if err := r.cfg.Sleep(ctx, wait); err != nil {
			return "", fmt.Errorf("waiting to retry: %w", err)
		}
	}

	return "", &ExhaustedError{Attempts: r.cfg.MaxAttempts, Last: last}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
