package agent

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// RetryConfig configures retry behavior for decision calls.
type RetryConfig struct {
	MaxRetries      int           // Maximum number of retry attempts
	InitialInterval time.Duration // Initial backoff interval
	MaxInterval     time.Duration // Maximum backoff interval
}

// DefaultRetryConfig returns sensible defaults for model API calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// retryableError reports whether a decision error should trigger a retry.
func retryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()

	// Rate limit errors
	if containsAny(errStr, "rate limit", "quota exceeded", "429") {
		return true
	}

	// Transient server errors
	if containsAny(errStr, "500", "502", "503", "504", "unavailable") {
		return true
	}

	// Network errors
	if containsAny(errStr, "connection reset", "timeout", "temporary") {
		return true
	}

	return false
}

// containsAny checks if s contains any of the substrings (case-insensitive).
func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

// decideWithRetry calls the Decider with exponential backoff around
// transient failures. Each attempt is individually rate limited and bounded
// by its own decision deadline.
//
// Once any chunk has been streamed to the consumer the attempt is final:
// retrying after visible output would duplicate text, so the failure is
// returned as-is.
func (r *Runner) decideWithRetry(
	ctx context.Context,
	history []Turn,
	tools []ToolInfo,
	cb ChunkCallback,
) (Decision, error) {
	var lastErr error
	delay := r.retryConfig.InitialInterval
	start := time.Now()

	for attempt := 0; attempt <= r.retryConfig.MaxRetries; attempt++ {
		if r.rateLimiter != nil {
			if err := r.rateLimiter.Wait(ctx); err != nil {
				return Decision{}, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		streamed := false
		attemptCB := cb
		if cb != nil {
			attemptCB = func(ctx context.Context, text string) error {
				streamed = true
				return cb(ctx, text)
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, r.decisionTimeout)
		decision, err := r.decider.Decide(attemptCtx, history, tools, attemptCB)
		cancel()
		if err == nil {
			r.logger.Debug("decision succeeded",
				"attempts", attempt+1,
				"elapsed", time.Since(start),
			)
			return decision, nil
		}

		lastErr = err

		if streamed || !retryableError(err) {
			return Decision{}, err
		}

		if attempt == r.retryConfig.MaxRetries {
			break
		}

		r.logger.Debug("retrying decision after error",
			"attempt", attempt+1,
			"delay", delay,
			"elapsed", time.Since(start),
			"error", err,
		)

		select {
		case <-ctx.Done():
			return Decision{}, fmt.Errorf("context canceled during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, r.retryConfig.MaxInterval)
		}
	}

	elapsed := time.Since(start)
	return Decision{}, fmt.Errorf("decide after %d retries (elapsed: %v): %w",
		r.retryConfig.MaxRetries, elapsed, lastErr)
}
