package retry

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Policy configures retry behavior with exponential backoff
type Policy struct {
	MaxRetries int           `koanf:"max_retries"` // Maximum number of retry attempts after the first one
	BaseDelay  time.Duration `koanf:"base_delay"`  // Delay before the first retry
	MaxDelay   time.Duration `koanf:"max_delay"`   // Upper bound for any single delay
	Multiplier float64       `koanf:"multiplier"`  // Exponential backoff multiplier
	Jitter     bool          `koanf:"jitter"`      // Spread delays by up to 10% in either direction
	// Retryable decides whether a failed attempt is worth repeating. Nil means
	// IsRetryableError.
	Retryable func(error) bool `koanf:"-"`
}

// Outcome describes how a retried operation went.
type Outcome struct {
	Attempts      int
	TotalDuration time.Duration
	LastError     error
	Success       bool
	// Reasons holds one entry per failed attempt.
	Reasons []string
}

// DefaultPolicy returns a retry policy with sensible defaults
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
	}
}

// ModelPolicy returns a policy tuned for completion requests, which are slow
// and often rate limited.
func ModelPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
		MaxDelay:   60 * time.Second,
		Multiplier: 2.5,
		Jitter:     true,
	}
}

// Do runs op until it succeeds, returns a non-retryable error, runs out of
// attempts or ctx ends. Attempts are logged at debug level on logger.
func Do(ctx context.Context, policy Policy, op func(ctx context.Context) error, logger zerolog.Logger) Outcome {
	return DoWithReason(ctx, policy, func(ctx context.Context) (string, error) {
		err := op(ctx)
		if err != nil {
			return err.Error(), err
		}
		return "", nil
	}, logger)
}

// DoWithReason is Do for operations that classify their own failures.
func DoWithReason(ctx context.Context, policy Policy, op func(ctx context.Context) (string, error), logger zerolog.Logger) Outcome {
	start := time.Now()
	retryable := policy.Retryable
	if retryable == nil {
		retryable = IsRetryableError
	}

	out := Outcome{Reasons: make([]string, 0)}
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		out.Attempts = attempt + 1
		if attempt > 0 {
			logger.Debug().Int("attempt", attempt+1).Int("max_attempts", policy.MaxRetries+1).Msg("Retrying operation")
		}

		reason, err := op(ctx)
		if err == nil {
			out.Success = true
			out.TotalDuration = time.Since(start)
			if attempt > 0 {
				logger.Debug().Int("retries", attempt).Dur("duration", out.TotalDuration).Msg("Operation succeeded after retries")
			}
			return out
		}

		out.LastError = err
		out.Reasons = append(out.Reasons, reason)

		if attempt >= policy.MaxRetries || !retryable(err) {
			out.TotalDuration = time.Since(start)
			logger.Debug().Err(err).Int("attempts", out.Attempts).Dur("duration", out.TotalDuration).Msg("Operation failed")
			return out
		}

		if ctx.Err() != nil {
			out.LastError = ctx.Err()
			out.TotalDuration = time.Since(start)
			return out
		}

		delay := calculateDelay(policy, attempt)
		logger.Debug().Err(err).Int("attempt", attempt+1).Dur("delay", delay).Msg("Operation failed, backing off")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			out.LastError = ctx.Err()
			out.TotalDuration = time.Since(start)
			logger.Debug().Err(ctx.Err()).Msg("Operation cancelled during backoff")
			return out
		case <-timer.C:
		}
	}

	out.TotalDuration = time.Since(start)
	return out
}

// calculateDelay calculates the delay for the next retry attempt using exponential backoff
func calculateDelay(policy Policy, attempt int) time.Duration {
	delay := float64(policy.BaseDelay) * math.Pow(policy.Multiplier, float64(attempt))
	if delay > float64(policy.MaxDelay) {
		delay = float64(policy.MaxDelay)
	}

	if policy.Jitter {
		jitterRange := delay * 0.1
		delay += (rand.Float64() - 0.5) * 2 * jitterRange
		if delay < 0 {
			delay = float64(policy.BaseDelay)
		}
	}

	return time.Duration(delay)
}

var retryableMarkers = []string{
	"connection refused",
	"connection reset",
	"connection timeout",
	"timeout",
	"temporary failure",
	"service unavailable",
	"too many requests",
	"rate limit",
	"429",
	"500",
	"502",
	"503",
	"504",
	"529", // overloaded
	"dns lookup failed",
	"no such host",
	"network unreachable",
	"broken pipe",
	"unexpected eof",
	"context deadline exceeded",
}

// IsRetryableError reports whether err looks transient: network trouble,
// throttling or a server-side failure.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "insufficient_quota") || strings.Contains(msg, "invalid api key") {
		return false
	}
	for _, marker := range retryableMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
