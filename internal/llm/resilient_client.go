package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/codexautotest/internal/apperr"
	"github.com/codexautotest/internal/retry"
)

// ResilientClient wraps a Client with retries, a request rate limit, a per
// attempt timeout and optional transcript recording. Any failure it returns
// is a ModelError.
type ResilientClient struct {
	client   Client
	policy   retry.Policy
	limiter  *rate.Limiter
	timeout  time.Duration
	recorder Recorder
	logger   zerolog.Logger
}

// ResilientOption configures a ResilientClient.
type ResilientOption func(*ResilientClient)

// WithPolicy replaces the retry policy.
func WithPolicy(p retry.Policy) ResilientOption {
	return func(rc *ResilientClient) { rc.policy = p }
}

// WithRequestsPerMinute limits outgoing requests. Zero or less disables the
// limit.
func WithRequestsPerMinute(n int) ResilientOption {
	return func(rc *ResilientClient) {
		if n <= 0 {
			rc.limiter = nil
			return
		}
		rc.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
	}
}

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) ResilientOption {
	return func(rc *ResilientClient) { rc.timeout = d }
}

// WithRecorder records every exchanged prompt and response.
func WithRecorder(r Recorder) ResilientOption {
	return func(rc *ResilientClient) { rc.recorder = r }
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l zerolog.Logger) ResilientOption {
	return func(rc *ResilientClient) { rc.logger = l }
}

// NewResilientClient creates a new resilient client wrapper
func NewResilientClient(client Client, opts ...ResilientOption) *ResilientClient {
	rc := &ResilientClient{
		client: client,
		policy: retry.ModelPolicy(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// Complete forwards to the wrapped client, retrying transient failures.
func (rc *ResilientClient) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	if rc.recorder != nil {
		rc.recorder.LogRequest(opts.Model, prompt)
	}

	var response string
	outcome := retry.DoWithReason(ctx, rc.policy, func(ctx context.Context) (string, error) {
		if rc.limiter != nil {
			if err := rc.limiter.Wait(ctx); err != nil {
				return "rate_limit_wait", err
			}
		}

		attemptCtx := ctx
		if rc.timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, rc.timeout)
			defer cancel()
		}

		out, err := rc.client.Complete(attemptCtx, prompt, opts)
		if err != nil {
			return classify(err), err
		}
		if strings.TrimSpace(out) == "" {
			return "empty_response", errors.New("empty response from model")
		}
		response = out
		return "", nil
	}, rc.logger)

	if !outcome.Success {
		rc.logger.Debug().
			Int("attempts", outcome.Attempts).
			Strs("reasons", outcome.Reasons).
			Dur("duration", outcome.TotalDuration).
			Msg("Model request failed")
		var appErr *apperr.Error
		if errors.As(outcome.LastError, &appErr) {
			return "", appErr
		}
		return "", apperr.Wrap(outcome.LastError, apperr.KindModel, "model request failed after %d attempt(s)", outcome.Attempts)
	}

	if rc.recorder != nil {
		rc.recorder.LogResponse(response)
	}
	return response, nil
}

func classify(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case retry.IsRetryableError(err):
		return "transient"
	default:
		return "permanent"
	}
}
