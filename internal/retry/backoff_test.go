package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func fastPolicy(maxRetries int) Policy {
	return Policy{
		MaxRetries: maxRetries,
		BaseDelay:  10 * time.Millisecond,
		MaxDelay:   100 * time.Millisecond,
		Multiplier: 2.0,
		Jitter:     false, // Disable jitter for predictable testing
		Retryable:  func(error) bool { return true },
	}
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()

	if p.MaxRetries != 3 {
		t.Errorf("Expected MaxRetries=3, got %d", p.MaxRetries)
	}
	if p.BaseDelay != time.Second {
		t.Errorf("Expected BaseDelay=1s, got %v", p.BaseDelay)
	}
	if p.MaxDelay != 30*time.Second {
		t.Errorf("Expected MaxDelay=30s, got %v", p.MaxDelay)
	}
	if !p.Jitter {
		t.Error("Expected Jitter=true")
	}
}

func TestModelPolicy(t *testing.T) {
	p := ModelPolicy()

	if p.BaseDelay != 2*time.Second {
		t.Errorf("Expected BaseDelay=2s, got %v", p.BaseDelay)
	}
	if p.Multiplier != 2.5 {
		t.Errorf("Expected Multiplier=2.5, got %f", p.Multiplier)
	}
}

func TestDo_Success(t *testing.T) {
	out := Do(context.Background(), fastPolicy(2), func(context.Context) error {
		return nil
	}, zerolog.Nop())

	if !out.Success {
		t.Error("Expected success=true")
	}
	if out.Attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", out.Attempts)
	}
	if len(out.Reasons) != 0 {
		t.Errorf("Expected no retry reasons, got %d", len(out.Reasons))
	}
}

func TestDo_EventualSuccess(t *testing.T) {
	attempts := 0
	out := Do(context.Background(), fastPolicy(3), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary failure")
		}
		return nil
	}, zerolog.Nop())

	if !out.Success {
		t.Error("Expected success=true")
	}
	if out.Attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", out.Attempts)
	}
	if len(out.Reasons) != 2 {
		t.Errorf("Expected 2 retry reasons, got %d", len(out.Reasons))
	}
	if out.TotalDuration == 0 {
		t.Error("Expected non-zero total duration")
	}
}

func TestDo_AllAttemptsFail(t *testing.T) {
	expected := errors.New("persistent failure")
	out := Do(context.Background(), fastPolicy(2), func(context.Context) error {
		return expected
	}, zerolog.Nop())

	if out.Success {
		t.Error("Expected success=false")
	}
	if out.Attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", out.Attempts)
	}
	if !errors.Is(out.LastError, expected) {
		t.Errorf("Expected last error to be %v, got %v", expected, out.LastError)
	}
}

func TestDo_StopsOnNonRetryable(t *testing.T) {
	p := fastPolicy(5)
	p.Retryable = nil

	attempts := 0
	out := Do(context.Background(), p, func(context.Context) error {
		attempts++
		return errors.New("HTTP 401 Unauthorized")
	}, zerolog.Nop())

	if out.Success {
		t.Error("Expected success=false")
	}
	if attempts != 1 {
		t.Errorf("Expected a single attempt for a non-retryable error, got %d", attempts)
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	p := fastPolicy(5)
	p.BaseDelay = 100 * time.Millisecond
	p.MaxDelay = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	out := Do(ctx, p, func(context.Context) error {
		return errors.New("always fails")
	}, zerolog.Nop())

	if out.Success {
		t.Error("Expected success=false due to context cancellation")
	}
	if !errors.Is(out.LastError, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded, got %v", out.LastError)
	}
	if out.Attempts > 2 {
		t.Errorf("Expected few attempts due to quick timeout, got %d", out.Attempts)
	}
}

func TestDoWithReason(t *testing.T) {
	attempts := 0
	out := DoWithReason(context.Background(), fastPolicy(2), func(context.Context) (string, error) {
		attempts++
		switch attempts {
		case 1:
			return "network_timeout", errors.New("network timeout")
		case 2:
			return "rate_limit", errors.New("rate limited")
		default:
			return "", nil
		}
	}, zerolog.Nop())

	if !out.Success {
		t.Error("Expected success=true")
	}
	expected := []string{"network_timeout", "rate_limit"}
	if len(out.Reasons) != len(expected) {
		t.Fatalf("Expected %d retry reasons, got %d", len(expected), len(out.Reasons))
	}
	for i, want := range expected {
		if out.Reasons[i] != want {
			t.Errorf("Expected retry reason %d to be %s, got %s", i, want, out.Reasons[i])
		}
	}
}

func TestCalculateDelay(t *testing.T) {
	p := Policy{
		BaseDelay:  1 * time.Second,
		MaxDelay:   10 * time.Second,
		Multiplier: 2.0,
	}

	if d := calculateDelay(p, 0); d != 1*time.Second {
		t.Errorf("Expected delay0=1s, got %v", d)
	}
	if d := calculateDelay(p, 1); d != 2*time.Second {
		t.Errorf("Expected delay1=2s, got %v", d)
	}
	if d := calculateDelay(p, 2); d != 4*time.Second {
		t.Errorf("Expected delay2=4s, got %v", d)
	}
	if d := calculateDelay(p, 10); d != 10*time.Second {
		t.Errorf("Expected delay10=10s (capped), got %v", d)
	}
}

func TestCalculateDelay_WithJitter(t *testing.T) {
	p := Policy{
		BaseDelay:  1 * time.Second,
		MaxDelay:   10 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
	}

	expected := 2 * time.Second
	tolerance := 200 * time.Millisecond
	for i := 0; i < 5; i++ {
		if d := calculateDelay(p, 1); abs(d-expected) > tolerance {
			t.Errorf("delay %v too far from expected %v", d, expected)
		}
	}
}

func TestIsRetryableError(t *testing.T) {
	retryable := []error{
		errors.New("connection refused"),
		errors.New("temporary failure"),
		errors.New("HTTP 429 Too Many Requests"),
		errors.New("HTTP 503 Service Unavailable"),
		errors.New("API returned unexpected status code: 529: Overloaded"),
		errors.New("context deadline exceeded"),
	}
	for _, err := range retryable {
		if !IsRetryableError(err) {
			t.Errorf("Expected %v to be retryable", err)
		}
	}

	nonRetryable := []error{
		errors.New("invalid input"),
		errors.New("HTTP 400 Bad Request"),
		errors.New("HTTP 401 Unauthorized"),
		errors.New("429: insufficient_quota"),
	}
	for _, err := range nonRetryable {
		if IsRetryableError(err) {
			t.Errorf("Expected %v to NOT be retryable", err)
		}
	}

	if IsRetryableError(nil) {
		t.Error("Expected nil error to NOT be retryable")
	}
}

func abs(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
