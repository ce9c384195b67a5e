package security

import (
	"context"

	"github.com/mdombrov-33/go-promptguard/detector"
)

// Verdict is the outcome of screening a piece of text.
type Verdict struct {
	Safe      bool
	RiskScore float64
	Patterns  []string
}

// InjectionGuard screens text for prompt-injection attempts.
type InjectionGuard interface {
	Screen(ctx context.Context, text string) Verdict
}

// GuardFunc adapts a function to InjectionGuard.
type GuardFunc func(ctx context.Context, text string) Verdict

// Screen implements InjectionGuard.
func (f GuardFunc) Screen(ctx context.Context, text string) Verdict { return f(ctx, text) }

// NewPromptGuard returns a guard backed by go-promptguard's default
// detectors.
func NewPromptGuard() InjectionGuard {
	guard := detector.New()
	return GuardFunc(func(ctx context.Context, text string) Verdict {
		res := guard.Detect(ctx, text)
		v := Verdict{Safe: res.Safe, RiskScore: res.RiskScore}
		for _, p := range res.DetectedPatterns {
			v.Patterns = append(v.Patterns, p.Type)
		}
		return v
	})
}

// AllowAll never flags anything.
var AllowAll InjectionGuard = GuardFunc(func(context.Context, string) Verdict {
	return Verdict{Safe: true}
})
