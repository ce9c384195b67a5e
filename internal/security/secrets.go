// Package security adds local checks to the audit workflow: secret detection
// on source files and prompt-injection screening on text sent to the model.
package security

import (
	"fmt"
	"strings"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// Finding is a secret detected in a file.
type Finding struct {
	RuleID      string
	Description string
	Line        int
	Secret      string
}

// Redacted returns the secret with everything past its first four characters
// masked.
func (f Finding) Redacted() string {
	if len(f.Secret) <= 4 {
		return strings.Repeat("*", len(f.Secret))
	}
	return f.Secret[:4] + strings.Repeat("*", min(len(f.Secret)-4, 12))
}

// SecretScanner finds hard-coded credentials in file content.
type SecretScanner interface {
	Scan(content string) []Finding
}

// Gitleaks scans with the default gitleaks rule set.
type Gitleaks struct {
	detector *detect.Detector
}

// NewGitleaks loads the default gitleaks configuration.
func NewGitleaks() (*Gitleaks, error) {
	d, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load gitleaks rules: %w", err)
	}
	return &Gitleaks{detector: d}, nil
}

// Scan implements SecretScanner.
func (g *Gitleaks) Scan(content string) []Finding {
	results := g.detector.DetectString(content)
	findings := make([]Finding, 0, len(results))
	for _, r := range results {
		findings = append(findings, Finding{
			RuleID:      r.RuleID,
			Description: r.Description,
			Line:        r.StartLine + 1,
			Secret:      r.Secret,
		})
	}
	return findings
}

// FormatFindings renders findings as a Markdown report section. No findings
// render as "".
func FormatFindings(findings []Finding) string {
	if len(findings) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("### Detected secrets\n\n")
	for _, f := range findings {
		fmt.Fprintf(&b, "- line %d: %s (%s) `%s`\n", f.Line, f.RuleID, f.Description, f.Redacted())
	}
	return b.String()
}
