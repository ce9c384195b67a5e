package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/codexautotest/internal/apperr"
	"github.com/codexautotest/internal/diff"
	"github.com/codexautotest/internal/llm"
	"github.com/codexautotest/internal/prompts"
	"github.com/codexautotest/internal/security"
	"github.com/codexautotest/internal/walker"
)

// DefaultReportPath is where the audit report goes unless told otherwise.
const DefaultReportPath = "security_audit_report.md"

// AuditOptions configures a security audit.
type AuditOptions struct {
	Language    string
	Template    string
	FixTemplate string
	Output      string
	ApplyFixes  bool
	// Secrets, when set, adds locally detected secrets to the report.
	Secrets security.SecretScanner
}

type fix struct {
	path  string
	lines []string
}

// Audit asks the model for a security review of every file under root,
// writes the combined report and, with ApplyFixes, rewrites each file with
// the model's fixed version after the report is written.
func (r *Runner) Audit(ctx context.Context, root string, opts AuditOptions) (Summary, error) {
	var sum Summary
	ext := ExtensionFor(opts.Language)
	w, err := walker.New(root, ext)
	if err != nil {
		return sum, err
	}
	files, err := w.Collect()
	if err != nil {
		return sum, apperr.Wrap(err, apperr.KindMissingInput, "failed to scan %s", root)
	}
	if len(files) == 0 {
		r.env.errorf("No %s files found under %s.", ext, root)
		return sum, nil
	}

	var (
		report strings.Builder
		fixes  []fix
	)
	for _, f := range files {
		r.env.nextItem()
		section, fixed, err := r.auditFile(ctx, f, opts)
		if err != nil && (apperr.IsFatal(err) || errors.Is(err, context.Canceled)) {
			return sum, err
		}
		report.WriteString(section)
		if fixed != nil {
			fixes = append(fixes, *fixed)
		}
		if err != nil {
			sum.add(Failed, err)
			continue
		}
		sum.add(Succeeded, nil)
	}

	output := opts.Output
	if output == "" {
		output = DefaultReportPath
	}
	if err := diff.Write(output, diff.SplitLines(report.String())); err != nil {
		return sum, apperr.Wrap(err, apperr.KindWrite, "Error writing report to %s", output).WithItem(output)
	}
	r.env.printf("Wrote security audit report to %s", output)

	for _, fx := range fixes {
		if err := diff.Write(fx.path, fx.lines); err != nil {
			r.env.errorf("Error writing fixes to %s: %v", fx.path, err)
			continue
		}
		r.env.printf("Applied security fixes to %s", fx.path)
	}
	return sum, nil
}

// auditFile returns the report section for f and, when fixes were
// requested and generated, the fixed content.
func (r *Runner) auditFile(ctx context.Context, f walker.File, opts AuditOptions) (string, *fix, error) {
	code, err := f.Read()
	if err != nil {
		r.env.errorf("Error reading %s: %v", f.Path, err)
		return "", nil, err
	}

	var secrets string
	if opts.Secrets != nil {
		findings := opts.Secrets.Scan(code)
		if len(findings) > 0 {
			log.Warn().Str("path", f.Path).Int("findings", len(findings)).Msg("Secrets detected in source file")
		}
		secrets = security.FormatFindings(findings)
	}
	section := func(audit string) string {
		var b strings.Builder
		fmt.Fprintf(&b, "## File: %s\n\n", f.Path)
		if audit != "" {
			b.WriteString(strings.TrimRight(audit, "\n"))
			b.WriteString("\n\n")
		}
		if secrets != "" {
			b.WriteString(secrets)
			b.WriteString("\n")
		}
		return b.String()
	}

	prompt, err := prompts.Render(opts.Template, prompts.Fields{
		prompts.FieldLanguage: opts.Language,
		prompts.FieldCode:     code,
	})
	if err != nil {
		r.env.errorf("Error formatting audit prompt for %s: %v", f.Path, err)
		return partial(secrets, section), nil, err
	}
	audit, err := r.env.complete(ctx, f.Path, prompt)
	if err != nil {
		if !apperr.IsFatal(err) {
			r.env.errorf("Error auditing %s: %v", f.Path, err)
		}
		return partial(secrets, section), nil, err
	}
	if !opts.ApplyFixes {
		return section(audit), nil, nil
	}

	fixPrompt, err := prompts.Render(opts.FixTemplate, prompts.Fields{
		prompts.FieldLanguage: opts.Language,
		prompts.FieldAudit:    audit,
		prompts.FieldCode:     code,
	})
	if err != nil {
		r.env.errorf("Error formatting fix prompt for %s: %v", f.Path, err)
		return section(audit), nil, err
	}
	fixed, err := r.env.complete(ctx, f.Path, fixPrompt)
	if err != nil {
		if !apperr.IsFatal(err) {
			r.env.errorf("Error generating fixes for %s: %v", f.Path, err)
		}
		return section(audit), nil, err
	}
	return section(audit), &fix{path: f.Path, lines: diff.SplitLines(llm.ExtractCode(fixed))}, nil
}

// partial keeps a file in the report when the audit failed but secrets were
// still found locally.
func partial(secrets string, section func(string) string) string {
	if secrets == "" {
		return ""
	}
	return section("")
}
