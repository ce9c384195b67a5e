package workflow

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/codexautotest/internal/apperr"
	"github.com/codexautotest/internal/diff"
	"github.com/codexautotest/internal/prompts"
)

// Target is a file, optionally narrowed to a 1-based inclusive line range.
type Target struct {
	Path  string
	Start int
	End   int
}

// HasRange reports whether a line range was given.
func (t Target) HasRange() bool {
	return t.Start > 0
}

// ParseTarget parses "path" or "path:start-end".
func ParseTarget(s string) (Target, error) {
	path, rng, ok := strings.Cut(s, ":")
	if !ok {
		return Target{Path: s}, nil
	}
	from, to, ok := strings.Cut(rng, "-")
	if !ok {
		return Target{}, apperr.New(apperr.KindMissingInput, "Invalid range %q; use start-end", rng)
	}
	start, err1 := strconv.Atoi(strings.TrimSpace(from))
	end, err2 := strconv.Atoi(strings.TrimSpace(to))
	if err1 != nil || err2 != nil {
		return Target{}, apperr.New(apperr.KindMissingInput, "Invalid range %q; use start-end", rng)
	}
	if start < 1 || start > end {
		return Target{}, apperr.New(apperr.KindMissingInput, "Invalid line range %d-%d", start, end)
	}
	return Target{Path: path, Start: start, End: end}, nil
}

// Snippet reads the target and cuts it down to its range.
func (t Target) Snippet() (string, error) {
	b, err := os.ReadFile(t.Path)
	if err != nil {
		return "", apperr.New(apperr.KindMissingInput, "File not found: %s", t.Path).WithItem(t.Path)
	}
	content := string(b)
	if !t.HasRange() {
		return content, nil
	}
	lines := diff.SplitLines(content)
	if t.End > len(lines) {
		return "", apperr.New(apperr.KindMissingInput, "Invalid line range %d-%d for file with %d lines", t.Start, t.End, len(lines)).WithItem(t.Path)
	}
	return strings.Join(lines[t.Start-1:t.End], "\n"), nil
}

// ExplainOptions configures explain.
type ExplainOptions struct {
	Target   string
	Language string
	Template string
}

// Explain prints the model's explanation of a file or line range. Bad
// targets are fatal; a failed model call is reported and is not.
func (r *Runner) Explain(ctx context.Context, opts ExplainOptions) error {
	target, err := ParseTarget(opts.Target)
	if err != nil {
		return err
	}
	snippet, err := target.Snippet()
	if err != nil {
		return err
	}
	lang := opts.Language
	if lang == "" {
		ext := filepath.Ext(target.Path)
		var ok bool
		if lang, ok = LanguageForExt(ext); !ok {
			return apperr.New(apperr.KindMissingInput, "Could not infer language from extension %q; specify --language", ext)
		}
	}

	prompt, err := prompts.Render(opts.Template, prompts.Fields{
		prompts.FieldLanguage: lang,
		prompts.FieldCode:     snippet,
	})
	if err != nil {
		r.env.errorf("Error formatting explain prompt: %v", err)
		return nil
	}
	explanation, err := r.env.complete(ctx, target.Path, prompt)
	if err != nil {
		if apperr.IsFatal(err) {
			return err
		}
		r.env.errorf("Error generating explanation: %v", err)
		return nil
	}
	return r.env.markdown(explanation)
}

// DiffSource supplies the staged changes of a repository.
type DiffSource interface {
	StagedDiff(ctx context.Context) (string, error)
}

// Commit prints a commit message drafted from the staged diff.
func (r *Runner) Commit(ctx context.Context, src DiffSource, template string) error {
	staged, err := src.StagedDiff(ctx)
	if err != nil {
		return err
	}
	logStagedFiles(staged)

	prompt, err := prompts.Render(template, prompts.Fields{prompts.FieldDiff: staged})
	if err != nil {
		r.env.errorf("Error formatting commit prompt: %v", err)
		return nil
	}
	msg, err := r.env.complete(ctx, "staged changes", prompt)
	if err != nil {
		if apperr.IsFatal(err) {
			return err
		}
		r.env.errorf("Error generating commit message: %v", err)
		return nil
	}
	return r.env.markdown(msg)
}

// logStagedFiles records which files a staged diff touches. A diff that does
// not parse is still sent to the model as-is.
func logStagedFiles(staged string) {
	files, err := diff.NewParser().Parse(staged)
	if err != nil {
		log.Debug().Err(err).Msg("Could not parse staged diff")
		return
	}
	for _, f := range files {
		added, removed := f.Stats()
		log.Debug().Str("file", f.To).Int("added", added).Int("removed", removed).Msg("Staged file")
	}
}
