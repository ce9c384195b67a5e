// Package workflow runs the model-backed maintenance commands. Every
// file-based command is a FileJob handed to the same Runner; the remaining
// commands (docstring, mutate, audit, explain, commit) compose the same
// pieces around their own work items.
package workflow

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/codexautotest/internal/apperr"
	"github.com/codexautotest/internal/diff"
	"github.com/codexautotest/internal/llm"
	"github.com/codexautotest/internal/security"
	"github.com/codexautotest/internal/terminal"
)

// Env is what every workflow needs from the outside world.
type Env struct {
	Model    llm.Client
	Options  llm.Options
	Engine   *diff.Engine
	Out      io.Writer
	Err      io.Writer
	Markdown *terminal.Markdown
	Guard    security.InjectionGuard
	// Cache, when set, backs Model and is cleared before each work item so
	// responses are only reused within one file or mutant.
	Cache    *llm.Cache
}

// nextItem starts a new unit of work.
func (e *Env) nextItem() {
	if e.Cache != nil {
		e.Cache.Clear()
	}
}

func (e *Env) cacheHits() int {
	if e.Cache == nil {
		return 0
	}
	return e.Cache.Hits()
}

func (e *Env) printf(format string, args ...interface{}) {
	fmt.Fprintf(e.Out, format+"\n", args...)
}

func (e *Env) errorf(format string, args ...interface{}) {
	fmt.Fprintf(e.Err, format+"\n", args...)
}

func (e *Env) markdown(text string) error {
	if e.Markdown == nil {
		_, err := io.WriteString(e.Out, strings.TrimRight(text, "\n")+"\n")
		return err
	}
	return e.Markdown.Print(text)
}

// complete sends prompt to the model. Prompts that look like injection
// attempts are reported but still sent.
func (e *Env) complete(ctx context.Context, item, prompt string) (string, error) {
	if e.Guard != nil {
		if v := e.Guard.Screen(ctx, prompt); !v.Safe {
			log.Warn().
				Str("item", item).
				Float64("risk_score", v.RiskScore).
				Strs("patterns", v.Patterns).
				Msg("Prompt contains text that looks like a prompt injection")
		}
	}
	out, err := e.Model.Complete(ctx, prompt, e.Options)
	if err != nil {
		if apperr.KindOf(err) == "" {
			return "", apperr.Wrap(err, apperr.KindModel, "model request failed").WithItem(item)
		}
		return "", err
	}
	return out, nil
}

// extensions maps a configured language to the source extension scanned for
// it.
var extensions = map[string]string{
	"python":     ".py",
	"javascript": ".js",
	"typescript": ".ts",
}

// ExtensionFor returns the file extension for language, defaulting to .py.
func ExtensionFor(language string) string {
	if ext, ok := extensions[strings.ToLower(language)]; ok {
		return ext
	}
	return ".py"
}

// languageByExt is used by explain to infer the language of a file.
var languageByExt = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".java": "java",
	".go":   "go",
	".rb":   "ruby",
}

// LanguageForExt returns the language name for a file extension.
func LanguageForExt(ext string) (string, bool) {
	lang, ok := languageByExt[strings.ToLower(ext)]
	return lang, ok
}
