package workflow

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/codexautotest/internal/apperr"
	"github.com/codexautotest/internal/diff"
	"github.com/codexautotest/internal/docstring"
	"github.com/codexautotest/internal/llm"
	"github.com/codexautotest/internal/outline"
	"github.com/codexautotest/internal/prompts"
	"github.com/codexautotest/internal/walker"
)

// DocstringOptions configures docstring insertion.
type DocstringOptions struct {
	Template string
	Mode     diff.Mode
}

// Docstrings asks the model for one documentation block per undocumented
// definition under root and presents each file with all of its blocks
// inserted. Every registered outline language is walked.
func (r *Runner) Docstrings(ctx context.Context, root string, opts DocstringOptions) (Summary, error) {
	var sum Summary
	for _, lang := range outline.Languages() {
		for _, ext := range lang.Extensions {
			w, err := walker.New(root, ext)
			if err != nil {
				return sum, err
			}
			for f, err := range w.Files() {
				if err != nil {
					r.env.errorf("Error reading %s: %v", f.Path, err)
					sum.add(Failed, err)
					continue
				}
				r.env.nextItem()
				outcome, err := r.docstringFile(ctx, f, lang, opts)
				if err != nil && (apperr.IsFatal(err) || errors.Is(err, context.Canceled)) {
					return sum, err
				}
				sum.add(outcome, err)
			}
		}
	}
	return sum, nil
}

func (r *Runner) docstringFile(ctx context.Context, f walker.File, lang outline.Language, opts DocstringOptions) (Outcome, error) {
	content, err := f.Read()
	if err != nil {
		r.env.errorf("Error reading %s: %v", f.Path, err)
		return Failed, err
	}
	sites, err := docstring.Locate(content, lang.Extractor)
	if err != nil {
		r.env.errorf("Error parsing %s: %v", f.Path, err)
		return Failed, err
	}
	if len(sites) == 0 {
		return Skipped, nil
	}

	var (
		insertions []docstring.Insertion
		lastErr    error
	)
	for _, site := range sites {
		prompt, err := prompts.Render(opts.Template, prompts.Fields{
			prompts.FieldLanguage:   lang.Name,
			prompts.FieldObjectType: string(site.Kind),
			prompts.FieldCode:       site.Snippet,
		})
		if err != nil {
			r.env.errorf("Error formatting prompt for %s: %v", f.Path, err)
			lastErr = err
			continue
		}
		doc, err := r.env.complete(ctx, f.Path, prompt)
		if err != nil {
			if apperr.IsFatal(err) || errors.Is(err, context.Canceled) {
				return Failed, err
			}
			r.env.errorf("Error generating docstring for %s: %v", f.Path, err)
			lastErr = err
			continue
		}
		insertions = append(insertions, docstring.Insertion{
			Site: site,
			Doc:  docstring.Normalize(llm.ExtractCode(doc), lang.DocQuote),
		})
	}
	log.Debug().Str("path", f.Path).Int("sites", len(sites)).Int("generated", len(insertions)).Msg("Docstrings generated")
	if len(insertions) == 0 {
		return Failed, lastErr
	}

	lines := diff.SplitLines(content)
	updated := docstring.Apply(lines, insertions)
	if _, err := r.env.Engine.Present(lines, updated, f.Path, opts.Mode, f.Path); err != nil {
		r.env.errorf("Error writing docstrings to %s: %v", f.Path, err)
		return Failed, err
	}
	if opts.Mode == diff.ModeApply {
		r.env.printf("Applied docstrings to %s", f.Path)
	}
	return Succeeded, nil
}
