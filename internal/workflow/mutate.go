package workflow

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/codexautotest/internal/apperr"
	"github.com/codexautotest/internal/diff"
	"github.com/codexautotest/internal/llm"
	"github.com/codexautotest/internal/mutation"
	"github.com/codexautotest/internal/prompts"
)

// MutateOptions configures mutation-driven test generation.
type MutateOptions struct {
	Path      string
	Language  string
	Framework string
	Template  string
	TestsDir  string
}

// Mutate runs the mutation tool on opts.Path and writes one kill test per
// surviving mutant. Tool failures before any mutant is processed are fatal.
func (r *Runner) Mutate(ctx context.Context, tool mutation.Tool, opts MutateOptions) (Summary, error) {
	var sum Summary
	testsDir := opts.TestsDir
	if testsDir == "" {
		testsDir = TestsDir
	}

	r.env.printf("Running mutmut on %s...", opts.Path)
	if err := tool.Run(ctx, opts.Path); err != nil {
		return sum, err
	}
	mutants, err := tool.Results(ctx)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindParse {
			return sum, apperr.Wrap(err, apperr.KindMissingInput, "no usable mutation results")
		}
		return sum, err
	}
	survived := mutation.Survivors(mutants)
	if len(survived) == 0 {
		r.env.printf("No surviving mutants. All mutants are killed by existing tests!")
		return sum, nil
	}

	ext := ExtensionFor(opts.Language)
	for _, m := range survived {
		r.env.nextItem()
		err := r.killMutant(ctx, tool, m, opts, filepath.Join(testsDir, mutation.KillTestName(m, ext)))
		if err != nil && (apperr.IsFatal(err) || errors.Is(err, context.Canceled)) {
			return sum, err
		}
		if err != nil {
			sum.add(Failed, err)
			continue
		}
		sum.add(Succeeded, nil)
	}
	return sum, nil
}

func (r *Runner) killMutant(ctx context.Context, tool mutation.Tool, m mutation.Mutant, opts MutateOptions, dest string) error {
	r.env.printf("Processing surviving mutant %s in %s...", m.ID, m.Filename)
	mutantDiff, err := tool.Show(ctx, m.ID)
	if err != nil {
		r.env.errorf("Error showing mutant %s: %v", m.ID, err)
		return err
	}
	prompt, err := prompts.Render(opts.Template, prompts.Fields{
		prompts.FieldLanguage:  opts.Language,
		prompts.FieldFramework: opts.Framework,
		prompts.FieldDiff:      mutantDiff,
	})
	if err != nil {
		r.env.errorf("Error formatting kill prompt: %v", err)
		return err
	}

	r.env.printf("Generating test to kill mutant %s...", m.ID)
	code, err := r.env.complete(ctx, string(m.ID), prompt)
	if err != nil {
		if !apperr.IsFatal(err) {
			r.env.errorf("Error generating kill test: %v", err)
		}
		return err
	}
	if _, err := r.env.Engine.Present(nil, diff.SplitLines(llm.ExtractCode(code)), dest, diff.ModeApply, dest); err != nil {
		r.env.errorf("Error writing kill test %s: %v", dest, err)
		return err
	}
	r.env.printf("Wrote kill test to %s", dest)
	return nil
}
