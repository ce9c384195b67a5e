package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codexautotest/internal/apperr"
	"github.com/codexautotest/internal/diff"
	"github.com/codexautotest/internal/llm"
	"github.com/codexautotest/internal/prompts"
	"github.com/codexautotest/internal/walker"
)

// Outcome is how a single work item ended.
type Outcome int

const (
	Succeeded Outcome = iota
	Skipped
	Failed
)

// Summary counts item outcomes for one run.
type Summary struct {
	Succeeded int
	Skipped   int
	Failed    int
	Failures  []error
	Duration  time.Duration
}

func (s *Summary) add(o Outcome, err error) {
	switch o {
	case Succeeded:
		s.Succeeded++
	case Skipped:
		s.Skipped++
	case Failed:
		s.Failed++
		s.Failures = append(s.Failures, err)
	}
}

// Total is the number of items seen.
func (s Summary) Total() int {
	return s.Succeeded + s.Skipped + s.Failed
}

// FileJob describes a workflow that turns each walked file into one prompt
// and one presented result.
type FileJob struct {
	// Action names the work in error messages, e.g. "generating tests".
	Action string
	// Announce and Applied are printf formats taking a path.
	Announce string
	Applied  string

	Template string
	Fields   func(f walker.File, code string) prompts.Fields
	Mode     diff.Mode
	// Destination is where apply mode writes and the label of preview diffs.
	Destination func(f walker.File) string
	// Baseline returns the lines the response is compared against.
	Baseline func(f walker.File, code string) ([]string, error)
	// StripFences unwraps a response fully enclosed in a code fence.
	StripFences bool
}

// Runner executes FileJobs with per-item isolation: an item failure is
// reported on Env.Err and the run moves on. Only fatal errors stop it.
type Runner struct {
	env *Env
}

// NewRunner returns a Runner bound to env.
func NewRunner(env *Env) *Runner {
	return &Runner{env: env}
}

// Run processes every file produced by w.
func (r *Runner) Run(ctx context.Context, w *walker.Walker, job FileJob) (Summary, error) {
	start := time.Now()
	var sum Summary
	defer func() {
		sum.Duration = time.Since(start)
		log.Debug().
			Str("action", job.Action).
			Int("succeeded", sum.Succeeded).
			Int("skipped", sum.Skipped).
			Int("failed", sum.Failed).
			Int("cache_hits", r.env.cacheHits()).
			Dur("duration", sum.Duration).
			Msg("Run finished")
	}()

	for f, err := range w.Files() {
		if err != nil {
			r.env.errorf("Error reading %s: %v", f.Path, err)
			sum.add(Failed, err)
			continue
		}
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		r.env.nextItem()
		outcome, err := r.runFile(ctx, f, job)
		if err != nil {
			if apperr.IsFatal(err) || errors.Is(err, context.Canceled) {
				return sum, err
			}
			r.env.errorf("Error %s for %s: %v", job.Action, f.Path, err)
		}
		sum.add(outcome, err)
	}
	return sum, nil
}

func (r *Runner) runFile(ctx context.Context, f walker.File, job FileJob) (Outcome, error) {
	code, err := f.Read()
	if err != nil {
		return Failed, err
	}
	prompt, err := prompts.Render(job.Template, job.Fields(f, code))
	if err != nil {
		return Failed, err
	}

	if job.Announce != "" {
		r.env.printf(job.Announce, f.Path)
	}
	response, err := r.env.complete(ctx, f.Path, prompt)
	if err != nil {
		return Failed, err
	}
	if job.StripFences {
		response = llm.ExtractCode(response)
	}

	dest := job.Destination(f)
	original, err := job.Baseline(f, code)
	if err != nil {
		return Failed, err
	}
	fd, err := r.env.Engine.Present(original, diff.SplitLines(response), dest, job.Mode, dest)
	if err != nil {
		return Failed, err
	}
	if job.Mode == diff.ModeApply {
		if job.Applied != "" {
			r.env.printf(job.Applied, dest)
		}
		return Succeeded, nil
	}
	if fd == nil {
		r.env.printf("No changes for %s", dest)
		return Skipped, nil
	}
	return Succeeded, nil
}

// existingLines returns the lines of path, or nil when it does not exist.
func existingLines(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return diff.SplitLines(string(b)), nil
}
