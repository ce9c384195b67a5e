// Package review implements the interactive test review loop: the user edits
// the prompt, the model regenerates the test file, and the user accepts the
// result, asks for another round or aborts.
package review

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codexautotest/internal/apperr"
	"github.com/codexautotest/internal/diff"
	"github.com/codexautotest/internal/llm"
	"github.com/codexautotest/internal/prompts"
	"github.com/codexautotest/internal/security"
	"github.com/codexautotest/internal/terminal"
)

// State is a step of the review loop.
type State int

const (
	Editing State = iota
	Presenting
	Confirming
	Done
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Presenting:
		return "presenting"
	case Confirming:
		return "confirming"
	case Done:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Event moves the loop from one state to the next.
type Event int

const (
	// EventSave ends an edit of the prompt.
	EventSave Event = iota
	// EventPresented fires once a regenerated test has been shown.
	EventPresented
	EventAccept
	EventEditAgain
	EventAbort
)

func (e Event) String() string {
	switch e {
	case EventSave:
		return "save"
	case EventPresented:
		return "presented"
	case EventAccept:
		return "accept"
	case EventEditAgain:
		return "edit-again"
	case EventAbort:
		return "abort"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// Next returns the state that follows from on ev. Abort is accepted from
// every non-terminal state.
func Next(from State, ev Event) (State, error) {
	if from != Done && ev == EventAbort {
		return Done, nil
	}
	switch {
	case from == Editing && ev == EventSave:
		return Presenting, nil
	case from == Presenting && ev == EventPresented:
		return Confirming, nil
	case from == Confirming && ev == EventAccept:
		return Done, nil
	case from == Confirming && ev == EventEditAgain:
		return Editing, nil
	}
	return from, fmt.Errorf("invalid transition from %s on %s", from, ev)
}

// Outcome is how a session ended.
type Outcome int

const (
	Aborted Outcome = iota
	Accepted
)

// Result describes a finished session.
type Result struct {
	Outcome  Outcome
	Rounds   int
	Duration time.Duration
}

// Session reviews one test file.
type Session struct {
	TestPath string
	Template string
	// Fields carries language, framework and the code under test.
	Fields prompts.Fields

	Model    llm.Client
	Options  llm.Options
	Prompter terminal.Prompter
	Guard    security.InjectionGuard
	Out      io.Writer
	Err      io.Writer

	state     State
	generated string
}

// Run drives the loop until the user accepts or aborts. Regenerations never
// come from the response cache.
func (s *Session) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	res := Result{Outcome: Aborted}
	s.state = Editing

	current, err := os.ReadFile(s.TestPath)
	if err != nil {
		return res, apperr.New(apperr.KindMissingInput, "Test file %s not found.", s.TestPath)
	}
	fmt.Fprintf(s.Out, "Current test code for %s:\n\n%s\n", s.TestPath, current)

	for s.state != Done {
		ev, err := s.step(ctx, &res)
		if err != nil {
			return res, err
		}
		next, err := Next(s.state, ev)
		if err != nil {
			return res, err
		}
		log.Debug().Stringer("from", s.state).Stringer("event", ev).Stringer("to", next).Msg("Review transition")
		s.state = next
	}
	res.Duration = time.Since(start)
	return res, nil
}

func (s *Session) step(ctx context.Context, res *Result) (Event, error) {
	switch s.state {
	case Editing:
		tpl, err := s.Prompter.EditTemplate(ctx, s.Template)
		if err != nil {
			return s.inputEnded(err)
		}
		s.Template = tpl
		fmt.Fprintf(s.Out, "\nUsing prompt:\n%s\n", s.Template)
		if s.Guard != nil {
			if v := s.Guard.Screen(ctx, s.Template); !v.Safe {
				fmt.Fprintf(s.Err, "Warning: the prompt looks like a prompt injection (%s)\n", strings.Join(v.Patterns, ", "))
			}
		}
		return EventSave, nil

	case Presenting:
		res.Rounds++
		prompt, err := prompts.Render(s.Template, s.Fields)
		if err != nil {
			fmt.Fprintf(s.Err, "Error formatting prompt: %v\n", err)
			return EventAbort, nil
		}
		out, err := s.Model.Complete(llm.Bypass(ctx), prompt, s.Options)
		if err != nil {
			if apperr.IsFatal(err) {
				return EventAbort, err
			}
			fmt.Fprintf(s.Err, "Error regenerating tests: %v\n", err)
			return EventAbort, nil
		}
		s.generated = llm.ExtractCode(out)
		fmt.Fprintf(s.Out, "\nGenerated new test code:\n\n%s\n", strings.TrimRight(s.generated, "\n"))
		return EventPresented, nil

	case Confirming:
		ok, err := s.Prompter.Confirm(fmt.Sprintf("Overwrite %s?", s.TestPath), false)
		if err != nil {
			return s.inputEnded(err)
		}
		if ok {
			if err := diff.Write(s.TestPath, diff.SplitLines(s.generated)); err != nil {
				fmt.Fprintf(s.Err, "Error writing %s: %v\n", s.TestPath, err)
				return EventAbort, nil
			}
			fmt.Fprintf(s.Out, "Wrote updated tests to %s\n", s.TestPath)
			res.Outcome = Accepted
			return EventAccept, nil
		}
		again, err := s.Prompter.Confirm("Edit prompt and regenerate?", true)
		if err != nil {
			return s.inputEnded(err)
		}
		if again {
			return EventEditAgain, nil
		}
		fmt.Fprintln(s.Out, "Aborted. No changes written.")
		return EventAbort, nil
	}
	return EventAbort, fmt.Errorf("review loop stepped in state %s", s.state)
}

func (s *Session) inputEnded(err error) (Event, error) {
	if errors.Is(err, terminal.ErrNoInput) {
		fmt.Fprintln(s.Out, "Aborted. No changes written.")
		return EventAbort, nil
	}
	return EventAbort, err
}

// SourceFor maps tests/<dir>/test_<name> to srcPath/<dir>/<name>, with the
// extension forced to ext. The test file must live under testsDir.
func SourceFor(testPath, testsDir, srcPath, ext string) (string, error) {
	rel, err := filepath.Rel(testsDir, testPath)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", apperr.New(apperr.KindMissingInput, "Please provide a test file under the %q directory.", testsDir)
	}
	name := strings.TrimPrefix(filepath.Base(rel), "test_")
	if !strings.HasSuffix(name, ext) {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ext
	}
	return filepath.Join(srcPath, filepath.Dir(rel), name), nil
}
