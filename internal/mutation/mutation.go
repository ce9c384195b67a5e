// Package mutation drives an external mutation-testing tool and reports the
// mutants it leaves alive.
package mutation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/codexautotest/internal/apperr"
	"github.com/codexautotest/internal/llm"
)

// StatusSurvived marks a mutant the test suite did not detect.
const StatusSurvived = "survived"

// MutantID identifies a mutant. Tools report it either as a number or as a
// string, so both are accepted when decoding.
type MutantID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *MutantID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = MutantID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("mutant id must be a number or a string: %w", err)
	}
	*id = MutantID(n.String())
	return nil
}

// Mutant is one record reported by the tool.
type Mutant struct {
	ID       MutantID `json:"id"`
	Filename string   `json:"filename"`
	Status   string   `json:"status"`
}

// Module returns the base name of the mutated file without its extension.
func (m Mutant) Module() string {
	base := filepath.Base(m.Filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Survivors filters mutants down to the surviving ones, keeping order.
func Survivors(mutants []Mutant) []Mutant {
	var out []Mutant
	for _, m := range mutants {
		if strings.EqualFold(m.Status, StatusSurvived) {
			out = append(out, m)
		}
	}
	return out
}

// Tool is a mutation-testing tool.
type Tool interface {
	// Run mutates the code under path and runs the test suite against it.
	Run(ctx context.Context, path string) error
	// Results lists every mutant of the last run.
	Results(ctx context.Context) ([]Mutant, error)
	// Show returns the diff that introduced a mutant.
	Show(ctx context.Context, id MutantID) (string, error)
}

// Mutmut runs the mutmut command line tool.
type Mutmut struct {
	// Binary defaults to "mutmut" resolved on PATH.
	Binary string
	// Dir is the working directory for every invocation.
	Dir string
}

// NewMutmut returns a Mutmut after checking that the binary can be found. A
// missing binary is a MissingInput error.
func NewMutmut(binary string) (*Mutmut, error) {
	if binary == "" {
		binary = "mutmut"
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, apperr.New(apperr.KindMissingInput, "%s not found. Please install mutmut to use the mutate command", binary)
	}
	return &Mutmut{Binary: resolved}, nil
}

func (m *Mutmut) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, m.Binary, args...)
	cmd.Dir = m.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug().Str("binary", m.Binary).Strs("args", args).Msg("Running mutation tool")
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return stdout.String(), fmt.Errorf("%s %s: %s", filepath.Base(m.Binary), args[0], msg)
	}
	return stdout.String(), nil
}

// Run implements Tool. A failing run is a MissingInput error since no
// results can be produced without it.
func (m *Mutmut) Run(ctx context.Context, path string) error {
	if _, err := m.run(ctx, "run", "--paths-to-mutate", path); err != nil {
		return apperr.Wrap(err, apperr.KindMissingInput, "error running mutmut")
	}
	return nil
}

// Results implements Tool. Malformed JSON is repaired before decoding.
func (m *Mutmut) Results(ctx context.Context) ([]Mutant, error) {
	out, err := m.run(ctx, "results", "--json")
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindMissingInput, "error getting mutmut results")
	}
	return ParseResults(out)
}

// ParseResults decodes a JSON list of mutant records.
func ParseResults(raw string) ([]Mutant, error) {
	var mutants []Mutant
	stats, err := llm.DecodeJSON(raw, &mutants)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindParse, "error parsing mutmut results")
	}
	if stats.WasRepaired {
		log.Warn().Int("bytes", stats.OriginalBytes).Msg("Mutation results were malformed and had to be repaired")
	}
	return mutants, nil
}

// Show implements Tool.
func (m *Mutmut) Show(ctx context.Context, id MutantID) (string, error) {
	out, err := m.run(ctx, "show", string(id))
	if err != nil {
		return "", fmt.Errorf("error showing mutant %s: %w", id, err)
	}
	return out, nil
}

// KillTestName returns the file name of the test generated for mutant.
func KillTestName(m Mutant, ext string) string {
	id := string(m.ID)
	if _, err := strconv.Atoi(id); err != nil {
		id = sanitize(id)
	}
	return fmt.Sprintf("test_mutant_%s_%s%s", m.Module(), id, ext)
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
