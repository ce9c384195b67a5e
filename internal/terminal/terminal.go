// Package terminal holds the interactive side of the CLI: TTY detection,
// Markdown rendering and the prompter used by review.
package terminal

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
)

// IsTerminal reports whether w is an *os.File attached to a terminal.
func IsTerminal(w any) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ColorEnabled decides whether output to w should be styled. NO_COLOR and
// --no-color both turn styling off.
func ColorEnabled(w io.Writer, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return IsTerminal(w)
}

// Markdown prints Markdown text, rendered with glamour when styling is on and
// verbatim otherwise.
type Markdown struct {
	out      io.Writer
	renderer *glamour.TermRenderer
}

// NewMarkdown returns a Markdown printer for out.
func NewMarkdown(out io.Writer, styled bool) *Markdown {
	m := &Markdown{out: out}
	if !styled {
		return m
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		log.Debug().Err(err).Msg("Markdown renderer unavailable, printing plain text")
		return m
	}
	m.renderer = r
	return m
}

// Print writes text followed by a newline.
func (m *Markdown) Print(text string) error {
	if m.renderer != nil {
		if rendered, err := m.renderer.Render(text); err == nil {
			_, err = io.WriteString(m.out, rendered)
			return err
		}
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err := io.WriteString(m.out, text)
	return err
}
