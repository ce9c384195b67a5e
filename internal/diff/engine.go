// Package diff previews or persists rewritten file content.
package diff

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog/log"

	"github.com/codexautotest/internal/apperr"
)

// Mode selects between showing and writing a change.
type Mode int

const (
	// ModePreview prints a unified diff and leaves the destination untouched.
	ModePreview Mode = iota
	// ModeApply replaces the destination with the updated content.
	ModeApply
)

func (m Mode) String() string {
	if m == ModeApply {
		return "apply"
	}
	return "preview"
}

// ModeFor maps an --apply flag to a Mode.
func ModeFor(apply bool) Mode {
	if apply {
		return ModeApply
	}
	return ModePreview
}

// ContextLines is the number of unchanged lines around each hunk.
const ContextLines = 3

// Engine presents updated content either as a diff on its writer or as a
// whole-file write.
type Engine struct {
	out    io.Writer
	color  bool
	styles styles
	parser *Parser
}

type styles struct {
	header lipgloss.Style
	hunk   lipgloss.Style
	add    lipgloss.Style
	remove lipgloss.Style
}

// NewEngine returns an Engine printing previews to out. When color is set the
// diff is styled for a terminal.
func NewEngine(out io.Writer, color bool) *Engine {
	r := lipgloss.NewRenderer(out)
	return &Engine{
		out:   out,
		color: color,
		styles: styles{
			header: r.NewStyle().Bold(true),
			hunk:   r.NewStyle().Foreground(lipgloss.Color("6")),
			add:    r.NewStyle().Foreground(lipgloss.Color("2")),
			remove: r.NewStyle().Foreground(lipgloss.Color("1")),
		},
		parser: NewParser(),
	}
}

// Present compares original with updated. In preview mode it writes a
// unified diff labelled with label on both sides and returns its records; an
// unchanged file yields no output and a nil result. In apply mode it writes
// updated to dest and returns nil records.
func (e *Engine) Present(original, updated []string, label string, mode Mode, dest string) (*FileDiff, error) {
	if mode == ModeApply {
		return nil, Write(dest, updated)
	}

	if slices.Equal(original, updated) {
		log.Debug().Str("label", label).Msg("No changes to preview")
		return nil, nil
	}

	text, err := Unified(original, updated, label)
	if err != nil {
		return nil, err
	}
	files, err := e.parser.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse generated diff: %w", err)
	}

	if err := e.print(text); err != nil {
		return nil, err
	}

	var fd *FileDiff
	if len(files) > 0 {
		fd = files[0]
		added, removed := fd.Stats()
		log.Debug().Str("label", label).Int("added", added).Int("removed", removed).Msg("Diff previewed")
	}
	return fd, nil
}

func (e *Engine) print(text string) error {
	if !e.color {
		_, err := io.WriteString(e.out, text)
		return err
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		body := strings.TrimSuffix(line, "\n")
		var styled string
		switch {
		case strings.HasPrefix(body, "+++ "), strings.HasPrefix(body, "--- "):
			styled = e.styles.header.Render(body)
		case strings.HasPrefix(body, "@@"):
			styled = e.styles.hunk.Render(body)
		case strings.HasPrefix(body, "+"):
			styled = e.styles.add.Render(body)
		case strings.HasPrefix(body, "-"):
			styled = e.styles.remove.Render(body)
		default:
			styled = body
		}
		if _, err := io.WriteString(e.out, styled+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// Unified renders a unified diff of two line slices. Lines carry no
// terminators.
func Unified(original, updated []string, label string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        terminate(original),
		B:        terminate(updated),
		FromFile: label,
		ToFile:   label,
		Context:  ContextLines,
	})
}

func terminate(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l + "\n"
	}
	return out
}

// Write replaces dest with lines, each followed by a line break. An existing
// dest keeps its line ending style. Missing parent directories are created. The content goes to a temporary file in the
// same directory first and is renamed over dest, so dest is never left half
// written.
func Write(dest string, lines []string) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperr.Wrap(err, apperr.KindWrite, "failed to create %s", dir).WithItem(dest)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*")
	if err != nil {
		return apperr.Wrap(err, apperr.KindWrite, "failed to write %s", dest).WithItem(dest)
	}
	defer os.Remove(tmp.Name())

	content := Join(lines)
	if usesCRLF(dest) {
		content = strings.ReplaceAll(content, "\n", "\r\n")
	}
	if _, err := io.WriteString(tmp, content); err != nil {
		tmp.Close()
		return apperr.Wrap(err, apperr.KindWrite, "failed to write %s", dest).WithItem(dest)
	}
	if err := tmp.Close(); err != nil {
		return apperr.Wrap(err, apperr.KindWrite, "failed to write %s", dest).WithItem(dest)
	}
	if info, err := os.Stat(dest); err == nil {
		_ = os.Chmod(tmp.Name(), info.Mode().Perm())
	} else {
		_ = os.Chmod(tmp.Name(), 0644)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return apperr.Wrap(err, apperr.KindWrite, "failed to write %s", dest).WithItem(dest)
	}

	log.Debug().Str("path", dest).Int("lines", len(lines)).Msg("File written")
	return nil
}

// usesCRLF reports whether the first line of the file at path ends in \r\n.
func usesCRLF(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil {
		return false
	}
	return strings.HasSuffix(line, "\r\n")
}

// Join renders lines as file content with one trailing line break. No lines
// render as empty content.
func Join(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// SplitLines splits file content into lines without terminators. A final line
// break does not produce an empty trailing line.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
