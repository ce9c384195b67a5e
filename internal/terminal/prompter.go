package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrNoInput is returned when the input stream ends while waiting for an
// answer.
var ErrNoInput = errors.New("no input available")

// Prompter collects decisions from the user.
type Prompter interface {
	// EditTemplate lets the user change a prompt template. Leaving it
	// unchanged returns current.
	EditTemplate(ctx context.Context, current string) (string, error)
	// Confirm asks a yes/no question.
	Confirm(question string, def bool) (bool, error)
}

// EditorFunc opens path in an editor and waits for it to exit.
type EditorFunc func(ctx context.Context, editor, path string) error

// Console prompts on a terminal, or through plain line input when the input
// is not a terminal.
type Console struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
	editor      string
	runEditor   EditorFunc
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithInteractive overrides TTY detection.
func WithInteractive(interactive bool) ConsoleOption {
	return func(c *Console) { c.interactive = interactive }
}

// WithEditor sets the editor command and the function that runs it.
func WithEditor(editor string, run EditorFunc) ConsoleOption {
	return func(c *Console) {
		c.editor = editor
		if run != nil {
			c.runEditor = run
		}
	}
}

// NewConsole returns a Console reading answers from in. The editor comes
// from $VISUAL, then $EDITOR, then vi.
func NewConsole(in io.Reader, out io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: IsTerminal(in),
		editor:      defaultEditor(),
		runEditor:   runEditor,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func defaultEditor() string {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v
		}
	}
	return "vi"
}

func runEditor(ctx context.Context, editor, path string) error {
	fields := strings.Fields(editor)
	cmd := exec.CommandContext(ctx, fields[0], append(fields[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// EditTemplate implements Prompter.
func (c *Console) EditTemplate(ctx context.Context, current string) (string, error) {
	if c.interactive {
		return c.editFile(ctx, current)
	}
	fmt.Fprintln(c.out, "\nEnter a new prompt (or leave empty to use previous/default):")
	fmt.Fprintf(c.out, "Prompt [%s]: ", current)
	line, err := c.readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return current, nil
	}
	return line, nil
}

// editFile writes current to a temp file, opens the editor on it and reads
// it back. An editor that exits without saving keeps current.
func (c *Console) editFile(ctx context.Context, current string) (string, error) {
	fmt.Fprintln(c.out, "\nOpening editor to customize the prompt. Save to apply changes, or exit without saving to keep existing prompt.")

	f, err := os.CreateTemp("", "codex-autotest-prompt-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create prompt file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(current); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write prompt file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	before, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	if err := c.runEditor(ctx, c.editor, path); err != nil {
		return "", fmt.Errorf("editor %q failed: %w", c.editor, err)
	}

	after, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if after.ModTime().Equal(before.ModTime()) && after.Size() == before.Size() {
		log.Debug().Msg("Prompt file not saved, keeping existing prompt")
		return current, nil
	}
	edited, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(edited), "\n"), nil
}

// Confirm implements Prompter. An empty answer picks def.
func (c *Console) Confirm(question string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	for {
		fmt.Fprintf(c.out, "%s [%s]: ", question, hint)
		line, err := c.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(c.out, "Error: invalid input")
	}
}

func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
