// Package logging configures structured logging for one CLI invocation and
// optionally keeps a transcript of every prompt and response it exchanges with
// the model.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options configures Start.
type Options struct {
	// Writer receives console log output. Defaults to os.Stderr.
	Writer  io.Writer
	Verbose bool
	NoColor bool
	// TranscriptDir, when set, receives a run_<id>_<timestamp>.log file with
	// the prompts and responses of this run.
	TranscriptDir string
}

// Run is the logging context of a single invocation.
type Run struct {
	ID     string
	start  time.Time
	logger zerolog.Logger

	mu         sync.Mutex
	transcript *os.File
}

// Start builds the console logger, tags it with a fresh run ID and installs
// it as the global zerolog logger.
func Start(opts Options) (*Run, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	level := zerolog.WarnLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	run := &Run{
		ID:    uuid.NewString(),
		start: time.Now(),
	}
	console := zerolog.ConsoleWriter{Out: w, NoColor: opts.NoColor, TimeFormat: "15:04:05"}
	run.logger = zerolog.New(console).Level(level).With().Timestamp().Str("run_id", run.ID).Logger()
	log.Logger = run.logger

	if opts.TranscriptDir != "" {
		if err := os.MkdirAll(opts.TranscriptDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create transcript directory: %w", err)
		}
		name := fmt.Sprintf("run_%s_%s.log", run.ID, run.start.Format("20060102_150405"))
		f, err := os.Create(filepath.Join(opts.TranscriptDir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to create transcript: %w", err)
		}
		run.transcript = f
		run.section("RUN " + run.ID)
		run.logger.Debug().Str("path", f.Name()).Msg("Writing transcript")
	}

	return run, nil
}

// Logger returns the run's logger.
func (r *Run) Logger() zerolog.Logger {
	return r.logger
}

// LogRequest records a prompt sent to the model.
func (r *Run) LogRequest(model, prompt string) {
	r.logger.Debug().Str("model", model).Int("prompt_chars", len(prompt)).Msg("Model request")
	r.section("REQUEST model=" + model)
	r.write(prompt)
}

// LogResponse records the text returned by the model.
func (r *Run) LogResponse(response string) {
	r.logger.Debug().Int("response_chars", len(response)).Msg("Model response")
	r.section("RESPONSE")
	r.write(response)
}

// Close writes the run footer and closes the transcript.
func (r *Run) Close() error {
	elapsed := time.Since(r.start).Round(time.Millisecond)
	r.logger.Debug().Dur("elapsed", elapsed).Msg("Run finished")

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.transcript == nil {
		return nil
	}
	fmt.Fprintf(r.transcript, "[+%v] run finished\n", elapsed)
	err := r.transcript.Close()
	r.transcript = nil
	return err
}

func (r *Run) section(title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.transcript == nil {
		return
	}
	sep := strings.Repeat("=", 80)
	elapsed := time.Since(r.start).Round(time.Millisecond)
	fmt.Fprintf(r.transcript, "%s\n[+%v] %s\n%s\n", sep, elapsed, title, sep)
}

func (r *Run) write(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.transcript == nil {
		return
	}
	r.transcript.WriteString(text)
	if !strings.HasSuffix(text, "\n") {
		r.transcript.WriteString("\n")
	}
}
