// Package vcs reads changes from the version control system.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/codexautotest/internal/apperr"
)

// Git runs git in Dir, or in the working directory when Dir is empty.
type Git struct {
	Binary string
	Dir    string
}

// NewGit returns a Git using the git binary on PATH.
func NewGit() *Git {
	return &Git{Binary: "git"}
}

func (g *Git) runGitCommand(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, g.Binary, args...)
	cmd.Dir = g.Dir
	log.Debug().Strs("args", args).Str("dir", g.Dir).Msg("Running git")
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("git command failed: %s\nstderr: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, err
	}
	return output, nil
}

// StagedDiff returns the output of git diff --staged. Failing to run git
// and having nothing staged are both MissingInput errors.
func (g *Git) StagedDiff(ctx context.Context) (string, error) {
	out, err := g.runGitCommand(ctx, "diff", "--staged")
	if err != nil {
		return "", apperr.Wrap(err, apperr.KindMissingInput, "error getting staged diff")
	}
	text := string(out)
	if strings.TrimSpace(text) == "" {
		return "", apperr.New(apperr.KindMissingInput, "No staged changes detected")
	}
	return text, nil
}
