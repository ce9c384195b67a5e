package vcs

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codexautotest/internal/apperr"
)

func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	for _, args := range [][]string{
		{"init", "-q"},
		{"config", "user.email", "dev@example.com"},
		{"config", "user.name", "Dev"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		require.NoError(t, cmd.Run())
	}
	return dir
}

func TestStagedDiff(t *testing.T) {
	dir := initRepo(t)
	g := &Git{Binary: "git", Dir: dir}

	_, err := g.StagedDiff(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrMissingInput)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "calc.py"), []byte("def add(a, b):\n    return a + b\n"), 0644))
	add := exec.Command("git", "add", "calc.py")
	add.Dir = dir
	require.NoError(t, add.Run())

	text, err := g.StagedDiff(context.Background())
	require.NoError(t, err)
	assert.Contains(t, text, "+def add(a, b):")
}

func TestStagedDiff_NotARepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	g := &Git{Binary: "git", Dir: t.TempDir()}
	_, err := g.StagedDiff(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.IsFatal(err))
}
