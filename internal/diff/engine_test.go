package diff

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codexautotest/internal/apperr"
)

func TestEngine_PreviewShowsChangeAndLeavesFile(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "foo.py")
	require.NoError(t, os.WriteFile(dest, []byte("def foo():\n    return 1\n"), 0644))

	var out bytes.Buffer
	e := NewEngine(&out, false)
	original := []string{"def foo():", "    return 1"}
	updated := []string{"def foo():", "    return 2"}

	fd, err := e.Present(original, updated, "foo.py", ModePreview, dest)
	require.NoError(t, err)
	require.NotNil(t, fd)

	assert.Contains(t, out.String(), "--- foo.py\n+++ foo.py\n")
	assert.Contains(t, out.String(), "\n-    return 1\n")
	assert.Contains(t, out.String(), "\n+    return 2\n")

	added, removed := fd.Stats()
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, removed)

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "def foo():\n    return 1\n", string(content), "preview must not touch the file")
}

func TestEngine_ApplyWritesExactContent(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "nested", "deeper", "foo.py")

	var out bytes.Buffer
	e := NewEngine(&out, false)
	fd, err := e.Present([]string{"def foo():", "    return 1"}, []string{"def foo():", "    return 2"}, "foo.py", ModeApply, dest)
	require.NoError(t, err)
	assert.Nil(t, fd)
	assert.Empty(t, out.String())

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "def foo():\n    return 2\n", string(content))
	assert.NotContains(t, string(content), "return 1")

	entries, err := os.ReadDir(filepath.Dir(dest))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestEngine_PreviewUnchanged(t *testing.T) {
	var out bytes.Buffer
	fd, err := NewEngine(&out, false).Present([]string{"x"}, []string{"x"}, "x.py", ModePreview, "")
	require.NoError(t, err)
	assert.Nil(t, fd)
	assert.Empty(t, out.String())
}

func TestEngine_PreviewNewFile(t *testing.T) {
	var out bytes.Buffer
	fd, err := NewEngine(&out, false).Present(nil, []string{"import pytest"}, "tests/test_a.py", ModePreview, "")
	require.NoError(t, err)
	require.NotNil(t, fd)
	assert.Contains(t, out.String(), "+import pytest\n")
}

func TestEngine_ColorKeepsLineContent(t *testing.T) {
	var out bytes.Buffer
	_, err := NewEngine(&out, true).Present([]string{"a"}, []string{"b"}, "f", ModePreview, "")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "-a")
	assert.Contains(t, out.String(), "+b")
}

func TestWrite_FailureIsWriteError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := Write(filepath.Join(blocker, "child.py"), []string{"x"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindWrite, apperr.KindOf(err))
}

func TestJoinAndSplitLines(t *testing.T) {
	assert.Equal(t, "", Join(nil))
	assert.Equal(t, "a\nb\n", Join([]string{"a", "b"}))
	assert.Equal(t, []string{"a", "b"}, SplitLines("a\r\nb\n"))
	assert.Nil(t, SplitLines(""))
	assert.Equal(t, []string{"a", ""}, SplitLines("a\n\n"))
}

func TestModeFor(t *testing.T) {
	assert.Equal(t, ModeApply, ModeFor(true))
	assert.Equal(t, ModePreview, ModeFor(false))
	assert.Equal(t, "preview", ModePreview.String())
}

func TestWrite_KeepsLineEnding(t *testing.T) {
	dir := t.TempDir()
	crlf := filepath.Join(dir, "crlf.py")
	require.NoError(t, os.WriteFile(crlf, []byte("def foo():\r\n    return 1\r\n"), 0644))

	lines := SplitLines("def foo():\r\n    return 1\r\n")
	assert.Equal(t, []string{"def foo():", "    return 1"}, lines)

	require.NoError(t, Write(crlf, []string{"def foo():", "    return 2"}))
	got, err := os.ReadFile(crlf)
	require.NoError(t, err)
	assert.Equal(t, "def foo():\r\n    return 2\r\n", string(got))

	fresh := filepath.Join(dir, "new.py")
	require.NoError(t, Write(fresh, []string{"x = 1"}))
	got, err = os.ReadFile(fresh)
	require.NoError(t, err)
	assert.Equal(t, "x = 1\n", string(got))
}
