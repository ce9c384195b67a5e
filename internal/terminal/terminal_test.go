package terminal

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTerminal_Buffer(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
	assert.False(t, ColorEnabled(&bytes.Buffer{}, false))
}

func TestMarkdown_Plain(t *testing.T) {
	var out bytes.Buffer
	md := NewMarkdown(&out, false)
	require.NoError(t, md.Print("# Title"))
	assert.Equal(t, "# Title\n", out.String())
}

func TestConsole_LinePrompt(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader("Write tests for {code}\n\n"), &out, WithInteractive(false))

	got, err := c.EditTemplate(context.Background(), "old")
	require.NoError(t, err)
	assert.Equal(t, "Write tests for {code}", got)

	got, err = c.EditTemplate(context.Background(), "kept")
	require.NoError(t, err)
	assert.Equal(t, "kept", got)
	assert.Contains(t, out.String(), "Prompt [old]: ")
}

func TestConsole_Confirm(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader("maybe\nyes\n\nn\n"), &out, WithInteractive(false))

	ok, err := c.Confirm("Overwrite?", false)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "Error: invalid input")

	ok, err = c.Confirm("Edit prompt and regenerate?", true)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Confirm("Again?", true)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.Confirm("Past the end?", true)
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestConsole_EditorSaves(t *testing.T) {
	editor := func(_ context.Context, name, path string) error {
		assert.Equal(t, "fake-editor", name)
		return os.WriteFile(path, []byte("edited template {code}\n"), 0600)
	}
	c := NewConsole(strings.NewReader(""), &bytes.Buffer{}, WithInteractive(true), WithEditor("fake-editor", editor))

	got, err := c.EditTemplate(context.Background(), "original")
	require.NoError(t, err)
	assert.Equal(t, "edited template {code}", got)
}

func TestConsole_EditorQuitsWithoutSaving(t *testing.T) {
	editor := func(context.Context, string, string) error { return nil }
	c := NewConsole(strings.NewReader(""), &bytes.Buffer{}, WithInteractive(true), WithEditor("fake-editor", editor))

	got, err := c.EditTemplate(context.Background(), "original")
	require.NoError(t, err)
	assert.Equal(t, "original", got)
}

func TestDefaultEditor(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "nano")
	assert.Equal(t, "nano", defaultEditor())
	t.Setenv("EDITOR", "")
	assert.Equal(t, "vi", defaultEditor())
}
