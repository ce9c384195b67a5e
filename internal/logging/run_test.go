package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart_LevelAndRunID(t *testing.T) {
	var buf bytes.Buffer
	run, err := Start(Options{Writer: &buf, NoColor: true})
	require.NoError(t, err)
	defer run.Close()

	_, err = uuid.Parse(run.ID)
	require.NoError(t, err)

	logger := run.Logger()
	logger.Debug().Msg("hidden")
	logger.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), run.ID)
}

func TestStart_Verbose(t *testing.T) {
	var buf bytes.Buffer
	run, err := Start(Options{Writer: &buf, NoColor: true, Verbose: true})
	require.NoError(t, err)
	defer run.Close()

	logger := run.Logger()
	logger.Debug().Msg("details")
	assert.Contains(t, buf.String(), "details")
}

func TestTranscript(t *testing.T) {
	dir := t.TempDir()
	run, err := Start(Options{Writer: &bytes.Buffer{}, TranscriptDir: dir})
	require.NoError(t, err)

	run.LogRequest("gpt-4o-mini", "Explain this")
	run.LogResponse("It adds numbers.")
	require.NoError(t, run.Close())
	require.NoError(t, run.Close(), "closing twice is harmless")

	matches, err := filepath.Glob(filepath.Join(dir, "run_"+run.ID+"_*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	content, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "REQUEST model=gpt-4o-mini")
	assert.Contains(t, string(content), "Explain this\n")
	assert.Contains(t, string(content), "It adds numbers.\n")
	assert.Contains(t, string(content), "run finished")
}
