package review

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codexautotest/internal/apperr"
	"github.com/codexautotest/internal/llm"
	"github.com/codexautotest/internal/prompts"
	"github.com/codexautotest/internal/terminal"
)

// MockPrompter replays scripted answers.
type MockPrompter struct {
	templates []string
	answers   []bool
	edits     int
	confirms  []string
}

func (m *MockPrompter) EditTemplate(_ context.Context, current string) (string, error) {
	if m.edits >= len(m.templates) {
		return "", terminal.ErrNoInput
	}
	tpl := m.templates[m.edits]
	m.edits++
	if tpl == "" {
		return current, nil
	}
	return tpl, nil
}

func (m *MockPrompter) Confirm(question string, _ bool) (bool, error) {
	if len(m.answers) == 0 {
		return false, terminal.ErrNoInput
	}
	m.confirms = append(m.confirms, question)
	a := m.answers[0]
	m.answers = m.answers[1:]
	return a, nil
}

func newSession(t *testing.T, model llm.Client, p *MockPrompter) (*Session, *bytes.Buffer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test_calc.py")
	require.NoError(t, os.WriteFile(path, []byte("def test_old():\n    assert True\n"), 0644))
	var out bytes.Buffer
	return &Session{
		TestPath: path,
		Template: "Write {framework} tests for {code}",
		Fields: prompts.Fields{
			prompts.FieldLanguage:  "python",
			prompts.FieldFramework: "pytest",
			prompts.FieldCode:      "def add(a, b): return a + b",
		},
		Model:    model,
		Prompter: p,
		Out:      &out,
		Err:      &out,
	}, &out
}

func TestNext(t *testing.T) {
	cases := []struct {
		from State
		ev   Event
		want State
	}{
		{Editing, EventSave, Presenting},
		{Presenting, EventPresented, Confirming},
		{Confirming, EventAccept, Done},
		{Confirming, EventEditAgain, Editing},
		{Editing, EventAbort, Done},
		{Presenting, EventAbort, Done},
		{Confirming, EventAbort, Done},
	}
	for _, tc := range cases {
		got, err := Next(tc.from, tc.ev)
		require.NoError(t, err, "%s on %s", tc.from, tc.ev)
		assert.Equal(t, tc.want, got, "%s on %s", tc.from, tc.ev)
	}

	_, err := Next(Editing, EventAccept)
	assert.Error(t, err)
	_, err = Next(Done, EventAbort)
	assert.Error(t, err)
}

func TestSession_AcceptFirstRound(t *testing.T) {
	var sent []string
	model := llm.ClientFunc(func(_ context.Context, prompt string, _ llm.Options) (string, error) {
		sent = append(sent, prompt)
		return "```python\ndef test_add():\n    assert add(1, 2) == 3\n```", nil
	})
	p := &MockPrompter{templates: []string{""}, answers: []bool{true}}
	s, out := newSession(t, model, p)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Accepted, res.Outcome)
	assert.Equal(t, 1, res.Rounds)
	assert.Equal(t, []string{"Write pytest tests for def add(a, b): return a + b"}, sent)

	written, err := os.ReadFile(s.TestPath)
	require.NoError(t, err)
	assert.Equal(t, "def test_add():\n    assert add(1, 2) == 3\n", string(written))
	assert.Contains(t, out.String(), "Wrote updated tests to")
}

func TestSession_EditAgainThenAbort(t *testing.T) {
	calls := 0
	model := llm.ClientFunc(func(context.Context, string, llm.Options) (string, error) {
		calls++
		return "def test_x():\n    pass\n", nil
	})
	p := &MockPrompter{
		templates: []string{"", "Better: {code}"},
		// decline, edit again, decline, stop
		answers: []bool{false, true, false, false},
	}
	s, out := newSession(t, model, p)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Aborted, res.Outcome)
	assert.Equal(t, 2, res.Rounds)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "Better: {code}", s.Template)
	assert.Contains(t, out.String(), "Aborted. No changes written.")

	unchanged, err := os.ReadFile(s.TestPath)
	require.NoError(t, err)
	assert.Equal(t, "def test_old():\n    assert True\n", string(unchanged))
}

func TestSession_RegenerationsBypassCache(t *testing.T) {
	inner := 0
	cache := llm.NewCache()
	model := llm.NewCachingClient(llm.ClientFunc(func(context.Context, string, llm.Options) (string, error) {
		inner++
		return "def test_y():\n    pass\n", nil
	}), cache, false)
	p := &MockPrompter{templates: []string{"", ""}, answers: []bool{false, true, true}}
	s, _ := newSession(t, model, p)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Accepted, res.Outcome)
	assert.Equal(t, 2, inner)
	assert.Equal(t, 0, cache.Len())
}

func TestSession_ModelErrorAborts(t *testing.T) {
	model := llm.ClientFunc(func(context.Context, string, llm.Options) (string, error) {
		return "", errors.New("rate limited")
	})
	p := &MockPrompter{templates: []string{""}}
	s, out := newSession(t, model, p)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Aborted, res.Outcome)
	assert.Contains(t, out.String(), "Error regenerating tests: rate limited")
}

func TestSession_StrictTemplateErrorAborts(t *testing.T) {
	model := llm.ClientFunc(func(context.Context, string, llm.Options) (string, error) {
		t.Fatal("model must not be called")
		return "", nil
	})
	p := &MockPrompter{templates: []string{"Use {missing}"}}
	s, out := newSession(t, model, p)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Aborted, res.Outcome)
	assert.Contains(t, out.String(), "Error formatting prompt")
}

func TestSession_InputEnds(t *testing.T) {
	model := llm.ClientFunc(func(context.Context, string, llm.Options) (string, error) { return "x", nil })
	s, _ := newSession(t, model, &MockPrompter{})

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Aborted, res.Outcome)
	assert.Equal(t, 0, res.Rounds)
}

func TestSession_MissingTestFile(t *testing.T) {
	s, _ := newSession(t, llm.ClientFunc(nil), &MockPrompter{})
	s.TestPath = filepath.Join(t.TempDir(), "nope.py")
	_, err := s.Run(context.Background())
	assert.ErrorIs(t, err, apperr.ErrMissingInput)
}

func TestSourceFor(t *testing.T) {
	src, err := SourceFor(filepath.Join("tests", "pkg", "test_calc.py"), "tests", "src", ".py")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("src", "pkg", "calc.py"), src)

	src, err = SourceFor(filepath.Join("tests", "test_util.txt"), "tests", "lib", ".py")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("lib", "util.py"), src)

	_, err = SourceFor(filepath.Join("other", "test_calc.py"), "tests", "src", ".py")
	assert.ErrorIs(t, err, apperr.ErrMissingInput)
}
