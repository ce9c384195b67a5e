package outline

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codexautotest/internal/apperr"
)

func TestPythonExtractor_Outline(t *testing.T) {
	src := `import os

# helper
def foo():
    pass

@decorator
def documented(a):
    """Already here."""
    return a

class Bar:
    def baz(self):
        # comment first
        return 1

    @property
    def qux(self):
        """Doc."""
        return 2

    class Inner:
        def deep(self):
            pass
`
	defs, err := PythonExtractor{}.Extract(src)
	require.NoError(t, err)

	want := []Definition{
		{Kind: KindFunction, Name: "foo", HeaderLine: 4, BodyStart: 5, EndLine: 5},
		{Kind: KindFunction, Name: "documented", HeaderLine: 8, BodyStart: 9, EndLine: 10, Documented: true},
		{Kind: KindClass, Name: "Bar", HeaderLine: 12, BodyStart: 13, EndLine: 24, Children: []Definition{
			{Kind: KindMethod, Name: "baz", HeaderLine: 13, BodyStart: 15, EndLine: 15},
			{Kind: KindMethod, Name: "qux", HeaderLine: 18, BodyStart: 19, EndLine: 20, Documented: true},
		}},
	}
	if diff := cmp.Diff(want, defs); diff != "" {
		t.Errorf("outline mismatch (-want +got):\n%s", diff)
	}
}

func TestPythonExtractor_AsyncFunction(t *testing.T) {
	src := "async def fetch():\n    await go()\n"
	defs, err := PythonExtractor{}.Extract(src)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, KindFunction, defs[0].Kind)
	assert.Equal(t, 2, defs[0].BodyStart)
}

func TestPythonExtractor_SyntaxError(t *testing.T) {
	_, err := PythonExtractor{}.Extract("def broken(:\n    pass\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrParse)
	assert.False(t, apperr.IsFatal(err))
}

func TestPythonExtractor_CommentOnlyBody(t *testing.T) {
	src := "class Empty:\n    # nothing yet\n    ...\n"
	defs, err := PythonExtractor{}.Extract(src)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, 3, defs[0].BodyStart)
	assert.False(t, defs[0].Documented)
}

func TestForPath(t *testing.T) {
	lang, ok := ForPath("src/pkg/mod.py")
	require.True(t, ok)
	assert.Equal(t, "python", lang.Name)
	assert.Equal(t, `"""`, lang.DocQuote)

	_, ok = ForPath("main.go")
	assert.False(t, ok)
}

func TestPythonExtractor_DocLiteralPrefixes(t *testing.T) {
	cases := []struct {
		name       string
		body       string
		documented bool
	}{
		{"plain", `"""Doc."""`, true},
		{"raw", `r"""Doc \d."""`, true},
		{"unicode", `u'Doc.'`, true},
		{"concatenated", `"Doc " "more."`, true},
		{"fstring", `f"doc {x}"`, false},
		{"raw fstring", `rf"doc {x}"`, false},
		{"bytes", `b"doc"`, false},
		{"concatenated fstring", `"doc " f"{x}"`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := "def f(x):\n    " + tc.body + "\n    return x\n"
			defs, err := PythonExtractor{}.Extract(src)
			require.NoError(t, err)
			require.Len(t, defs, 1)
			assert.Equal(t, tc.documented, defs[0].Documented)
		})
	}
}
