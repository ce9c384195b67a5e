package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_GitDiff(t *testing.T) {
	text := `diff --git a/pkg/calc.py b/pkg/calc.py
index 83db48f..bf269f4 100644
--- a/pkg/calc.py
+++ b/pkg/calc.py
@@ -1,3 +1,3 @@
 def add(a, b):
-    return a - b
+    return a + b

diff --git a/README.md b/README.md
--- a/README.md
+++ b/README.md
@@ -0,0 +1 @@
+# calc
`
	files, err := NewParser().Parse(text)
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "pkg/calc.py", files[0].From)
	assert.Equal(t, "pkg/calc.py", files[0].To)
	require.Len(t, files[0].Hunks, 1)
	h := files[0].Hunks[0]
	assert.Equal(t, 1, h.OldStart)
	assert.Equal(t, 3, h.OldCount)
	assert.Equal(t, []Line{
		{Kind: LineContext, Content: "def add(a, b):"},
		{Kind: LineRemove, Content: "    return a - b"},
		{Kind: LineAdd, Content: "    return a + b"},
		{Kind: LineContext, Content: ""},
	}, h.Lines)

	assert.Equal(t, "README.md", files[1].To)
	require.Len(t, files[1].Hunks, 1)
	assert.Equal(t, 1, files[1].Hunks[0].NewCount, "omitted count means one line")
	added, removed := files[1].Stats()
	assert.Equal(t, 1, added)
	assert.Equal(t, 0, removed)
}

func TestParser_PlainHeadersKeepLabels(t *testing.T) {
	text := "--- a/calc.py\n+++ a/calc.py\n@@ -1 +1 @@\n--- old\n+--- new\n"
	files, err := NewParser().Parse(text)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a/calc.py", files[0].From)
	assert.Equal(t, []Line{
		{Kind: LineRemove, Content: "-- old"},
		{Kind: LineAdd, Content: "--- new"},
	}, files[0].Hunks[0].Lines)
}

func TestParser_Empty(t *testing.T) {
	files, err := NewParser().Parse("  \n")
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestParser_Truncated(t *testing.T) {
	_, err := NewParser().Parse("--- x\n+++ x\n@@ -1,2 +1,2 @@\n-a\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncated")
}
