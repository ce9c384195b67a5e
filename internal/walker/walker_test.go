package walker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codexautotest/internal/apperr"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("# "+f+"\n"), 0644))
	}
}

func rels(files []File) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, filepath.ToSlash(f.Rel))
	}
	return out
}

func TestWalker_FiltersAndOrders(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"b.py", "a.py", "notes.txt",
		"pkg/__init__.py", "pkg/z.py", "pkg/sub/m.py",
		".git/hooks/x.py",
	)

	w, err := New(root, ".py", ExcludeNames("__init__.py"), SkipDirs(".git"))
	require.NoError(t, err)

	files, err := w.Collect()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py", "b.py", "pkg/sub/m.py", "pkg/z.py"}, rels(files))

	again, err := w.Collect()
	require.NoError(t, err)
	assert.Equal(t, rels(files), rels(again), "order must be reproducible")
}

func TestWalker_StopsEarly(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.py", "b.py", "c.py")

	w, err := New(root, ".py")
	require.NoError(t, err)

	var seen []string
	for f, err := range w.Files() {
		require.NoError(t, err)
		seen = append(seen, f.Rel)
		if len(seen) == 2 {
			break
		}
	}
	assert.Len(t, seen, 2)
}

func TestWalker_EmptyIsNotAnError(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "readme.md")

	w, err := New(root, ".py")
	require.NoError(t, err)
	files, err := w.Collect()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestWalker_MissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope"), ".py")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrMissingInput)
	assert.True(t, apperr.IsFatal(err))
}

func TestFile_ReadAndStem(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "mod.py")

	f := File{Path: filepath.Join(root, "mod.py"), Rel: "mod.py"}
	content, err := f.Read()
	require.NoError(t, err)
	assert.Equal(t, "# mod.py\n", content)
	assert.Equal(t, "mod", f.Stem())
}
