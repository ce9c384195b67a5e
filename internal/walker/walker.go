// Package walker enumerates candidate source files under a root directory.
package walker

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/codexautotest/internal/apperr"
)

// File is a source file found by a Walker.
type File struct {
	// Path is the file path as reached from the walk root.
	Path string
	// Rel is Path relative to the walk root.
	Rel string
}

// Read returns the file content. Callers read it once per operation and treat
// the result as an immutable snapshot.
func (f File) Read() (string, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Stem returns the base name without its extension.
func (f File) Stem() string {
	base := filepath.Base(f.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Option configures a Walker.
type Option func(*Walker)

// ExcludeNames skips files whose base name matches one of names.
func ExcludeNames(names ...string) Option {
	return func(w *Walker) {
		for _, n := range names {
			w.excluded[n] = true
		}
	}
}

// SkipDirs prunes directories whose base name matches one of names.
func SkipDirs(names ...string) Option {
	return func(w *Walker) {
		for _, n := range names {
			w.skipDirs[n] = true
		}
	}
}

// Walker produces a depth-first, lexically ordered traversal of the files under
// root whose names end with ext.
type Walker struct {
	root     string
	ext      string
	excluded map[string]bool
	skipDirs map[string]bool
}

// New returns a Walker over root. It fails with a MissingInput error when root
// does not exist.
func New(root, ext string, opts ...Option) (*Walker, error) {
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.New(apperr.KindMissingInput, "source path %s does not exist", root).WithItem(root)
		}
		return nil, apperr.Wrap(err, apperr.KindMissingInput, "cannot access source path %s", root).WithItem(root)
	}
	w := &Walker{
		root:     root,
		ext:      ext,
		excluded: map[string]bool{},
		skipDirs: map[string]bool{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Root returns the directory the walk starts from.
func (w *Walker) Root() string {
	return w.root
}

// Files lazily yields matching files. The sequence is single-pass: stopping the
// range loop stops the underlying directory walk. Errors reading a directory are
// yielded alongside a zero File and the walk continues.
func (w *Walker) Files() iter.Seq2[File, error] {
	return func(yield func(File, error) bool) {
		_ = filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if !yield(File{Path: path}, err) {
					return filepath.SkipAll
				}
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if path != w.root && w.skipDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(d.Name(), w.ext) || w.excluded[d.Name()] {
				return nil
			}
			rel, relErr := filepath.Rel(w.root, path)
			if relErr != nil {
				rel = d.Name()
			}
			if !yield(File{Path: path, Rel: rel}, nil) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// Collect drains the walk into a slice, stopping at the first error.
func (w *Walker) Collect() ([]File, error) {
	var files []File
	for f, err := range w.Files() {
		if err != nil {
			return files, err
		}
		files = append(files, f)
	}
	return files, nil
}
