package workflow

import (
	"path/filepath"

	"github.com/codexautotest/internal/diff"
	"github.com/codexautotest/internal/prompts"
	"github.com/codexautotest/internal/walker"
)

// TestsDir is the root of generated test files.
const TestsDir = "tests"

// PackageMarker is never sent to the model by test generation or refactor.
const PackageMarker = "__init__.py"

// TestOptions configures test generation.
type TestOptions struct {
	Language  string
	Framework string
	Template  string
	// TestsDir defaults to "tests".
	TestsDir string
	Mode     diff.Mode
}

// TestFilePath returns tests/<rel dir>/test_<stem><ext> for a source file.
func TestFilePath(testsDir string, f walker.File, ext string) string {
	return filepath.Join(testsDir, filepath.Dir(f.Rel), "test_"+f.Stem()+ext)
}

// TestJob generates one test file per source file. The existing test file,
// if any, is the diff baseline.
func TestJob(opts TestOptions) FileJob {
	testsDir := opts.TestsDir
	if testsDir == "" {
		testsDir = TestsDir
	}
	ext := ExtensionFor(opts.Language)
	dest := func(f walker.File) string { return TestFilePath(testsDir, f, ext) }

	return FileJob{
		Action:   "generating tests",
		Announce: "Generating tests for %s",
		Applied:  "Wrote tests to %s",
		Template: opts.Template,
		Fields: func(_ walker.File, code string) prompts.Fields {
			return prompts.Fields{
				prompts.FieldLanguage:  opts.Language,
				prompts.FieldFramework: opts.Framework,
				prompts.FieldCode:      code,
			}
		},
		Mode:        opts.Mode,
		Destination: dest,
		Baseline: func(f walker.File, _ string) ([]string, error) {
			return existingLines(dest(f))
		},
		StripFences: true,
	}
}

// RefactorOptions configures refactoring.
type RefactorOptions struct {
	Language string
	Focus    string
	Template string
	Mode     diff.Mode
}

// RefactorJob rewrites each source file in place.
func RefactorJob(opts RefactorOptions) FileJob {
	return FileJob{
		Action:   "refactoring",
		Announce: "Refactoring %s",
		Applied:  "Wrote refactored code to %s",
		Template: opts.Template,
		Fields: func(_ walker.File, code string) prompts.Fields {
			return prompts.Fields{
				prompts.FieldLanguage: opts.Language,
				prompts.FieldFocus:    opts.Focus,
				prompts.FieldCode:     code,
			}
		},
		Mode:        opts.Mode,
		Destination: func(f walker.File) string { return f.Path },
		Baseline: func(_ walker.File, code string) ([]string, error) {
			return diff.SplitLines(code), nil
		},
		StripFences: true,
	}
}

// SourceWalker walks root for files of language, leaving out package
// markers.
func SourceWalker(root, language string) (*walker.Walker, error) {
	return walker.New(root, ExtensionFor(language), walker.ExcludeNames(PackageMarker))
}
