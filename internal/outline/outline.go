// Package outline extracts the structural outline of a source file: its
// definitions, where their bodies start and whether they are documented.
package outline

import (
	"path/filepath"
	"strings"
)

// Kind is the construct a definition represents.
type Kind string

const (
	KindFunction Kind = "function"
	KindClass    Kind = "class"
	KindMethod   Kind = "method"
)

// Definition is one entry of a file outline. Line numbers are 1-based.
type Definition struct {
	Kind Kind
	Name string
	// HeaderLine is the line holding the def/class keyword.
	HeaderLine int
	// BodyStart is the line of the first body statement, or 0 when the body
	// has no statements.
	BodyStart int
	// EndLine is the last line of the definition.
	EndLine int
	// Documented is true when the body opens with a documentation literal.
	Documented bool
	// Children holds the direct child methods of a class.
	Children []Definition
}

// Extractor produces the top-level definitions of a file in source order.
// Implementations fail with an apperr ParseError on malformed input.
type Extractor interface {
	Extract(content string) ([]Definition, error)
}

// Language binds an extractor to the file extensions it understands and to the
// delimiter its documentation literals use.
type Language struct {
	Name       string
	Extensions []string
	DocQuote   string
	Extractor  Extractor
}

var languages []Language

// Register makes a language available to ForPath and Languages.
func Register(l Language) {
	languages = append(languages, l)
}

// ForPath returns the language handling path's extension.
func ForPath(path string) (Language, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, l := range languages {
		for _, e := range l.Extensions {
			if e == ext {
				return l, true
			}
		}
	}
	return Language{}, false
}

// Languages returns every registered language.
func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

func init() {
	Register(Language{
		Name:       "python",
		Extensions: []string{".py"},
		DocQuote:   `"""`,
		Extractor:  PythonExtractor{},
	})
}
