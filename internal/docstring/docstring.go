// Package docstring finds definitions that lack documentation and splices
// generated documentation blocks into a copy of the source lines.
package docstring

import (
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/codexautotest/internal/diff"
	"github.com/codexautotest/internal/outline"
)

// Site is a place where a documentation block is missing.
type Site struct {
	// Line is the 1-based line of the first body statement. The block is
	// inserted before it.
	Line    int
	Kind    outline.Kind
	Name    string
	Snippet string
}

// Insertion pairs a site with the documentation text to place there.
type Insertion struct {
	Site Site
	Doc  string
}

// Locate returns the undocumented definitions of content, sorted by Line
// descending so that applying them in order never shifts a pending site.
func Locate(content string, ex outline.Extractor) ([]Site, error) {
	defs, err := ex.Extract(content)
	if err != nil {
		return nil, err
	}

	lines := diff.SplitLines(content)
	var sites []Site
	for _, def := range defs {
		if site, ok := siteFor(def, lines); ok {
			sites = append(sites, site)
		}
		if def.Kind != outline.KindClass {
			continue
		}
		for _, child := range def.Children {
			if site, ok := siteFor(child, lines); ok {
				sites = append(sites, site)
			}
		}
	}

	sort.SliceStable(sites, func(i, j int) bool {
		return sites[i].Line > sites[j].Line
	})
	return sites, nil
}

// siteFor skips documented definitions, empty bodies and bodies that share
// the header line, since none of those have a line to insert before.
func siteFor(def outline.Definition, lines []string) (Site, bool) {
	if def.Documented || def.BodyStart == 0 {
		return Site{}, false
	}
	if def.BodyStart <= def.HeaderLine {
		log.Debug().Str("name", def.Name).Int("line", def.HeaderLine).Msg("Skipping one-line definition")
		return Site{}, false
	}
	if def.BodyStart > len(lines) {
		return Site{}, false
	}
	end := min(def.EndLine, len(lines))
	return Site{
		Line:    def.BodyStart,
		Kind:    def.Kind,
		Name:    def.Name,
		Snippet: strings.Join(lines[def.HeaderLine-1:end], "\n"),
	}, true
}

// Normalize trims doc and wraps it in quote unless it is already wrapped.
func Normalize(doc, quote string) string {
	doc = strings.TrimSpace(doc)
	if len(doc) >= 2*len(quote) && strings.HasPrefix(doc, quote) && strings.HasSuffix(doc, quote) {
		return doc
	}
	return quote + doc + quote
}

// Apply splices every insertion into a copy of lines and returns the copy.
// Each block is indented like the original line at its site. lines itself is
// not modified.
func Apply(lines []string, insertions []Insertion) []string {
	ordered := make([]Insertion, len(insertions))
	copy(ordered, insertions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Site.Line > ordered[j].Site.Line
	})

	out := make([]string, len(lines))
	copy(out, lines)
	for _, ins := range ordered {
		at := ins.Site.Line - 1
		if at < 0 || at >= len(lines) {
			continue
		}
		block := indentBlock(ins.Doc, leadingSpace(lines[at]))
		out = append(out[:at], append(block, out[at:]...)...)
	}
	return out
}

func indentBlock(doc, indent string) []string {
	docLines := strings.Split(doc, "\n")
	block := make([]string, len(docLines))
	for i, l := range docLines {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			block[i] = ""
			continue
		}
		block[i] = indent + l
	}
	return block
}

func leadingSpace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
