package diff

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// LineKind classifies one line of a hunk.
type LineKind int

const (
	LineContext LineKind = iota
	LineAdd
	LineRemove
)

func (k LineKind) String() string {
	switch k {
	case LineAdd:
		return "add"
	case LineRemove:
		return "remove"
	default:
		return "context"
	}
}

// Line is a single diff record.
type Line struct {
	Kind    LineKind
	Content string
}

// Hunk is one @@ block of a unified diff.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// FileDiff holds the hunks for one pair of source and destination labels.
type FileDiff struct {
	From  string
	To    string
	Hunks []Hunk
}

// Stats counts added and removed lines across all hunks.
func (f *FileDiff) Stats() (added, removed int) {
	for _, h := range f.Hunks {
		for _, l := range h.Lines {
			switch l.Kind {
			case LineAdd:
				added++
			case LineRemove:
				removed++
			}
		}
	}
	return added, removed
}

// Hunk counts are optional: a one-line range is written without them.
var hunkHeader = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// Parser parses unified diff text, as produced by git, mutmut or this
// package's own Engine, into FileDiff records.
type Parser struct{}

// NewParser creates a new diff parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses a unified diff into one FileDiff per file section.
func (p *Parser) Parse(diffText string) ([]*FileDiff, error) {
	if strings.TrimSpace(diffText) == "" {
		return nil, nil
	}

	lines := strings.Split(strings.TrimSuffix(diffText, "\n"), "\n")

	var (
		files   []*FileDiff
		cur     *FileDiff
		git     bool
		hunk    *Hunk
		oldLeft int
		newLeft int
	)
	startFile := func() {
		cur = &FileDiff{}
		files = append(files, cur)
		hunk = nil
	}

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSuffix(lines[i], "\r")

		if hunk != nil && (oldLeft > 0 || newLeft > 0) {
			switch {
			case strings.HasPrefix(line, "+"):
				hunk.Lines = append(hunk.Lines, Line{Kind: LineAdd, Content: line[1:]})
				newLeft--
			case strings.HasPrefix(line, "-"):
				hunk.Lines = append(hunk.Lines, Line{Kind: LineRemove, Content: line[1:]})
				oldLeft--
			case strings.HasPrefix(line, " "), line == "":
				hunk.Lines = append(hunk.Lines, Line{Kind: LineContext, Content: strings.TrimPrefix(line, " ")})
				oldLeft--
				newLeft--
			case strings.HasPrefix(line, `\`):
				// "\ No newline at end of file"
			default:
				return nil, fmt.Errorf("unexpected line %d inside hunk: %q", i+1, line)
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "diff --git "):
			startFile()
			git = true
			cur.From, cur.To = p.extractGitPaths(line)
		case strings.HasPrefix(line, "--- ") && i+1 < len(lines) && strings.HasPrefix(lines[i+1], "+++ "):
			if cur == nil || len(cur.Hunks) > 0 || !git {
				startFile()
				git = false
			}
			cur.From = p.extractFilePath(line[4:], git)
			cur.To = p.extractFilePath(strings.TrimSuffix(lines[i+1], "\r")[4:], git)
			i++
		case strings.HasPrefix(line, "@@ "):
			h, err := p.parseHunkHeader(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
			if cur == nil {
				startFile()
			}
			cur.Hunks = append(cur.Hunks, h)
			hunk = &cur.Hunks[len(cur.Hunks)-1]
			oldLeft, newLeft = h.OldCount, h.NewCount
		default:
			// index, mode and similarity lines carry nothing we need
		}
	}

	if hunk != nil && (oldLeft > 0 || newLeft > 0) {
		return nil, fmt.Errorf("truncated hunk: %d old and %d new lines missing", oldLeft, newLeft)
	}
	return files, nil
}

// extractGitPaths extracts both paths from a "diff --git a/x b/y" line.
func (p *Parser) extractGitPaths(line string) (string, string) {
	rest := strings.TrimPrefix(line, "diff --git ")
	if idx := strings.Index(rest, " b/"); idx >= 0 {
		return strings.TrimPrefix(rest[:idx], "a/"), rest[idx+3:]
	}
	return rest, rest
}

// extractFilePath extracts the label from a ---/+++ header, dropping any
// timestamp and, for git diffs, the a/ or b/ prefix.
func (p *Parser) extractFilePath(header string, git bool) string {
	if idx := strings.Index(header, "\t"); idx >= 0 {
		header = header[:idx]
	}
	if git && header != "/dev/null" && len(header) > 2 && (header[:2] == "a/" || header[:2] == "b/") {
		return header[2:]
	}
	return header
}

func (p *Parser) parseHunkHeader(line string) (Hunk, error) {
	m := hunkHeader.FindStringSubmatch(line)
	if m == nil {
		return Hunk{}, fmt.Errorf("malformed hunk header %q", line)
	}
	count := func(s string) int {
		if s == "" {
			return 1
		}
		n, _ := strconv.Atoi(s)
		return n
	}
	oldStart, _ := strconv.Atoi(m[1])
	newStart, _ := strconv.Atoi(m[3])
	return Hunk{
		OldStart: oldStart,
		OldCount: count(m[2]),
		NewStart: newStart,
		NewCount: count(m[4]),
	}, nil
}
