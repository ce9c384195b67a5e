package prompts

import (
	"strings"

	"github.com/codexautotest/internal/apperr"
)

// Fields maps placeholder names to their substitution values.
type Fields map[string]string

// Dialect selects how placeholders in a template are resolved.
type Dialect int

const (
	// DialectStrict resolves {name} placeholders and fails on any name that is
	// not supplied. {{ and }} produce literal braces.
	DialectStrict Dialect = iota
	// DialectSimple resolves $name and ${name}; unknown names are left in place.
	// $$ produces a literal dollar sign.
	DialectSimple
)

// SimpleMarker selects the simple dialect when present anywhere in a template.
const SimpleMarker = "$"

func (d Dialect) String() string {
	if d == DialectSimple {
		return "simple"
	}
	return "strict"
}

// DetectDialect returns the dialect a template is rendered with.
func DetectDialect(tpl string) Dialect {
	if strings.Contains(tpl, SimpleMarker) {
		return DialectSimple
	}
	return DialectStrict
}

// Render substitutes fields into tpl. It is a pure function of its inputs.
// Fields not referenced by the template are ignored.
func Render(tpl string, fields Fields) (string, error) {
	if DetectDialect(tpl) == DialectSimple {
		return renderSimple(tpl, fields), nil
	}
	return renderStrict(tpl, fields)
}

func renderSimple(tpl string, fields Fields) string {
	var b strings.Builder
	b.Grow(len(tpl))
	for _, tok := range scanSimple(tpl) {
		if tok.name == "" {
			b.WriteString(tok.text)
			continue
		}
		if v, ok := fields[tok.name]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(tok.text)
		}
	}
	return b.String()
}

func renderStrict(tpl string, fields Fields) (string, error) {
	toks, err := scanStrict(tpl)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(len(tpl))
	for _, tok := range toks {
		if tok.name == "" {
			b.WriteString(tok.text)
			continue
		}
		v, ok := fields[tok.name]
		if !ok {
			return "", apperr.New(apperr.KindFormat, "template references unknown field %q", tok.name)
		}
		b.WriteString(v)
	}
	return b.String(), nil
}

// token is either literal text (name == "") or a placeholder whose original
// spelling is kept in text.
type token struct {
	text string
	name string
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func scanSimple(tpl string) []token {
	var toks []token
	lit := 0
	flush := func(end int) {
		if end > lit {
			toks = append(toks, token{text: tpl[lit:end]})
		}
	}
	for i := 0; i < len(tpl); {
		if tpl[i] != '$' || i+1 >= len(tpl) {
			i++
			continue
		}
		next := tpl[i+1]
		switch {
		case next == '$':
			flush(i)
			toks = append(toks, token{text: "$"})
			i += 2
			lit = i
		case next == '{':
			end := strings.IndexByte(tpl[i+2:], '}')
			if end <= 0 || !validIdent(tpl[i+2:i+2+end]) {
				i++
				continue
			}
			flush(i)
			stop := i + 2 + end + 1
			toks = append(toks, token{text: tpl[i:stop], name: tpl[i+2 : i+2+end]})
			i = stop
			lit = i
		case isIdentStart(next):
			j := i + 1
			for j < len(tpl) && isIdentChar(tpl[j]) {
				j++
			}
			flush(i)
			toks = append(toks, token{text: tpl[i:j], name: tpl[i+1 : j]})
			i = j
			lit = i
		default:
			i++
		}
	}
	flush(len(tpl))
	return toks
}

func validIdent(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return false
		}
	}
	return true
}

func scanStrict(tpl string) ([]token, error) {
	var toks []token
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			toks = append(toks, token{text: lit.String()})
			lit.Reset()
		}
	}
	for i := 0; i < len(tpl); i++ {
		c := tpl[i]
		switch c {
		case '{':
			if i+1 < len(tpl) && tpl[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tpl[i+1:], '}')
			if end < 0 {
				return nil, apperr.New(apperr.KindFormat, "single '{' encountered in template")
			}
			field := tpl[i+1 : i+1+end]
			name := fieldName(field)
			if name == "" {
				return nil, apperr.New(apperr.KindFormat, "template placeholder {%s} has no field name", field)
			}
			flush()
			toks = append(toks, token{text: tpl[i : i+2+end], name: name})
			i += end + 1
		case '}':
			if i+1 < len(tpl) && tpl[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return nil, apperr.New(apperr.KindFormat, "single '}' encountered in template")
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return toks, nil
}

// fieldName strips conversion, format spec, attribute and index suffixes from
// a strict placeholder body: "code!r:>10" -> "code".
func fieldName(field string) string {
	if i := strings.IndexAny(field, "!:.["); i >= 0 {
		field = field[:i]
	}
	return strings.TrimSpace(field)
}
