package prompts

// Placeholder is a single placeholder occurrence in a template.
type Placeholder struct {
	Raw  string
	Name string
}

// ParsePlaceholders returns all placeholder occurrences in order of appearance,
// using the dialect the template would be rendered with. A strict template that
// does not scan cleanly returns the scan error.
func ParsePlaceholders(tpl string) ([]Placeholder, error) {
	var toks []token
	if DetectDialect(tpl) == DialectSimple {
		toks = scanSimple(tpl)
	} else {
		var err error
		toks, err = scanStrict(tpl)
		if err != nil {
			return nil, err
		}
	}
	out := make([]Placeholder, 0, len(toks))
	for _, t := range toks {
		if t.name != "" {
			out = append(out, Placeholder{Raw: t.text, Name: t.name})
		}
	}
	return out, nil
}

// UnknownFields lists placeholder names in tpl that are not part of vocab,
// each reported once in order of first appearance.
func UnknownFields(tpl string, vocab []string) ([]string, error) {
	phs, err := ParsePlaceholders(tpl)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(vocab))
	for _, v := range vocab {
		known[v] = true
	}
	seen := map[string]bool{}
	var unknown []string
	for _, ph := range phs {
		if known[ph.Name] || seen[ph.Name] {
			continue
		}
		seen[ph.Name] = true
		unknown = append(unknown, ph.Name)
	}
	return unknown, nil
}
