package outline

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/codexautotest/internal/apperr"
)

// PythonExtractor outlines Python source using Tree-sitter. It reports module
// level functions and classes, and the methods defined directly in each class
// body. Deeper nesting is not visited.
type PythonExtractor struct{}

// Extract parses content and returns its top-level definitions.
func (PythonExtractor) Extract(content string) ([]Definition, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	src := []byte(content)
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindParse, "parse failed")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		if line := firstErrorLine(root); line > 0 {
			return nil, apperr.New(apperr.KindParse, "syntax error near line %d", line)
		}
		return nil, apperr.New(apperr.KindParse, "syntax error")
	}

	var defs []Definition
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := unwrapDecorated(root.NamedChild(i))
		switch node.Type() {
		case "function_definition":
			defs = append(defs, pythonDefinition(node, src, KindFunction))
		case "class_definition":
			class := pythonDefinition(node, src, KindClass)
			class.Children = pythonMethods(node, src)
			defs = append(defs, class)
		}
	}
	return defs, nil
}

// unwrapDecorated returns the function or class a decorated_definition wraps.
func unwrapDecorated(node *sitter.Node) *sitter.Node {
	if node.Type() != "decorated_definition" {
		return node
	}
	if def := node.ChildByFieldName("definition"); def != nil {
		return def
	}
	return node
}

func pythonMethods(class *sitter.Node, src []byte) []Definition {
	body := class.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	var methods []Definition
	for i := 0; i < int(body.NamedChildCount()); i++ {
		node := unwrapDecorated(body.NamedChild(i))
		if node.Type() == "function_definition" {
			methods = append(methods, pythonDefinition(node, src, KindMethod))
		}
	}
	return methods
}

func pythonDefinition(node *sitter.Node, src []byte, kind Kind) Definition {
	def := Definition{
		Kind:       kind,
		HeaderLine: int(node.StartPoint().Row) + 1,
		EndLine:    int(node.EndPoint().Row) + 1,
	}
	if name := node.ChildByFieldName("name"); name != nil {
		def.Name = name.Content(src)
	}
	first := firstStatement(node.ChildByFieldName("body"))
	if first == nil {
		return def
	}
	def.BodyStart = int(first.StartPoint().Row) + 1
	def.Documented = isDocLiteral(first, src)
	return def
}

// firstStatement returns the first non-comment statement of a block.
func firstStatement(body *sitter.Node) *sitter.Node {
	if body == nil {
		return nil
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child.Type() != "comment" {
			return child
		}
	}
	return nil
}

// isDocLiteral reports whether stmt is a plain string expression. f-strings
// and bytes literals are not docstrings.
func isDocLiteral(stmt *sitter.Node, src []byte) bool {
	if stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
		return false
	}
	lit := stmt.NamedChild(0)
	switch lit.Type() {
	case "string":
		return plainString(lit, src)
	case "concatenated_string":
		for i := 0; i < int(lit.NamedChildCount()); i++ {
			part := lit.NamedChild(i)
			if part.Type() == "string" && !plainString(part, src) {
				return false
			}
		}
		return true
	}
	return false
}

// plainString checks the literal's prefix, the text before its first quote.
func plainString(lit *sitter.Node, src []byte) bool {
	text := lit.Content(src)
	prefix := text[:max(strings.IndexAny(text, `"'`), 0)]
	return !strings.ContainsAny(prefix, "fFbB")
}

func firstErrorLine(node *sitter.Node) int {
	if node.Type() == "ERROR" || node.IsMissing() {
		return int(node.StartPoint().Row) + 1
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || !child.HasError() && child.Type() != "ERROR" && !child.IsMissing() {
			continue
		}
		if line := firstErrorLine(child); line > 0 {
			return line
		}
	}
	return 0
}
