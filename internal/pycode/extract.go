// Package pycode isolates and validates Python test functions.
// It uses Tree-sitter for accurate AST spans; a line scan covers sources
// the parser cannot handle.
package pycode

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

func parse(content []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	return parser.ParseCtx(context.Background(), nil, content)
}

// ExtractFunction isolates the named function from source, decorators
// included. The span closes with the definition itself, so extraction always
// stops before the next top-level definition. Returns "" when the function
// is absent.
func ExtractFunction(source, name string) string {
	if name == "" {
		return ""
	}

	content := []byte(source)
	tree, err := parse(content)
	if err != nil {
		return scanFunction(source, name)
	}
	defer tree.Close()

	node := findFunction(tree.RootNode(), content, name)
	if node == nil {
		return ""
	}
	return string(content[node.StartByte():node.EndByte()])
}

// Functions lists every function name defined in source, in document order.
func Functions(source string) []string {
	content := []byte(source)
	tree, err := parse(content)
	if err != nil {
		return nil
	}
	defer tree.Close()

	var names []string
	collectFunctions(tree.RootNode(), content, &names)
	return names
}

// findFunction walks the AST in document order and returns the first
// definition of name. Decorated definitions resolve to the wrapper node so
// decorators stay part of the extracted span.
func findFunction(node *sitter.Node, content []byte, name string) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)

		switch child.Type() {
		case "function_definition":
			if functionName(child, content) == name {
				return child
			}
		case "decorated_definition":
			if def := decoratedFunction(child); def != nil && functionName(def, content) == name {
				return child
			}
		}

		if found := findFunction(child, content, name); found != nil {
			return found
		}
	}
	return nil
}

func collectFunctions(node *sitter.Node, content []byte, names *[]string) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "function_definition" {
			if name := functionName(child, content); name != "" {
				*names = append(*names, name)
			}
		}
		collectFunctions(child, content, names)
	}
}

func functionName(def *sitter.Node, content []byte) string {
	nameNode := def.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	return string(content[nameNode.StartByte():nameNode.EndByte()])
}

func decoratedFunction(node *sitter.Node) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if inner := node.NamedChild(i); inner.Type() == "function_definition" {
			return inner
		}
	}
	return nil
}

// scanFunction is the degraded extraction path: take lines from the def
// header (plus decorators directly above it) up to the next definition at
// the same or lower indentation, or end of input.
func scanFunction(source, name string) string {
	lines := strings.Split(source, "\n")

	start := -1
	indent := 0
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, "def "+name+"(") || strings.HasPrefix(trimmed, "async def "+name+"(") {
			start = i
			indent = len(line) - len(trimmed)
			break
		}
	}
	if start == -1 {
		return ""
	}

	first := start
	for first > 0 && strings.HasPrefix(strings.TrimSpace(lines[first-1]), "@") {
		first--
	}

	end := len(lines)
	for i := start + 1; i < len(lines); i++ {
		trimmed := strings.TrimLeft(lines[i], " \t")
		if trimmed == "" {
			continue
		}
		if len(lines[i])-len(trimmed) > indent {
			continue
		}
		if strings.HasPrefix(trimmed, "def ") || strings.HasPrefix(trimmed, "async def ") ||
			strings.HasPrefix(trimmed, "class ") || strings.HasPrefix(trimmed, "@") {
			end = i
			break
		}
	}
	for end > start+1 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}

	return strings.Join(lines[first:end], "\n")
}
