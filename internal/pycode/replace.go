package pycode

import "strings"

// ReplaceFunction returns source with the named function's span (decorators
// included) swapped for healed. The rest of the file is untouched. Reports
// false when the function is absent.
func ReplaceFunction(source, name, healed string) (string, bool) {
	content := []byte(source)
	tree, err := parse(content)
	if err != nil {
		return source, false
	}
	defer tree.Close()

	node := findFunction(tree.RootNode(), content, name)
	if node == nil {
		return source, false
	}

	healed = strings.TrimRight(healed, "\n")
	var sb strings.Builder
	sb.Write(content[:node.StartByte()])
	sb.WriteString(healed)
	sb.Write(content[node.EndByte():])
	return sb.String(), true
}
