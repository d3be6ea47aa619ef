package pycode

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax reports candidate code that does not parse as Python.
	ErrSyntax = errors.New("code does not parse as valid python")

	// ErrFunctionMissing reports candidate code with no definition header
	// for the target function.
	ErrFunctionMissing = errors.New("target function definition not found")
)

// Validate accepts candidate code iff it parses as well-formed Python and
// still defines the named function. Truncated generation output fails the
// parse check; renamed or dropped functions fail the header check.
func Validate(code, name string) error {
	content := []byte(code)
	tree, err := parse(content)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return ErrSyntax
	}
	if findFunction(root, content, name) == nil {
		return ErrFunctionMissing
	}
	return nil
}
