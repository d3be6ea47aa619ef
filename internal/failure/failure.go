// Package failure classifies raw test-failure text into a closed set of
// failure kinds used to select healing strategies.
package failure

import "strings"

// Kind is the closed set of failure categories the healing engine understands.
type Kind string

const (
	StatusCodeMismatch Kind = "status_code_mismatch"
	SchemaChange       Kind = "schema_change"
	ValueMismatch      Kind = "value_mismatch"
	ConnectionIssue    Kind = "connection_issue"
	TypeMismatch       Kind = "type_mismatch"
	Unknown            Kind = "unknown"
)

// Failure is one observed test failure. Kind is always derived via Classify
// (or validated through ParseKind), never taken from caller text as-is.
// Immutable once constructed.
type Failure struct {
	TestName     string `json:"test_name"`
	ErrorMessage string `json:"error_message"`
	Kind         Kind   `json:"failure_kind"`
}

// Classify maps raw failure text to exactly one Kind. Matching is
// case-insensitive substring testing in fixed order; the first match wins.
// Total: every input, including empty text, yields a Kind.
func Classify(errorMessage string) Kind {
	msg := strings.ToLower(errorMessage)
	hasAssert := strings.Contains(msg, "assert")

	switch {
	case hasAssert && strings.Contains(msg, "status"):
		return StatusCodeMismatch
	case strings.Contains(msg, "keyerror"), hasAssert && strings.Contains(msg, "key"):
		return SchemaChange
	case hasAssert:
		return ValueMismatch
	case strings.Contains(msg, "connectionerror"), strings.Contains(msg, "timeout"):
		return ConnectionIssue
	case strings.Contains(msg, "typeerror"):
		return TypeMismatch
	default:
		return Unknown
	}
}

// ParseKind parses a wire-format kind name. Callers that already classified a
// failure upstream may pass the kind through; unrecognized names report false
// and the engine reclassifies from the error message instead.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case StatusCodeMismatch, SchemaChange, ValueMismatch, ConnectionIssue, TypeMismatch, Unknown:
		return k, true
	}
	return Unknown, false
}
