package rules

import (
	"regexp"
	"strings"
)

// valuePattern captures the two operands of an "assert <actual> == <expected>"
// fragment. Operands are single tokens or quoted strings; quoted forms may
// contain spaces. As with status codes, the right-hand side is what the test
// expects and the left-hand side is what the service produced.
var valuePattern = regexp.MustCompile(`assert\s+('[^']*'|"[^"]*"|\S+)\s*==\s*('[^']*'|"[^"]*"|\S+)`)

// extractValuePair pulls the (actual, expected) literal pair from failure
// text, with surrounding quotes stripped so substitution can re-quote per
// occurrence.
func extractValuePair(text string) (actual, expected string, ok bool) {
	m := valuePattern.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	return unquote(m[1]), unquote(m[2]), true
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// applyValue rewrites "== <expected>" comparisons to the actual value in all
// three spellings: bare, single-quoted, and double-quoted.
func applyValue(code, expected, actual string) string {
	code = strings.ReplaceAll(code, "== '"+expected+"'", "== '"+actual+"'")
	code = strings.ReplaceAll(code, `== "`+expected+`"`, `== "`+actual+`"`)

	bare := regexp.MustCompile(`==\s+` + regexp.QuoteMeta(expected) + `\b`)
	code = bare.ReplaceAllString(code, "== "+actual)

	return code
}
