package rules

import (
	"fmt"
	"regexp"
)

// The failure evidence presents status codes as "assert <actual> == <expected>"
// (or "<actual> != <expected>"): the second number is what the test asserts,
// the first is what the service returned. That orientation comes from the
// evidence format and is preserved as-given, never inferred semantically.
var (
	statusEqPattern  = regexp.MustCompile(`assert\s+(\d{3})\s*==\s*(\d{3})`)
	statusNeqPattern = regexp.MustCompile(`(\d{3})\s*!=\s*(\d{3})`)
)

// extractStatusCodes pulls the (actual, expected) status-code pair out of
// failure text. Reports false when no recognizable pair is present.
func extractStatusCodes(text string) (actual, expected string, ok bool) {
	if m := statusEqPattern.FindStringSubmatch(text); m != nil {
		return m[1], m[2], true
	}
	if m := statusNeqPattern.FindStringSubmatch(text); m != nil {
		return m[1], m[2], true
	}
	return "", "", false
}

// applyStatusCode rewrites every status-code assertion against expected to
// assert actual instead. Covers the plain comparison form and the tuple-style
// "response.status_code, <expected>" form used by assertEqual-like helpers.
func applyStatusCode(code, expected, actual string) string {
	assertion := regexp.MustCompile(`assert\s+response\.status_code\s*==\s*` + expected + `\b`)
	code = assertion.ReplaceAllString(code, "assert response.status_code == "+actual)

	tuple := regexp.MustCompile(`response\.status_code\s*,\s*` + expected + `\b`)
	code = tuple.ReplaceAllString(code, fmt.Sprintf("response.status_code, %s", actual))

	return code
}
