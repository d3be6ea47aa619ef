package rules

import (
	"regexp"
	"sort"
	"strings"
)

var keyErrorPattern = regexp.MustCompile(`KeyError:\s*['"]([^'"]+)['"]`)

// extractMissingKey pulls the offending key name from a KeyError fragment of
// the failure text.
func extractMissingKey(text string) (string, bool) {
	if m := keyErrorPattern.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	return "", false
}

// resolveKey finds the response key the missing key was most likely renamed
// to. Case-insensitive exact match wins; otherwise the best key with
// similarity >= the healer's floor. Keys are visited in sorted order so the
// tie-break is deterministic (Go maps have no iteration order to preserve).
func (h *Healer) resolveKey(missing string, actual map[string]any) (string, bool) {
	if len(actual) == 0 {
		return "", false
	}

	keys := make([]string, 0, len(actual))
	for k := range actual {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if strings.EqualFold(k, missing) {
			return k, true
		}
	}

	best := ""
	bestScore := 0.0
	for _, k := range keys {
		if score := h.differ.Ratio(strings.ToLower(missing), strings.ToLower(k)); score > bestScore {
			best = k
			bestScore = score
		}
	}
	if bestScore < h.minSimilarity {
		return "", false
	}
	return best, true
}

// applyKeyRename rewrites both bracket-subscript spellings of old to the
// resolved key, preserving the quote style of each occurrence.
func applyKeyRename(code, old, resolved string) string {
	code = strings.ReplaceAll(code, "['"+old+"']", "['"+resolved+"']")
	code = strings.ReplaceAll(code, `["`+old+`"]`, `["`+resolved+`"]`)
	return code
}
