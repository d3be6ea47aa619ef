// Package rules implements the deterministic healing rules applied before
// any external code generation is considered.
package rules

import (
	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/diff"
	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/failure"
)

// Fixed per-rule confidence.
const (
	ConfidenceStatusCode  = 0.90
	ConfidenceFieldRename = 0.80
	ConfidenceValue       = 0.75
)

// Rule names as reported on candidates.
const (
	RuleStatusCode  = "status_code"
	RuleFieldRename = "field_rename"
	RuleValue       = "value_substitution"
)

// Candidate is a proposed repair produced by one rule.
type Candidate struct {
	Code       string
	Confidence float64
	Rule       string
}

// Healer runs the transformation rules in fixed priority order. Rules are
// pure functions of (code, failure, actual response); the healer itself
// holds only tuning knobs.
type Healer struct {
	minSimilarity float64
	differ        *diff.Engine
}

const defaultMinSimilarity = 0.6

// NewHealer creates a rule healer. minSimilarity tunes the field-rename
// rule's matching floor; zero or negative selects the default 0.6.
func NewHealer(minSimilarity float64) *Healer {
	if minSimilarity <= 0 {
		minSimilarity = defaultMinSimilarity
	}
	return &Healer{
		minSimilarity: minSimilarity,
		differ:        diff.DefaultEngine,
	}
}

// Heal applies each rule in priority order and returns the first candidate
// whose transformation actually changed the code. No blending: later rules
// never see earlier rules' output. Reports false when no rule changed
// anything, never a zero-confidence candidate.
func (h *Healer) Heal(code string, f failure.Failure, actual map[string]any) (Candidate, bool) {
	if code == "" {
		return Candidate{}, false
	}

	if actualCode, expectedCode, ok := extractStatusCodes(f.ErrorMessage); ok {
		if healed := applyStatusCode(code, expectedCode, actualCode); healed != code {
			return Candidate{Code: healed, Confidence: ConfidenceStatusCode, Rule: RuleStatusCode}, true
		}
	}

	if f.Kind == failure.SchemaChange {
		if missing, ok := extractMissingKey(f.ErrorMessage); ok {
			if resolved, ok := h.resolveKey(missing, actual); ok {
				if healed := applyKeyRename(code, missing, resolved); healed != code {
					return Candidate{Code: healed, Confidence: ConfidenceFieldRename, Rule: RuleFieldRename}, true
				}
			}
		}
	}

	if f.Kind == failure.ValueMismatch {
		if actualVal, expectedVal, ok := extractValuePair(f.ErrorMessage); ok {
			if healed := applyValue(code, expectedVal, actualVal); healed != code {
				return Candidate{Code: healed, Confidence: ConfidenceValue, Rule: RuleValue}, true
			}
		}
	}

	return Candidate{}, false
}
