// Package healer orchestrates the healing pipeline: classify a failure, try
// the deterministic rules, fall back to code generation, validate, diff, and
// record the outcome.
package healer

import (
	"time"

	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/diff"
	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/failure"
)

// Method identifies which healing strategy produced a result.
type Method string

const (
	MethodRuleBased Method = "rule_based"
	MethodAIPowered Method = "ai_powered"
)

// DefaultThreshold is the confidence at or above which a healed result is
// applied without human review.
const DefaultThreshold = 0.75

// Request is the wire-level healing request consumed from callers.
type Request struct {
	TestSource     string         `json:"test_source"`
	TestName       string         `json:"test_name"`
	Failure        RequestFailure `json:"failure"`
	ActualResponse map[string]any `json:"actual_response,omitempty"`
}

// RequestFailure carries the failure evidence. FailureKind is optional: it is
// honored when it parses to a known kind and otherwise the engine classifies
// from the error message.
type RequestFailure struct {
	ErrorMessage string `json:"error_message"`
	FailureKind  string `json:"failure_kind,omitempty"`
}

// Candidate is a proposed repair that has not yet been accepted.
type Candidate struct {
	Code       string
	Confidence float64
	Method     Method
}

// Result is the terminal record of one healing attempt. Immutable once
// created; appended to history exactly once per invocation.
type Result struct {
	ID          string       `json:"id"`
	TestName    string       `json:"test_name"`
	Timestamp   time.Time    `json:"timestamp"`
	FailureKind failure.Kind `json:"failure_kind"`
	BeforeCode  string       `json:"before_code"`
	AfterCode   string       `json:"after_code"`
	Confidence  float64      `json:"confidence"`
	Method      Method       `json:"method"`
	AutoApplied bool         `json:"auto_applied"`
	Changes     []diff.Entry `json:"changes"`
}

// Healed reports whether the attempt produced a change.
func (r Result) Healed() bool {
	return r.Confidence > 0
}

// HealResult is the wire-level response shape.
type HealResult struct {
	HealedCode string   `json:"healed_code"`
	Metadata   Metadata `json:"metadata"`
}

// Metadata is the wire-level result metadata.
type Metadata struct {
	Confidence  float64      `json:"confidence"`
	Method      Method       `json:"method"`
	AutoApplied bool         `json:"auto_applied"`
	Changes     []diff.Entry `json:"changes"`
}

// Wire converts a Result to the response contract shape.
func (r Result) Wire() HealResult {
	changes := r.Changes
	if changes == nil {
		changes = []diff.Entry{}
	}
	return HealResult{
		HealedCode: r.AfterCode,
		Metadata: Metadata{
			Confidence:  r.Confidence,
			Method:      r.Method,
			AutoApplied: r.AutoApplied,
			Changes:     changes,
		},
	}
}
