// Package history keeps the append-only record of healing attempts and the
// per-(failure kind, test) recurrence aggregates built from it.
package history

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/failure"
	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/healer"
)

// Pattern aggregates how often a failure kind recurs for one test. Entries
// are created on first occurrence and only ever grow; none is deleted within
// a process lifetime.
type Pattern struct {
	FailureKind failure.Kind `json:"failure_kind"`
	TestName    string       `json:"test_name"`
	Count       int          `json:"count"`
	FirstSeen   time.Time    `json:"first_seen"`
	LastSeen    time.Time    `json:"last_seen"`
}

// Summary is a point-in-time aggregate over every recorded attempt.
type Summary struct {
	TotalAttempts    int             `json:"total_attempts"`
	AutoApplied      int             `json:"auto_applied"`
	AutoAppliedRatio float64         `json:"auto_applied_ratio"`
	MeanConfidence   float64         `json:"mean_confidence"`
	Attempts         []healer.Result `json:"attempts"`
}

type patternKey struct {
	kind failure.Kind
	test string
}

// History is the one shared mutable resource of the engine. Record is atomic
// with respect to concurrent callers: the attempt append and the pattern
// update are observed together.
type History struct {
	mu       sync.Mutex
	attempts []healer.Result
	patterns map[patternKey]*Pattern

	store  *Store
	logger *zap.Logger
}

// New creates an empty history. store is optional; when present every record
// is written through, and store failures are logged rather than surfaced.
func New(store *Store, logger *zap.Logger) *History {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &History{
		patterns: make(map[patternKey]*Pattern),
		store:    store,
		logger:   logger,
	}
}

// Record appends r unconditionally (no dedup) and updates the matching
// pattern under one lock.
func (h *History) Record(r healer.Result) {
	h.mu.Lock()
	h.attempts = append(h.attempts, r)

	key := patternKey{kind: r.FailureKind, test: r.TestName}
	p, ok := h.patterns[key]
	if !ok {
		p = &Pattern{FailureKind: r.FailureKind, TestName: r.TestName, FirstSeen: r.Timestamp}
		h.patterns[key] = p
	}
	if p.Count == 0 {
		p.FirstSeen = r.Timestamp
	}
	p.Count++
	p.LastSeen = r.Timestamp
	h.mu.Unlock()

	if h.store != nil {
		if err := h.store.SaveAttempt(r); err != nil {
			h.logger.Warn("history store write failed", zap.String("test", r.TestName), zap.Error(err))
		}
		if err := h.store.UpsertPattern(r.FailureKind, r.TestName, r.Timestamp); err != nil {
			h.logger.Warn("pattern store write failed", zap.String("test", r.TestName), zap.Error(err))
		}
	}
}

// Summary returns the aggregate statistics and the full ordered history.
func (h *History) Summary() Summary {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := Summary{
		TotalAttempts: len(h.attempts),
		Attempts:      append([]healer.Result(nil), h.attempts...),
	}
	if s.TotalAttempts == 0 {
		return s
	}

	var confidenceSum float64
	for _, r := range h.attempts {
		if r.AutoApplied {
			s.AutoApplied++
		}
		confidenceSum += r.Confidence
	}
	s.AutoAppliedRatio = float64(s.AutoApplied) / float64(s.TotalAttempts)
	s.MeanConfidence = confidenceSum / float64(s.TotalAttempts)
	return s
}

// PatternFor returns the current aggregate for (kind, testName), registering
// a zero-count pattern when absent so later records find it.
func (h *History) PatternFor(kind failure.Kind, testName string) Pattern {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := patternKey{kind: kind, test: testName}
	p, ok := h.patterns[key]
	if !ok {
		p = &Pattern{FailureKind: kind, TestName: testName}
		h.patterns[key] = p
	}
	return *p
}

// Patterns returns a snapshot of every aggregate, including zero-count
// registrations.
func (h *History) Patterns() []Pattern {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Pattern, 0, len(h.patterns))
	for _, p := range h.patterns {
		out = append(out, *p)
	}
	return out
}
