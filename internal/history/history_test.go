package history

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/failure"
	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/healer"
)

func attempt(test string, kind failure.Kind, confidence float64, auto bool) healer.Result {
	return healer.Result{
		ID:          fmt.Sprintf("id-%s-%d", test, time.Now().UnixNano()),
		TestName:    test,
		Timestamp:   time.Now().UTC(),
		FailureKind: kind,
		Confidence:  confidence,
		Method:      healer.MethodRuleBased,
		AutoApplied: auto,
	}
}

func TestSummary_ExactRatio(t *testing.T) {
	h := New(nil, nil)

	// 5 attempts, 3 auto-applied.
	h.Record(attempt("test_a", failure.StatusCodeMismatch, 0.90, true))
	h.Record(attempt("test_a", failure.StatusCodeMismatch, 0.90, true))
	h.Record(attempt("test_b", failure.SchemaChange, 0.80, true))
	h.Record(attempt("test_c", failure.ValueMismatch, 0.70, false))
	h.Record(attempt("test_d", failure.Unknown, 0, false))

	s := h.Summary()
	if s.TotalAttempts != 5 {
		t.Errorf("TotalAttempts = %d, want 5", s.TotalAttempts)
	}
	if s.AutoApplied != 3 {
		t.Errorf("AutoApplied = %d, want 3", s.AutoApplied)
	}
	if s.AutoAppliedRatio != 3.0/5.0 {
		t.Errorf("AutoAppliedRatio = %v, want %v", s.AutoAppliedRatio, 3.0/5.0)
	}
	want := (0.90 + 0.90 + 0.80 + 0.70 + 0) / 5
	if s.MeanConfidence != want {
		t.Errorf("MeanConfidence = %v, want %v", s.MeanConfidence, want)
	}
	if len(s.Attempts) != 5 {
		t.Errorf("Attempts len = %d, want 5", len(s.Attempts))
	}
}

func TestSummary_Empty(t *testing.T) {
	s := New(nil, nil).Summary()
	if s.TotalAttempts != 0 || s.AutoAppliedRatio != 0 || s.MeanConfidence != 0 {
		t.Errorf("empty summary = %+v", s)
	}
}

func TestPatternFor_CountsRecurrences(t *testing.T) {
	h := New(nil, nil)

	h.Record(attempt("test_a", failure.StatusCodeMismatch, 0.90, true))
	h.Record(attempt("test_a", failure.StatusCodeMismatch, 0.90, true))
	h.Record(attempt("test_a", failure.SchemaChange, 0.80, true))

	p := h.PatternFor(failure.StatusCodeMismatch, "test_a")
	if p.Count != 2 {
		t.Errorf("Count = %d, want 2", p.Count)
	}
	if p.FirstSeen.IsZero() || p.LastSeen.Before(p.FirstSeen) {
		t.Errorf("timestamps inconsistent: %+v", p)
	}

	// Same test, different kind, is a different key.
	if p := h.PatternFor(failure.SchemaChange, "test_a"); p.Count != 1 {
		t.Errorf("Count = %d, want 1", p.Count)
	}
}

func TestPatternFor_AbsentRegistersZero(t *testing.T) {
	h := New(nil, nil)

	p := h.PatternFor(failure.TypeMismatch, "test_never_seen")
	if p.Count != 0 {
		t.Errorf("Count = %d, want 0", p.Count)
	}

	// A later record must find and bump the registered pattern.
	h.Record(attempt("test_never_seen", failure.TypeMismatch, 0.75, true))
	if p := h.PatternFor(failure.TypeMismatch, "test_never_seen"); p.Count != 1 {
		t.Errorf("Count after record = %d, want 1", p.Count)
	}
}

func TestRecord_ConcurrentCallers(t *testing.T) {
	h := New(nil, nil)

	const workers = 16
	const perWorker = 25

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				h.Record(attempt("test_shared", failure.ValueMismatch, 0.75, true))
			}
		}()
	}
	wg.Wait()

	s := h.Summary()
	if s.TotalAttempts != workers*perWorker {
		t.Errorf("TotalAttempts = %d, want %d", s.TotalAttempts, workers*perWorker)
	}
	if p := h.PatternFor(failure.ValueMismatch, "test_shared"); p.Count != workers*perWorker {
		t.Errorf("pattern Count = %d, want %d", p.Count, workers*perWorker)
	}
}
