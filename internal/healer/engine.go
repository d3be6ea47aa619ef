package healer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/diff"
	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/failure"
	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/notify"
	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/pycode"
	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/rules"
)

// FallbackHealer produces a candidate via external code generation. A false
// report covers every failure mode (unreachable service, timeout, empty
// reply); the engine treats all of them as "no candidate".
type FallbackHealer interface {
	Heal(ctx context.Context, code string, f failure.Failure, actual map[string]any) (Candidate, bool)
}

// Recorder receives every terminal Result exactly once.
type Recorder interface {
	Record(r Result)
}

// Config assembles an Engine. Fallback, History, and Notifier are optional;
// a zero Threshold selects the default.
type Config struct {
	Rules     *rules.Healer
	Fallback  FallbackHealer
	History   Recorder
	Notifier  notify.Notifier
	Threshold float64
	Logger    *zap.Logger
}

// Engine runs the healing state machine. Safe for concurrent use: each
// invocation operates on its own copies and the only shared mutable state is
// the Recorder, which synchronizes internally.
type Engine struct {
	rules     *rules.Healer
	fallback  FallbackHealer
	history   Recorder
	notifier  notify.Notifier
	threshold float64
	logger    *zap.Logger
}

// New creates an Engine from cfg.
func New(cfg Config) *Engine {
	if cfg.Rules == nil {
		cfg.Rules = rules.NewHealer(0)
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Nop{}
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Engine{
		rules:     cfg.Rules,
		fallback:  cfg.Fallback,
		history:   cfg.History,
		notifier:  cfg.Notifier,
		threshold: cfg.Threshold,
		logger:    cfg.Logger,
	}
}

// Heal runs one healing attempt to a terminal state. It never returns an
// error: every failure mode inside the pipeline resolves to an unhealed
// Result with confidence 0. An absent test function yields an empty
// extraction and the same degenerate-but-well-formed Result.
func (e *Engine) Heal(ctx context.Context, req Request) Result {
	f := e.classify(req)

	before := pycode.ExtractFunction(req.TestSource, req.TestName)
	if before == "" {
		e.logger.Warn("test function not found in source", zap.String("test", req.TestName))
	}

	cand, ok := e.tryRules(before, f, req.ActualResponse)
	if !ok && e.fallback != nil && before != "" {
		cand, ok = e.tryFallback(ctx, before, f, req.ActualResponse)
	}

	result := Result{
		ID:          uuid.NewString(),
		TestName:    req.TestName,
		Timestamp:   time.Now().UTC(),
		FailureKind: f.Kind,
		BeforeCode:  before,
		AfterCode:   before,
		Method:      MethodRuleBased,
	}
	if ok {
		result.AfterCode = cand.Code
		result.Confidence = cand.Confidence
		result.Method = cand.Method
		result.AutoApplied = cand.Confidence >= e.threshold
	}
	result.Changes = diff.Changes(result.BeforeCode, result.AfterCode)

	if e.history != nil {
		e.history.Record(result)
	}
	e.notifier.HealingObserved(notify.Event{
		TestName:   result.TestName,
		Confidence: result.Confidence,
		BeforeCode: result.BeforeCode,
		AfterCode:  result.AfterCode,
		Diff:       result.Changes,
	})

	e.logger.Info("healing attempt finished",
		zap.String("test", req.TestName),
		zap.String("kind", string(f.Kind)),
		zap.String("method", string(result.Method)),
		zap.Float64("confidence", result.Confidence),
		zap.Bool("auto_applied", result.AutoApplied))

	return result
}

// classify derives the failure kind, honoring a caller-supplied kind only
// when it parses to a known name.
func (e *Engine) classify(req Request) failure.Failure {
	kind, ok := failure.ParseKind(req.Failure.FailureKind)
	if !ok {
		kind = failure.Classify(req.Failure.ErrorMessage)
	}
	return failure.Failure{
		TestName:     req.TestName,
		ErrorMessage: req.Failure.ErrorMessage,
		Kind:         kind,
	}
}

// tryRules runs the deterministic rules and accepts the candidate only when
// its confidence clears the threshold and validation passes. A below-
// threshold or invalid candidate is discarded so the fallback gets a clean
// attempt.
func (e *Engine) tryRules(code string, f failure.Failure, actual map[string]any) (Candidate, bool) {
	cand, ok := e.rules.Heal(code, f, actual)
	if !ok {
		return Candidate{}, false
	}
	if cand.Confidence < e.threshold {
		e.logger.Debug("rule candidate below threshold",
			zap.String("rule", cand.Rule),
			zap.Float64("confidence", cand.Confidence))
		return Candidate{}, false
	}
	if err := pycode.Validate(cand.Code, f.TestName); err != nil {
		e.logger.Debug("rule candidate rejected by validator",
			zap.String("rule", cand.Rule),
			zap.Error(err))
		return Candidate{}, false
	}
	return Candidate{Code: cand.Code, Confidence: cand.Confidence, Method: MethodRuleBased}, true
}

// tryFallback delegates to external code generation and validates whatever
// comes back. Validation alone accepts a fallback candidate; its fixed
// confidence may still sit below the auto-apply threshold.
func (e *Engine) tryFallback(ctx context.Context, code string, f failure.Failure, actual map[string]any) (Candidate, bool) {
	cand, ok := e.fallback.Heal(ctx, code, f, actual)
	if !ok {
		return Candidate{}, false
	}
	if err := pycode.Validate(cand.Code, f.TestName); err != nil {
		e.logger.Debug("fallback candidate rejected by validator", zap.Error(err))
		return Candidate{}, false
	}
	return cand, true
}
