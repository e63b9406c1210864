// Package pipeline runs a fixed, ordered list of steps over a state value.
//
// Each step sees the state produced by all previous steps, returns a
// partial update, and the engine merges it through a reducer. There is no
// branching, fan-out, retry or timeout: a step error halts the run and the
// caller gets the zero state plus the error.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/dshills/article-analyzer/pipeline/emit"
	"github.com/dshills/article-analyzer/pipeline/store"
)

// Engine executes registered steps in insertion order.
//
// Wiring (Add) happens once at startup; Run may then be called from many
// goroutines. Each run has its own state, CostTracker and step counter;
// only the step list, the store, the emitter and metrics are shared.
//
// Example:
//
//	engine, err := pipeline.New(reducer, store.NewMemStore[MyState](), emit.NewLogEmitter(nil))
//	if err != nil {
//	    return err
//	}
//	_ = engine.Add("fetch", fetchStep)
//	_ = engine.Add("summarize", summarizeStep)
//
//	final, err := engine.Run(ctx, "run-001", MyState{URL: "https://example.com"})
type Engine[S any] struct {
	mu sync.RWMutex

	reducer Reducer[S]
	steps   []namedStep[S]

	// store is optional; nil disables the step journal.
	store   store.Store[S]
	emitter emit.Emitter
	cfg     engineConfig
}

type namedStep[S any] struct {
	id   string
	step Step[S]
}

// New creates an Engine.
//
// Parameters:
//   - reducer: merges step deltas (required)
//   - st: step journal, may be nil
//   - emitter: observability sink, nil means NullEmitter
//   - opts: functional options
func New[S any](reducer Reducer[S], st store.Store[S], emitter emit.Emitter, opts ...Option) (*Engine[S], error) {
	if reducer == nil {
		return nil, &EngineError{Message: "reducer is required", Code: "MISSING_REDUCER"}
	}
	if emitter == nil {
		emitter = emit.NewNullEmitter()
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, &EngineError{Message: err.Error(), Code: "INVALID_OPTION"}
		}
	}

	return &Engine[S]{
		reducer: reducer,
		store:   st,
		emitter: emitter,
		cfg:     cfg,
	}, nil
}

// Add appends a step. Steps run in the order they are added.
//
// Returns an EngineError if stepID is empty or already used, or step is nil.
func (e *Engine[S]) Add(stepID string, step Step[S]) error {
	if stepID == "" {
		return &EngineError{Message: "step ID cannot be empty", Code: "INVALID_STEP"}
	}
	if step == nil {
		return &EngineError{Message: "step cannot be nil", Code: "INVALID_STEP"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, s := range e.steps {
		if s.id == stepID {
			return &EngineError{Message: "duplicate step ID: " + stepID, Code: "DUPLICATE_STEP"}
		}
	}
	e.steps = append(e.steps, namedStep[S]{id: stepID, step: step})
	return nil
}

// StepIDs returns the registered step IDs in execution order.
func (e *Engine[S]) StepIDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ids := make([]string, len(e.steps))
	for i, s := range e.steps {
		ids[i] = s.id
	}
	return ids
}

// Run executes every step in order starting from initial.
//
// For each step the engine:
//  1. checks ctx for cancellation
//  2. emits step_start and runs the step
//  3. prices the step's model calls
//  4. merges the delta with the reducer
//  5. saves the merged state to the journal (when configured)
//  6. emits step_end, plus any events the step raised
//
// A step error, reducer error, journal error or cancellation halts the
// run. The returned state is then the zero value; partial results are
// never handed back.
func (e *Engine[S]) Run(ctx context.Context, runID string, initial S) (S, error) {
	var zero S

	e.mu.RLock()
	steps := make([]namedStep[S], len(e.steps))
	copy(steps, e.steps)
	e.mu.RUnlock()

	if len(steps) == 0 {
		return zero, &EngineError{Message: "no steps registered", Code: "NO_STEPS"}
	}

	tracker := NewCostTrackerWithPricing(runID, e.cfg.pricing)
	runStart := time.Now()
	e.emitter.Emit(emit.Event{
		RunID: runID,
		Msg:   emit.MsgRunStart,
		Meta:  map[string]interface{}{"steps": len(steps)},
	})

	current := initial
	for i, s := range steps {
		stepNum := i + 1

		if err := ctx.Err(); err != nil {
			return zero, e.fail(runID, runStart, tracker, &StepError{RunID: runID, Step: stepNum, StepID: s.id, Cause: err})
		}

		next, err := e.runStep(ctx, runID, stepNum, s, current, tracker)
		if err != nil {
			return zero, e.fail(runID, runStart, tracker, err)
		}
		current = next
	}

	in, out := tracker.TokenUsage()
	e.emitter.Emit(emit.Event{
		RunID: runID,
		Msg:   emit.MsgRunComplete,
		Meta: map[string]interface{}{
			"duration_ms": time.Since(runStart).Milliseconds(),
			"steps":       len(steps),
			"tokens_in":   in,
			"tokens_out":  out,
			"cost_usd":    tracker.TotalCost(),
		},
	})
	if e.cfg.metrics != nil {
		e.cfg.metrics.IncrementRuns("success")
	}

	return current, nil
}

func (e *Engine[S]) runStep(ctx context.Context, runID string, stepNum int, s namedStep[S], current S, tracker *CostTracker) (S, error) {
	var zero S

	e.emitter.Emit(emit.Event{RunID: runID, Step: stepNum, StepID: s.id, Msg: emit.MsgStepStart})
	start := time.Now()
	result := s.step.Run(ctx, current)
	latency := time.Since(start)

	meta := make(map[string]interface{})
	var in, out int
	for _, c := range result.Calls {
		call := tracker.RecordLLMCall(c.Model, c.InputTokens, c.OutputTokens, s.id)
		if e.cfg.metrics != nil {
			e.cfg.metrics.RecordLLMCall(call)
		}
		in += call.InputTokens
		out += call.OutputTokens
		meta["model"] = call.Model
	}
	if len(result.Calls) > 0 {
		meta["tokens_in"] = in
		meta["tokens_out"] = out
	}
	meta["duration_ms"] = latency.Milliseconds()

	if result.Err != nil {
		return zero, e.stepFailed(runID, stepNum, s.id, latency, meta, result.Err)
	}

	merged, err := e.reducer(current, result.Delta)
	if err != nil {
		return zero, e.stepFailed(runID, stepNum, s.id, latency, meta, err)
	}

	if e.store != nil {
		if err := e.store.SaveStep(ctx, runID, stepNum, s.id, merged); err != nil {
			return zero, e.stepFailed(runID, stepNum, s.id, latency, meta, &EngineError{
				Message: "failed to save step: " + err.Error(),
				Code:    "STORE_ERROR",
			})
		}
	}

	if e.cfg.metrics != nil {
		e.cfg.metrics.RecordStepLatency(s.id, latency, "success")
	}
	e.emitter.Emit(emit.Event{RunID: runID, Step: stepNum, StepID: s.id, Msg: emit.MsgStepEnd, Meta: meta})

	for _, ev := range result.Events {
		ev.RunID, ev.Step, ev.StepID = runID, stepNum, s.id
		if ev.Msg == emit.MsgParseFallback && e.cfg.metrics != nil {
			e.cfg.metrics.IncrementParseFallbacks(s.id)
		}
		e.emitter.Emit(ev)
	}

	return merged, nil
}

func (e *Engine[S]) stepFailed(runID string, stepNum int, stepID string, latency time.Duration, meta map[string]interface{}, cause error) error {
	if e.cfg.metrics != nil {
		e.cfg.metrics.RecordStepLatency(stepID, latency, "error")
	}
	meta["error"] = cause.Error()
	e.emitter.Emit(emit.Event{RunID: runID, Step: stepNum, StepID: stepID, Msg: emit.MsgStepError, Meta: meta})
	return &StepError{RunID: runID, Step: stepNum, StepID: stepID, Cause: cause}
}

func (e *Engine[S]) fail(runID string, runStart time.Time, tracker *CostTracker, err error) error {
	e.emitter.Emit(emit.Event{
		RunID: runID,
		Msg:   emit.MsgRunError,
		Meta: map[string]interface{}{
			"duration_ms": time.Since(runStart).Milliseconds(),
			"cost_usd":    tracker.TotalCost(),
			"error":       err.Error(),
		},
	})
	if e.cfg.metrics != nil {
		e.cfg.metrics.IncrementRuns("error")
	}
	return err
}
