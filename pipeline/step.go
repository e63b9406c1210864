package pipeline

import (
	"context"

	"github.com/dshills/article-analyzer/pipeline/emit"
)

// Step is one unit of work in a pipeline.
//
// A step receives the state accumulated so far and returns a StepResult
// holding a partial update. Steps must not mutate the state they receive;
// the engine merges Delta through the reducer.
//
// Type parameter S is the state type threaded through the pipeline.
type Step[S any] interface {
	Run(ctx context.Context, state S) StepResult[S]
}

// StepResult is the output of a step execution.
type StepResult[S any] struct {
	// Delta is the partial state update merged by the reducer.
	Delta S

	// Calls lists the model invocations made by the step. The engine
	// prices them and reports token usage.
	Calls []LLMCall

	// Events are extra observability events raised by the step, such as
	// parse_fallback. RunID, Step and StepID are filled in by the engine.
	Events []emit.Event

	// Err halts the run. The engine returns it wrapped in a StepError.
	Err error
}

// StepFunc is a function adapter that implements the Step interface.
//
// Example:
//
//	double := pipeline.StepFunc[Counter](func(ctx context.Context, s Counter) pipeline.StepResult[Counter] {
//	    return pipeline.StepResult[Counter]{Delta: Counter{N: s.N * 2}}
//	})
type StepFunc[S any] func(ctx context.Context, state S) StepResult[S]

// Run implements Step.
func (f StepFunc[S]) Run(ctx context.Context, state S) StepResult[S] {
	return f(ctx, state)
}

// Reducer merges a step's delta into the previous state.
//
// Reducers are pure. Returning an error rejects the delta (for example a
// write to a field that is already set) and halts the run.
type Reducer[S any] func(prev, delta S) (S, error)
