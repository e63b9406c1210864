package emit

// Event messages emitted by the pipeline engine and its steps.
const (
	MsgRunStart      = "run_start"
	MsgRunComplete   = "run_complete"
	MsgRunError      = "run_error"
	MsgStepStart     = "step_start"
	MsgStepEnd       = "step_end"
	MsgStepError     = "step_error"
	MsgParseFallback = "parse_fallback"
)

// Event represents an observability event emitted during a pipeline run.
//
// Events are emitted to an Emitter which can:
//   - Log through slog
//   - Become OpenTelemetry spans
//   - Be buffered in memory for inspection
type Event struct {
	// RunID identifies the pipeline run that emitted this event.
	RunID string

	// Step is the 1-indexed position of the step in the run.
	// Zero for run-level events (start, complete, error).
	Step int

	// StepID names the step that emitted this event.
	// Empty for run-level events.
	StepID string

	// Msg is one of the Msg* constants.
	Msg string

	// Meta contains additional structured data specific to this event.
	// Common keys:
	//   - "duration_ms": step or run duration in milliseconds
	//   - "error": error text
	//   - "model": model that served a provider call
	//   - "tokens_in", "tokens_out": token usage for a provider call
	//   - "cost_usd": priced cost of a run
	Meta map[string]interface{}
}
