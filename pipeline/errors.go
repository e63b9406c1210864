package pipeline

import "fmt"

// EngineError reports a misconfigured engine (no steps, duplicate IDs,
// missing reducer). It is returned before any step runs.
type EngineError struct {
	Message string
	Code    string
}

func (e *EngineError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// StepError reports the step that halted a run. It unwraps to the step's
// own error, so callers can still match provider or context errors with
// errors.As and errors.Is.
type StepError struct {
	RunID  string
	Step   int
	StepID string
	Cause  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.StepID, e.Cause)
}

func (e *StepError) Unwrap() error {
	return e.Cause
}
