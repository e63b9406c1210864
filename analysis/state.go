package analysis

import (
	"errors"
	"fmt"
)

// ErrOutOfOrder is returned by Reduce when a step writes out of sequence
// or overwrites a field that is already set.
var ErrOutOfOrder = errors.New("analysis: out-of-order state update")

// Stage records how far a run has progressed.
type Stage int

const (
	StageCreated Stage = iota
	StageAAnalyzed
	StageBAnalyzed
	StageSynthesized
)

var stageNames = [...]string{"created", "a_analyzed", "b_analyzed", "synthesized"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(stageNames) {
		return nil, fmt.Errorf("invalid stage %d", int(s))
	}
	return []byte(stageNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stage) UnmarshalText(text []byte) error {
	for i, name := range stageNames {
		if string(text) == name {
			*s = Stage(i)
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", text)
}

// CallRecord is the token usage of one provider call.
type CallRecord struct {
	StepID       string `json:"stepId"`
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	InputTokens  int    `json:"inputTokens"`
	OutputTokens int    `json:"outputTokens"`
}

// State is threaded through one run: A analysis, B analysis, synthesis.
//
// Article, Topic and Prompt are fixed when the run is created. Each result
// slot is written once by its own step; Stage says which slots are set.
type State struct {
	RunID   string `json:"runId,omitempty"`
	Article string `json:"article"`
	Topic   string `json:"topic,omitempty"`
	Prompt  string `json:"prompt,omitempty"`

	AnalysisA       Result[Analysis]   `json:"analysisA"`
	AnalysisB       Result[Analysis]   `json:"analysisB"`
	FinalComparison Result[Comparison] `json:"finalComparison"`

	Stage Stage        `json:"stage"`
	Calls []CallRecord `json:"calls,omitempty"`
}

// NewState returns the initial state for an article, with the analysis
// prompt rendered once.
func NewState(runID, article, topic string) State {
	return State{
		RunID:   runID,
		Article: article,
		Topic:   topic,
		Prompt:  BuildAnalysisPrompt(article, topic),
		Stage:   StageCreated,
	}
}

// Reduce merges a step delta into prev. The delta must advance Stage by
// exactly one and set exactly the slot belonging to that stage. Inputs may
// be repeated in a delta but never changed.
func Reduce(prev, delta State) (State, error) {
	if delta.Stage != prev.Stage+1 {
		return State{}, fmt.Errorf("%w: stage %s cannot follow %s", ErrOutOfOrder, delta.Stage, prev.Stage)
	}
	if err := sameInput("run id", prev.RunID, delta.RunID); err != nil {
		return State{}, err
	}
	if err := sameInput("article", prev.Article, delta.Article); err != nil {
		return State{}, err
	}
	if err := sameInput("topic", prev.Topic, delta.Topic); err != nil {
		return State{}, err
	}
	if err := sameInput("prompt", prev.Prompt, delta.Prompt); err != nil {
		return State{}, err
	}

	next := prev
	next.Stage = delta.Stage
	next.Calls = append(append([]CallRecord(nil), prev.Calls...), delta.Calls...)

	switch delta.Stage {
	case StageAAnalyzed:
		if delta.AnalysisA.IsZero() || !delta.AnalysisB.IsZero() || !delta.FinalComparison.IsZero() {
			return State{}, fmt.Errorf("%w: %s must set analysisA only", ErrOutOfOrder, delta.Stage)
		}
		next.AnalysisA = delta.AnalysisA
	case StageBAnalyzed:
		if delta.AnalysisB.IsZero() || !delta.AnalysisA.IsZero() || !delta.FinalComparison.IsZero() {
			return State{}, fmt.Errorf("%w: %s must set analysisB only", ErrOutOfOrder, delta.Stage)
		}
		next.AnalysisB = delta.AnalysisB
	case StageSynthesized:
		if delta.FinalComparison.IsZero() || !delta.AnalysisA.IsZero() || !delta.AnalysisB.IsZero() {
			return State{}, fmt.Errorf("%w: %s must set finalComparison only", ErrOutOfOrder, delta.Stage)
		}
		next.FinalComparison = delta.FinalComparison
	default:
		return State{}, fmt.Errorf("%w: unknown stage %s", ErrOutOfOrder, delta.Stage)
	}
	return next, nil
}

func sameInput(name, prev, delta string) error {
	if delta != "" && delta != prev {
		return fmt.Errorf("%w: %s is immutable", ErrOutOfOrder, name)
	}
	return nil
}
