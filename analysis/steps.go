package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/dshills/article-analyzer/model"
	"github.com/dshills/article-analyzer/pipeline"
	"github.com/dshills/article-analyzer/pipeline/emit"
)

// Step IDs in execution order.
const (
	StepAnalysisA = "analysis_a"
	StepAnalysisB = "analysis_b"
	StepSynthesis = "synthesis"
)

// Slot selects which analysis an AnalyzeStep writes.
type Slot int

const (
	SlotA Slot = iota
	SlotB
)

func (s Slot) stepID() string {
	if s == SlotB {
		return StepAnalysisB
	}
	return StepAnalysisA
}

// AnalyzeStep sends the analysis prompt to one provider and stores the
// extracted reply in its slot.
//
// A transport error fails the step. A reply that is not a JSON object is
// stored as the fallback record and the run continues.
type AnalyzeStep struct {
	Slot     Slot
	Provider string
	Model    model.ChatModel

	// MaxTokens caps the reply; zero uses the adapter default.
	MaxTokens int
}

// Run implements pipeline.Step.
func (s *AnalyzeStep) Run(ctx context.Context, st State) pipeline.StepResult[State] {
	want := StageCreated
	if s.Slot == SlotB {
		want = StageAAnalyzed
	}
	if st.Stage != want {
		return pipeline.StepResult[State]{
			Err: fmt.Errorf("%w: %s needs stage %s, have %s", ErrOutOfOrder, s.Slot.stepID(), want, st.Stage),
		}
	}

	prompt := st.Prompt
	if prompt == "" {
		prompt = BuildAnalysisPrompt(st.Article, st.Topic)
	}

	text, call, record, err := invoke(ctx, s.Model, s.Provider, s.Slot.stepID(), prompt, s.MaxTokens)
	if err != nil {
		return pipeline.StepResult[State]{Err: err}
	}

	result := ParseResult[Analysis](text)
	delta := State{Stage: want + 1, Calls: []CallRecord{record}}
	if s.Slot == SlotB {
		delta.AnalysisB = result
	} else {
		delta.AnalysisA = result
	}

	return pipeline.StepResult[State]{
		Delta:  delta,
		Calls:  []pipeline.LLMCall{call},
		Events: fallbackEvents(result.Failed(), s.Provider, text),
	}
}

// SynthesizeStep asks one provider to reconcile both analyses into an
// improvement plan. Both analyses must already be in the state.
type SynthesizeStep struct {
	Provider string
	Model    model.ChatModel

	// LabelA and LabelB name the analyses in the prompt, usually the
	// providers that produced them.
	LabelA string
	LabelB string

	MaxTokens int
}

// Run implements pipeline.Step.
func (s *SynthesizeStep) Run(ctx context.Context, st State) pipeline.StepResult[State] {
	if st.Stage != StageBAnalyzed {
		return pipeline.StepResult[State]{
			Err: fmt.Errorf("%w: %s needs stage %s, have %s", ErrOutOfOrder, StepSynthesis, StageBAnalyzed, st.Stage),
		}
	}

	prompt := BuildComparisonPrompt(
		LabeledAnalysis{Label: s.LabelA, Result: st.AnalysisA},
		LabeledAnalysis{Label: s.LabelB, Result: st.AnalysisB},
		st.Topic,
	)

	text, call, record, err := invoke(ctx, s.Model, s.Provider, StepSynthesis, prompt, s.MaxTokens)
	if err != nil {
		return pipeline.StepResult[State]{Err: err}
	}

	result := ParseResult[Comparison](text)
	return pipeline.StepResult[State]{
		Delta: State{
			Stage:           StageSynthesized,
			FinalComparison: result,
			Calls:           []CallRecord{record},
		},
		Calls:  []pipeline.LLMCall{call},
		Events: fallbackEvents(result.Failed(), s.Provider, text),
	}
}

// invoke makes the single provider call of a step at temperature 0.
func invoke(ctx context.Context, m model.ChatModel, provider, stepID, prompt string, maxTokens int) (string, pipeline.LLMCall, CallRecord, error) {
	if m == nil {
		return "", pipeline.LLMCall{}, CallRecord{}, fmt.Errorf("%s: no model configured for provider %q", stepID, provider)
	}

	out, err := m.Chat(ctx, model.UserPrompt(prompt), model.Params{Temperature: 0, MaxTokens: maxTokens})
	if err != nil {
		return "", pipeline.LLMCall{}, CallRecord{}, err
	}

	name := out.Model
	if name == "" {
		name = provider
	}
	call := pipeline.LLMCall{
		Model:        name,
		InputTokens:  out.Usage.InputTokens,
		OutputTokens: out.Usage.OutputTokens,
		Timestamp:    time.Now(),
		StepID:       stepID,
	}
	record := CallRecord{
		StepID:       stepID,
		Provider:     provider,
		Model:        name,
		InputTokens:  out.Usage.InputTokens,
		OutputTokens: out.Usage.OutputTokens,
	}
	return out.Text, call, record, nil
}

func fallbackEvents(failed bool, provider, text string) []emit.Event {
	if !failed {
		return nil
	}
	return []emit.Event{{
		Msg: emit.MsgParseFallback,
		Meta: map[string]interface{}{
			"provider":   provider,
			"raw_length": len(text),
		},
	}}
}
