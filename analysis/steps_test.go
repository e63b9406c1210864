package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/article-analyzer/model"
	"github.com/dshills/article-analyzer/pipeline/emit"
)

func TestAnalyzeStep(t *testing.T) {
	mock := &model.MockChatModel{Responses: []model.ChatOut{{
		Text:  "```json\n{\"qualityAssessment\":{\"score\":90}}\n```",
		Usage: model.Usage{InputTokens: 12, OutputTokens: 7},
	}}}
	step := &AnalyzeStep{Slot: SlotB, Provider: "anthropic", Model: mock}

	t.Run("wrong stage", func(t *testing.T) {
		res := step.Run(context.Background(), NewState("r", "body", ""))
		if !errors.Is(res.Err, ErrOutOfOrder) {
			t.Errorf("expected ErrOutOfOrder, got %v", res.Err)
		}
		if mock.CallCount() != 0 {
			t.Error("model must not be called")
		}
	})

	t.Run("renders prompt when missing", func(t *testing.T) {
		st := State{Article: "body", Topic: "seo", Stage: StageAAnalyzed}
		res := step.Run(context.Background(), st)
		if res.Err != nil {
			t.Fatalf("Run failed: %v", res.Err)
		}
		if mock.LastPrompt() != BuildAnalysisPrompt("body", "seo") {
			t.Error("prompt not rendered from article and topic")
		}
		if res.Delta.Stage != StageBAnalyzed || res.Delta.AnalysisB.Failed() || !res.Delta.AnalysisA.IsZero() {
			t.Errorf("unexpected delta: %+v", res.Delta)
		}
		// No model name reported: the provider name is used for pricing.
		if len(res.Calls) != 1 || res.Calls[0].Model != "anthropic" || res.Calls[0].InputTokens != 12 {
			t.Errorf("Calls = %+v", res.Calls)
		}
		if len(res.Events) != 0 {
			t.Errorf("Events = %+v", res.Events)
		}
	})
}

func TestSynthesizeStep(t *testing.T) {
	mock := &model.MockChatModel{Responses: []model.ChatOut{{Text: "plain text"}}}
	step := &SynthesizeStep{Provider: "google", Model: mock, LabelA: "openai", LabelB: "anthropic"}

	if res := step.Run(context.Background(), State{Stage: StageAAnalyzed}); !errors.Is(res.Err, ErrOutOfOrder) {
		t.Errorf("expected ErrOutOfOrder, got %v", res.Err)
	}

	st := State{
		Stage:     StageBAnalyzed,
		AnalysisA: ParseResult[Analysis](`{"a":1}`),
		AnalysisB: ParseResult[Analysis](`{"b":2}`),
	}
	res := step.Run(context.Background(), st)
	if res.Err != nil {
		t.Fatalf("Run failed: %v", res.Err)
	}
	if !res.Delta.FinalComparison.Failed() {
		t.Error("expected fallback comparison")
	}
	if len(res.Events) != 1 || res.Events[0].Msg != emit.MsgParseFallback || res.Events[0].Meta["provider"] != "google" {
		t.Errorf("Events = %+v", res.Events)
	}
}

func TestStep_NoModel(t *testing.T) {
	step := &AnalyzeStep{Slot: SlotA, Provider: "openai"}
	if res := step.Run(context.Background(), NewState("r", "body", "")); res.Err == nil {
		t.Error("expected error without a model")
	}
}
