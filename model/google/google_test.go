package google

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"

	"github.com/dshills/article-analyzer/model"
)

type fakeGenerator struct {
	resp     *genai.GenerateContentResponse
	err      error
	requests []generateRequest
}

func (f *fakeGenerator) generate(_ context.Context, req generateRequest) (*genai.GenerateContentResponse, error) {
	f.requests = append(f.requests, req)
	return f.resp, f.err
}

func (f *fakeGenerator) close() error { return nil }

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: "model"}
	for _, p := range parts {
		content.Parts = append(content.Parts, genai.Text(p))
	}
	return &genai.GenerateContentResponse{
		Candidates:    []*genai.Candidate{{Content: content}},
		UsageMetadata: &genai.UsageMetadata{PromptTokenCount: 50, CandidatesTokenCount: 20, TotalTokenCount: 70},
	}
}

func TestNewChatModel(t *testing.T) {
	m := NewChatModel("test-key", "")
	if m.ModelName() != DefaultModel {
		t.Errorf("expected default model %q, got %q", DefaultModel, m.ModelName())
	}
	if err := m.Close(); err != nil {
		t.Errorf("Close before first use should be a no-op, got %v", err)
	}
}

func TestChatModel_Chat(t *testing.T) {
	fake := &fakeGenerator{resp: textResponse(`{"a": `, `1}`)}
	m := &ChatModel{modelName: "gemini-2.5-flash", client: fake}

	messages := []model.Message{
		{Role: model.RoleSystem, Content: "Reply in JSON."},
		{Role: model.RoleUser, Content: "Analyze this"},
	}
	out, err := m.Chat(context.Background(), messages, model.Params{Temperature: 0})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if out.Text != `{"a": 1}` {
		t.Errorf("text parts not concatenated: %q", out.Text)
	}
	if out.Model != "gemini-2.5-flash" {
		t.Errorf("unexpected model %q", out.Model)
	}
	if out.Usage.InputTokens != 50 || out.Usage.OutputTokens != 20 {
		t.Errorf("unexpected usage %+v", out.Usage)
	}

	if len(fake.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(fake.requests))
	}
	req := fake.requests[0]
	if len(req.system) != 1 || req.system[0] != "Reply in JSON." {
		t.Errorf("system instruction not separated: %+v", req.system)
	}
	if len(req.parts) != 1 || req.parts[0] != genai.Text("Analyze this") {
		t.Errorf("unexpected parts: %+v", req.parts)
	}
	if req.temperature != 0 || req.maxTokens != model.DefaultMaxTokens {
		t.Errorf("unexpected generation config: temperature %v, max tokens %d", req.temperature, req.maxTokens)
	}
}

func TestChatModel_Errors(t *testing.T) {
	t.Run("blocked", func(t *testing.T) {
		m := &ChatModel{modelName: "g", client: &fakeGenerator{err: &genai.BlockedError{}}}
		_, err := m.Chat(context.Background(), model.UserPrompt("x"), model.Params{})

		var pe *model.ProviderError
		if !errors.As(err, &pe) || pe.Code != "blocked" {
			t.Errorf("expected blocked ProviderError, got %v", err)
		}
	})

	t.Run("rate limited", func(t *testing.T) {
		sdkErr := errors.New("rpc error: code = ResourceExhausted desc = Resource has been exhausted")
		m := &ChatModel{modelName: "g", client: &fakeGenerator{err: sdkErr}}
		_, err := m.Chat(context.Background(), model.UserPrompt("x"), model.Params{})

		var pe *model.ProviderError
		if !errors.As(err, &pe) || pe.Code != "rate_limited" || !pe.Retryable {
			t.Errorf("expected retryable rate_limited, got %v", err)
		}
	})

	t.Run("no candidates", func(t *testing.T) {
		m := &ChatModel{modelName: "g", client: &fakeGenerator{resp: &genai.GenerateContentResponse{}}}
		_, err := m.Chat(context.Background(), model.UserPrompt("x"), model.Params{})

		var pe *model.ProviderError
		if !errors.As(err, &pe) || pe.Code != "empty_response" {
			t.Errorf("expected empty_response, got %v", err)
		}
	})

	t.Run("cancelled before call", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		fake := &fakeGenerator{resp: textResponse("x")}
		m := &ChatModel{modelName: "g", client: fake}

		if _, err := m.Chat(ctx, model.UserPrompt("x"), model.Params{}); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if len(fake.requests) != 0 {
			t.Error("no request should be sent after cancellation")
		}
	})
}
