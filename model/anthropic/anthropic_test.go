package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dshills/article-analyzer/model"
)

func newTestModel(t *testing.T, handler http.HandlerFunc) *ChatModel {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewChatModel("sk-ant-test", "", option.WithBaseURL(srv.URL))
}

func TestChatModel_Chat(t *testing.T) {
	requests := make(chan map[string]interface{}, 1)

	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "sk-ant-test" {
			t.Errorf("unexpected X-Api-Key header %q", got)
		}
		var request map[string]interface{}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &request); err != nil {
			t.Errorf("request is not JSON: %v", err)
		}
		requests <- request

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-sonnet-20241022",
			"content": [
				{"type": "text", "text": "{\"contentQuality\": "},
				{"type": "text", "text": "{}}"}
			],
			"stop_reason": "end_turn",
			"stop_sequence": null,
			"usage": {"input_tokens": 300, "output_tokens": 90}
		}`)
	})

	messages := []model.Message{
		{Role: model.RoleSystem, Content: "Reply in JSON."},
		{Role: model.RoleUser, Content: "Analyze this"},
	}
	out, err := m.Chat(context.Background(), messages, model.Params{})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if out.Text != `{"contentQuality": {}}` {
		t.Errorf("text blocks not concatenated: %q", out.Text)
	}
	if out.Model != "claude-3-5-sonnet-20241022" {
		t.Errorf("unexpected model %q", out.Model)
	}
	if out.Usage.InputTokens != 300 || out.Usage.OutputTokens != 90 {
		t.Errorf("unexpected usage %+v", out.Usage)
	}

	request := <-requests
	if request["model"] != DefaultModel {
		t.Errorf("request model = %v, want %s", request["model"], DefaultModel)
	}
	if request["max_tokens"] != float64(model.DefaultMaxTokens) {
		t.Errorf("expected default max_tokens, got %v", request["max_tokens"])
	}
	if temp, ok := request["temperature"].(float64); !ok || temp != 0 {
		t.Errorf("expected temperature 0 to be sent, got %v", request["temperature"])
	}
	if _, ok := request["system"]; !ok {
		t.Error("expected system prompt in request")
	}
	if msgs, _ := request["messages"].([]interface{}); len(msgs) != 1 {
		t.Errorf("expected 1 conversational turn, got %d", len(msgs))
	}
}

func TestChatModel_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantCode string
	}{
		{"rate limited", http.StatusTooManyRequests, "rate_limited"},
		{"forbidden", http.StatusForbidden, "invalid_api_key"},
		{"overloaded", 529, "server_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"type": "error", "error": {"type": "some_error", "message": "nope"}}`)
			})

			_, err := m.Chat(context.Background(), model.UserPrompt("hi"), model.Params{})

			var pe *model.ProviderError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *model.ProviderError, got %T: %v", err, err)
			}
			if pe.Code != tt.wantCode || pe.Provider != ProviderName {
				t.Errorf("unexpected error %+v", pe)
			}
		})
	}
}

func TestConvertMessages(t *testing.T) {
	system, turns := convertMessages([]model.Message{
		{Role: model.RoleSystem, Content: "rules"},
		{Role: model.RoleUser, Content: "q"},
		{Role: model.RoleAssistant, Content: "a"},
	})
	if len(system) != 1 || system[0].Text != "rules" {
		t.Errorf("unexpected system blocks %+v", system)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != "user" || turns[1].Role != "assistant" {
		t.Errorf("unexpected roles %q, %q", turns[0].Role, turns[1].Role)
	}
}
