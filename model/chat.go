// Package model defines the provider-neutral chat interface used by the
// analysis steps, plus a scripted mock for tests.
//
// Adapters for concrete providers live in the openai, anthropic and
// google subpackages.
package model

import "context"

// ChatModel sends a conversation to a language model and returns its reply.
//
// Implementations must:
//   - respect ctx cancellation
//   - not retry; a failed call returns an error and the caller decides
//   - report token usage when the provider returns it
//
// Example:
//
//	m := openai.NewChatModel(apiKey, "gpt-4o-mini")
//	out, err := m.Chat(ctx, []model.Message{{Role: model.RoleUser, Content: prompt}}, model.Params{})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(out.Text)
type ChatModel interface {
	Chat(ctx context.Context, messages []Message, params Params) (ChatOut, error)
}

// Message is one turn of a conversation.
type Message struct {
	Role    string
	Content string
}

// Standard role constants.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Params tunes a single call.
type Params struct {
	// Temperature is sent as-is; zero asks for the most deterministic
	// sampling the provider offers.
	Temperature float64

	// MaxTokens caps the reply length. Zero means the adapter default.
	MaxTokens int
}

// DefaultMaxTokens is used by adapters when Params.MaxTokens is zero.
const DefaultMaxTokens = 4096

// ChatOut is a model reply.
type ChatOut struct {
	// Text is the concatenated text content of the reply.
	Text string

	// Model is the model name reported by the provider, which may be a
	// dated snapshot of the requested name.
	Model string

	Usage Usage
}

// Usage reports token consumption for one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// UserPrompt wraps a single prompt as a one-message conversation.
func UserPrompt(prompt string) []Message {
	return []Message{{Role: RoleUser, Content: prompt}}
}
