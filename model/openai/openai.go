// Package openai provides a model.ChatModel adapter for the OpenAI chat
// completions API.
package openai

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/dshills/article-analyzer/model"
)

// ProviderName identifies this adapter in errors and logs.
const ProviderName = "openai"

// DefaultModel is used when NewChatModel receives an empty model name.
const DefaultModel = "gpt-4o-mini"

// ChatModel implements model.ChatModel on top of the official OpenAI SDK.
//
// SDK retries are disabled: a failed call surfaces immediately as a
// *model.ProviderError.
//
// Example usage:
//
//	m := openai.NewChatModel(os.Getenv("OPENAI_API_KEY"), "gpt-4o-mini")
//	out, err := m.Chat(ctx, model.UserPrompt("Summarize this article"), model.Params{})
type ChatModel struct {
	client    openai.Client
	modelName string
}

// NewChatModel creates an OpenAI ChatModel. Extra SDK options (for example
// option.WithBaseURL) are applied after the API key.
func NewChatModel(apiKey, modelName string, opts ...option.RequestOption) *ChatModel {
	if modelName == "" {
		modelName = DefaultModel
	}

	clientOpts := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)

	return &ChatModel{
		client:    openai.NewClient(clientOpts...),
		modelName: modelName,
	}
}

// ModelName returns the configured model.
func (m *ChatModel) ModelName() string {
	return m.modelName
}

// Chat implements model.ChatModel.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message, params model.Params) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}

	maxTokens := params.MaxTokens
	if maxTokens <= 0 {
		maxTokens = model.DefaultMaxTokens
	}

	completion, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               shared.ChatModel(m.modelName),
		Messages:            convertMessages(messages),
		Temperature:         openai.Float(params.Temperature),
		MaxCompletionTokens: openai.Int(int64(maxTokens)),
	})
	if err != nil {
		return model.ChatOut{}, mapError(err)
	}

	if len(completion.Choices) == 0 {
		return model.ChatOut{}, &model.ProviderError{
			Provider: ProviderName,
			Code:     "empty_response",
			Message:  "no choices in completion",
		}
	}

	reported := completion.Model
	if reported == "" {
		reported = m.modelName
	}

	return model.ChatOut{
		Text:  completion.Choices[0].Message.Content,
		Model: reported,
		Usage: model.Usage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
		},
	}, nil
}

func convertMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case model.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

func mapError(err error) error {
	status := 0
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
	}
	return model.ClassifyError(ProviderName, status, err)
}
