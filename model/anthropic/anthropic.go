// Package anthropic provides a model.ChatModel adapter for the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dshills/article-analyzer/model"
)

// ProviderName identifies this adapter in errors and logs.
const ProviderName = "anthropic"

// DefaultModel is used when NewChatModel receives an empty model name.
const DefaultModel = "claude-3-5-sonnet-latest"

// ChatModel implements model.ChatModel on top of the official Anthropic SDK.
//
// System messages are sent through the dedicated system field; user and
// assistant turns become message params. The reply text is the
// concatenation of all text blocks. SDK retries are disabled.
//
// Example usage:
//
//	m := anthropic.NewChatModel(os.Getenv("ANTHROPIC_API_KEY"), "")
//	out, err := m.Chat(ctx, model.UserPrompt(prompt), model.Params{})
type ChatModel struct {
	client    anthropic.Client
	modelName string
}

// NewChatModel creates an Anthropic ChatModel. Extra SDK options (for
// example option.WithBaseURL) are applied after the API key.
func NewChatModel(apiKey, modelName string, opts ...option.RequestOption) *ChatModel {
	if modelName == "" {
		modelName = DefaultModel
	}

	clientOpts := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)

	return &ChatModel{
		client:    anthropic.NewClient(clientOpts...),
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

	system, turns := convertMessages(messages)
	req := anthropic.MessageNewParams{
		Model:       anthropic.Model(m.modelName),
		MaxTokens:   int64(maxTokens),
		Messages:    turns,
		Temperature: anthropic.Float(params.Temperature),
	}
	if len(system) > 0 {
		req.System = system
	}

	message, err := m.client.Messages.New(ctx, req)
	if err != nil {
		return model.ChatOut{}, mapError(err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	reported := string(message.Model)
	if reported == "" {
		reported = m.modelName
	}

	return model.ChatOut{
		Text:  text.String(),
		Model: reported,
		Usage: model.Usage{
			InputTokens:  int(message.Usage.InputTokens),
			OutputTokens: int(message.Usage.OutputTokens),
		},
	}, nil
}

func convertMessages(messages []model.Message) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	var (
		system []anthropic.TextBlockParam
		turns  []anthropic.MessageParam
	)
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case model.RoleAssistant:
			turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return system, turns
}

func mapError(err error) error {
	status := 0
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
	}
	return model.ClassifyError(ProviderName, status, err)
}
