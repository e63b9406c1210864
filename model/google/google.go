// Package google provides a model.ChatModel adapter for the Gemini API.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/dshills/article-analyzer/model"
)

// ProviderName identifies this adapter in errors and logs.
const ProviderName = "google"

// DefaultModel is used when NewChatModel receives an empty model name.
const DefaultModel = "gemini-2.5-flash"

// ChatModel implements model.ChatModel for Google's Gemini API.
//
// The genai client is created on first use and reused afterwards; call
// Close when the model is no longer needed.
//
// A reply blocked by Gemini's safety filters is reported as a
// *model.ProviderError with code "blocked".
//
// Example usage:
//
//	m := google.NewChatModel(os.Getenv("GOOGLE_API_KEY"), "gemini-2.5-flash")
//	defer m.Close()
//	out, err := m.Chat(ctx, model.UserPrompt(prompt), model.Params{})
type ChatModel struct {
	modelName string
	client    generator
}

// generator is the slice of the Gemini SDK the adapter uses. Tests replace
// it with a fake.
type generator interface {
	generate(ctx context.Context, req generateRequest) (*genai.GenerateContentResponse, error)
	close() error
}

type generateRequest struct {
	modelName   string
	system      []string
	parts       []genai.Part
	temperature float32
	maxTokens   int32
}

// NewChatModel creates a Gemini ChatModel. Extra client options (for
// example option.WithEndpoint) are applied after the API key.
func NewChatModel(apiKey, modelName string, opts ...option.ClientOption) *ChatModel {
	if modelName == "" {
		modelName = DefaultModel
	}
	return &ChatModel{
		modelName: modelName,
		client:    &sdkClient{opts: append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)},
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

	req := generateRequest{
		modelName:   m.modelName,
		temperature: float32(params.Temperature),
		maxTokens:   int32(maxTokens),
	}
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		if msg.Role == model.RoleSystem {
			req.system = append(req.system, msg.Content)
			continue
		}
		req.parts = append(req.parts, genai.Text(msg.Content))
	}

	resp, err := m.client.generate(ctx, req)
	if err != nil {
		return model.ChatOut{}, mapError(err)
	}
	return convertResponse(resp, m.modelName)
}

// Close releases the underlying client.
func (m *ChatModel) Close() error {
	return m.client.close()
}

func convertResponse(resp *genai.GenerateContentResponse, modelName string) (model.ChatOut, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return model.ChatOut{}, &model.ProviderError{
			Provider: ProviderName,
			Code:     "empty_response",
			Message:  "no candidates in response",
		}
	}

	out := model.ChatOut{Model: modelName}
	if resp.UsageMetadata != nil {
		out.Usage = model.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return out, nil
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	out.Text = text.String()
	return out, nil
}

func mapError(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &model.ProviderError{
			Provider: ProviderName,
			Code:     "blocked",
			Message:  blocked.Error(),
			Err:      err,
		}
	}
	return model.ClassifyError(ProviderName, 0, err)
}

// sdkClient wraps the official Gemini SDK client.
type sdkClient struct {
	opts []option.ClientOption

	once    sync.Once
	client  *genai.Client
	initErr error
}

func (c *sdkClient) generate(ctx context.Context, req generateRequest) (*genai.GenerateContentResponse, error) {
	c.once.Do(func() {
		// The client outlives the first request, so it must not inherit
		// that request's cancellation.
		c.client, c.initErr = genai.NewClient(context.WithoutCancel(ctx), c.opts...)
	})
	if c.initErr != nil {
		return nil, fmt.Errorf("failed to create Google client: %w", c.initErr)
	}

	gm := c.client.GenerativeModel(req.modelName)
	gm.SetTemperature(req.temperature)
	gm.SetMaxOutputTokens(req.maxTokens)
	if len(req.system) > 0 {
		parts := make([]genai.Part, len(req.system))
		for i, s := range req.system {
			parts[i] = genai.Text(s)
		}
		gm.SystemInstruction = &genai.Content{Parts: parts}
	}

	return gm.GenerateContent(ctx, req.parts...)
}

func (c *sdkClient) close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
