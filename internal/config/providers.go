package config

import (
	"errors"
	"fmt"

	"github.com/dshills/article-analyzer/analysis"
	"github.com/dshills/article-analyzer/model"
	"github.com/dshills/article-analyzer/model/anthropic"
	"github.com/dshills/article-analyzer/model/google"
	"github.com/dshills/article-analyzer/model/openai"
)

// Models holds one chat model per configured provider. A provider used in
// several slots shares one client.
type Models struct {
	byName map[string]model.ChatModel
	google *google.ChatModel
}

// NewModels builds the chat models for the providers named in p.
func NewModels(p ProviderConfig) (*Models, error) {
	m := &Models{byName: make(map[string]model.ChatModel)}
	for _, name := range []string{p.A, p.B, p.Synthesis} {
		if _, ok := m.byName[name]; ok {
			continue
		}
		switch name {
		case openai.ProviderName:
			m.byName[name] = openai.NewChatModel(p.OpenAIAPIKey, p.OpenAIModel)
		case anthropic.ProviderName:
			m.byName[name] = anthropic.NewChatModel(p.AnthropicAPIKey, p.AnthropicModel)
		case google.ProviderName:
			m.google = google.NewChatModel(p.GoogleAPIKey, p.GoogleModel)
			m.byName[name] = m.google
		default:
			return nil, fmt.Errorf("unknown provider %q", name)
		}
	}
	return m, nil
}

// Providers assigns the models to the pipeline slots.
func (m *Models) Providers(p ProviderConfig) (analysis.Providers, error) {
	var errs []error
	get := func(name string) analysis.Provider {
		cm, ok := m.byName[name]
		if !ok {
			errs = append(errs, fmt.Errorf("no model for provider %q", name))
		}
		return analysis.Provider{Name: name, Model: cm}
	}

	providers := analysis.Providers{
		A:         get(p.A),
		B:         get(p.B),
		Synthesis: get(p.Synthesis),
	}
	return providers, errors.Join(errs...)
}

// Close releases provider clients that hold connections.
func (m *Models) Close() error {
	if m.google != nil {
		return m.google.Close()
	}
	return nil
}
