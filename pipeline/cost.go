package pipeline

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// ModelPricing defines input and output token costs for an LLM model.
// Prices are in USD per 1M tokens.
type ModelPricing struct {
	InputPer1M  float64
	OutputPer1M float64
}

// DefaultModelPricing is the static pricing table used by NewCostTracker.
//
// Providers report dated snapshot names (e.g. "gpt-4o-mini-2024-07-18");
// lookups fall back to the longest key that prefixes the reported name.
//
// Prices are subject to change. Update this map as providers adjust pricing.
var DefaultModelPricing = map[string]ModelPricing{
	// OpenAI
	"gpt-4o":      {InputPer1M: 2.50, OutputPer1M: 10.00},
	"gpt-4o-mini": {InputPer1M: 0.15, OutputPer1M: 0.60},
	"gpt-4.1":     {InputPer1M: 2.00, OutputPer1M: 8.00},

	// Anthropic
	"claude-3-5-sonnet": {InputPer1M: 3.00, OutputPer1M: 15.00},
	"claude-3-7-sonnet": {InputPer1M: 3.00, OutputPer1M: 15.00},
	"claude-3-5-haiku":  {InputPer1M: 0.80, OutputPer1M: 4.00},
	"claude-sonnet-4":   {InputPer1M: 3.00, OutputPer1M: 15.00},

	// Google
	"gemini-2.5-pro":   {InputPer1M: 1.25, OutputPer1M: 10.00},
	"gemini-2.5-flash": {InputPer1M: 0.30, OutputPer1M: 2.50},
	"gemini-1.5-flash": {InputPer1M: 0.075, OutputPer1M: 0.30},
}

// LLMCall is a single model invocation with token usage and cost.
type LLMCall struct {
	Model        string    `json:"model"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	CostUSD      float64   `json:"cost_usd"`
	Timestamp    time.Time `json:"timestamp"`
	StepID       string    `json:"step_id,omitempty"`
}

// CostTracker accumulates token usage and cost for one run.
//
// Unknown models are recorded with zero cost. Safe for concurrent use.
//
// Usage:
//
//	tracker := pipeline.NewCostTracker("run-123")
//	tracker.RecordLLMCall("gpt-4o-mini", 1000, 500, "analysis_a")
//	fmt.Printf("$%.4f\n", tracker.TotalCost())
type CostTracker struct {
	RunID string

	mu           sync.RWMutex
	pricing      map[string]ModelPricing
	calls        []LLMCall
	totalCost    float64
	modelCosts   map[string]float64
	inputTokens  int64
	outputTokens int64
}

// NewCostTracker creates a tracker priced with DefaultModelPricing.
func NewCostTracker(runID string) *CostTracker {
	return NewCostTrackerWithPricing(runID, DefaultModelPricing)
}

// NewCostTrackerWithPricing creates a tracker with a custom pricing table.
func NewCostTrackerWithPricing(runID string, pricing map[string]ModelPricing) *CostTracker {
	return &CostTracker{
		RunID:      runID,
		pricing:    pricing,
		modelCosts: make(map[string]float64),
	}
}

// RecordLLMCall prices one call, adds it to the totals and returns the
// recorded entry.
func (ct *CostTracker) RecordLLMCall(model string, inputTokens, outputTokens int, stepID string) LLMCall {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	pricing := lookupPricing(ct.pricing, model)
	cost := (float64(inputTokens)/1_000_000.0)*pricing.InputPer1M +
		(float64(outputTokens)/1_000_000.0)*pricing.OutputPer1M

	call := LLMCall{
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostUSD:      cost,
		Timestamp:    time.Now(),
		StepID:       stepID,
	}
	ct.calls = append(ct.calls, call)
	ct.totalCost += cost
	ct.modelCosts[model] += cost
	ct.inputTokens += int64(inputTokens)
	ct.outputTokens += int64(outputTokens)

	return call
}

// TotalCost returns the cumulative cost in USD.
func (ct *CostTracker) TotalCost() float64 {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.totalCost
}

// CostByModel returns a copy of the per-model cost breakdown.
func (ct *CostTracker) CostByModel() map[string]float64 {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	out := make(map[string]float64, len(ct.modelCosts))
	for model, cost := range ct.modelCosts {
		out[model] = cost
	}
	return out
}

// Calls returns a copy of the recorded calls in order.
func (ct *CostTracker) Calls() []LLMCall {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	out := make([]LLMCall, len(ct.calls))
	copy(out, ct.calls)
	return out
}

// TokenUsage returns total input and output tokens.
func (ct *CostTracker) TokenUsage() (inputTokens, outputTokens int64) {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.inputTokens, ct.outputTokens
}

// String returns a one-line summary.
func (ct *CostTracker) String() string {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return fmt.Sprintf("CostTracker{RunID: %s, Calls: %d, Tokens: %d in / %d out, Cost: $%.6f}",
		ct.RunID, len(ct.calls), ct.inputTokens, ct.outputTokens, ct.totalCost)
}

func lookupPricing(table map[string]ModelPricing, model string) ModelPricing {
	if p, ok := table[model]; ok {
		return p
	}

	var (
		best    ModelPricing
		bestLen int
	)
	for name, p := range table {
		if len(name) > bestLen && strings.HasPrefix(model, name) {
			best, bestLen = p, len(name)
		}
	}
	return best
}
