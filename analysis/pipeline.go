// Package analysis implements the article analysis pipeline: two
// providers analyze the same article independently, and a third call
// reconciles both analyses into one improvement plan.
//
// Model replies are coerced to JSON with ExtractJSON. A reply that cannot
// be parsed becomes a fallback record and the run continues; a transport
// error halts the run.
package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dshills/article-analyzer/model"
	"github.com/dshills/article-analyzer/pipeline"
	"github.com/dshills/article-analyzer/pipeline/emit"
	"github.com/dshills/article-analyzer/pipeline/store"
)

// Provider is a named chat model filling one slot of the pipeline.
type Provider struct {
	Name  string
	Model model.ChatModel
}

// Providers assigns a provider to each of the three calls.
type Providers struct {
	A         Provider
	B         Provider
	Synthesis Provider
}

// Request is an analysis request.
type Request struct {
	Text  string `json:"text" yaml:"text"`
	Topic string `json:"topic,omitempty" yaml:"topic,omitempty"`
}

// Response carries the three results verbatim.
type Response struct {
	AnalysisA       Result[Analysis]   `json:"analysisA"`
	AnalysisB       Result[Analysis]   `json:"analysisB"`
	FinalComparison Result[Comparison] `json:"finalComparison"`
}

// NewResponse builds the response for a finished run.
func NewResponse(st State) Response {
	return Response{
		AnalysisA:       st.AnalysisA,
		AnalysisB:       st.AnalysisB,
		FinalComparison: st.FinalComparison,
	}
}

// Pipeline runs A analysis, B analysis and synthesis in that order.
// A Pipeline is safe for concurrent use; each run has its own State.
type Pipeline struct {
	engine *pipeline.Engine[State]
	logger *slog.Logger
}

type pipelineConfig struct {
	store      store.Store[State]
	emitter    emit.Emitter
	logger     *slog.Logger
	maxTokens  int
	engineOpts []pipeline.Option
}

// Option configures a Pipeline.
type Option func(*pipelineConfig)

// WithStore journals the state after every step.
func WithStore(st store.Store[State]) Option {
	return func(c *pipelineConfig) { c.store = st }
}

// WithEmitter sends pipeline events to emitter.
func WithEmitter(emitter emit.Emitter) Option {
	return func(c *pipelineConfig) { c.emitter = emitter }
}

// WithMetrics records Prometheus metrics for every run.
func WithMetrics(metrics *pipeline.Metrics) Option {
	return func(c *pipelineConfig) {
		c.engineOpts = append(c.engineOpts, pipeline.WithMetrics(metrics))
	}
}

// WithPricing overrides the token pricing table.
func WithPricing(pricing map[string]pipeline.ModelPricing) Option {
	return func(c *pipelineConfig) {
		c.engineOpts = append(c.engineOpts, pipeline.WithPricing(pricing))
	}
}

// WithMaxTokens caps every provider reply.
func WithMaxTokens(n int) Option {
	return func(c *pipelineConfig) { c.maxTokens = n }
}

// WithLogger sets the logger used for run summaries.
func WithLogger(logger *slog.Logger) Option {
	return func(c *pipelineConfig) { c.logger = logger }
}

// New wires the three steps onto a pipeline engine.
func New(p Providers, opts ...Option) (*Pipeline, error) {
	cfg := pipelineConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	for slot, prov := range map[string]Provider{"A": p.A, "B": p.B, "synthesis": p.Synthesis} {
		if prov.Model == nil {
			return nil, fmt.Errorf("analysis: provider %s has no model", slot)
		}
	}

	engine, err := pipeline.New[State](Reduce, cfg.store, cfg.emitter, cfg.engineOpts...)
	if err != nil {
		return nil, err
	}

	steps := []struct {
		id   string
		step pipeline.Step[State]
	}{
		{StepAnalysisA, &AnalyzeStep{Slot: SlotA, Provider: p.A.Name, Model: p.A.Model, MaxTokens: cfg.maxTokens}},
		{StepAnalysisB, &AnalyzeStep{Slot: SlotB, Provider: p.B.Name, Model: p.B.Model, MaxTokens: cfg.maxTokens}},
		{StepSynthesis, &SynthesizeStep{
			Provider:  p.Synthesis.Name,
			Model:     p.Synthesis.Model,
			LabelA:    p.A.Name,
			LabelB:    p.B.Name,
			MaxTokens: cfg.maxTokens,
		}},
	}
	for _, s := range steps {
		if err := engine.Add(s.id, s.step); err != nil {
			return nil, err
		}
	}

	return &Pipeline{engine: engine, logger: cfg.logger}, nil
}

// Run validates the request and executes one run. On error the returned
// State is the zero value.
func (p *Pipeline) Run(ctx context.Context, req Request) (State, error) {
	if err := req.Validate(); err != nil {
		return State{}, err
	}

	runID := uuid.NewString()
	final, err := p.engine.Run(ctx, runID, NewState(runID, req.Text, req.Topic))
	if err != nil {
		p.logger.Error("analysis failed", "run_id", runID, "error", err)
		return State{}, err
	}

	p.logger.Info("analysis complete",
		"run_id", runID,
		"score_a", scoreAttr(final.AnalysisA.Typed().QualityScore()),
		"score_b", scoreAttr(final.AnalysisB.Typed().QualityScore()),
		"combined_score", scoreAttr(final.FinalComparison.Typed().CombinedScore()),
		"fallbacks", countFallbacks(final),
	)
	return final, nil
}

// Analyze runs the pipeline and returns the three results.
func (p *Pipeline) Analyze(ctx context.Context, req Request) (Response, error) {
	st, err := p.Run(ctx, req)
	if err != nil {
		return Response{}, err
	}
	return NewResponse(st), nil
}

func scoreAttr(s Score) any {
	if !s.Valid {
		return nil
	}
	return s.Value
}

func countFallbacks(st State) int {
	n := 0
	for _, failed := range []bool{st.AnalysisA.Failed(), st.AnalysisB.Failed(), st.FinalComparison.Failed()} {
		if failed {
			n++
		}
	}
	return n
}
