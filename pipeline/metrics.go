package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus metrics for pipeline runs.
//
// Metrics exposed (all namespaced with "article_analyzer_"):
//
//  1. step_latency_ms (histogram): step duration in milliseconds.
//     Labels: step, status (success/error).
//  2. runs_total (counter): completed runs. Labels: status.
//  3. parse_fallbacks_total (counter): model replies that could not be
//     parsed as JSON. Labels: step.
//  4. llm_tokens_total (counter): tokens used. Labels: model, direction
//     (input/output).
//  5. llm_cost_usd_total (counter): priced cost. Labels: model.
//
// Run IDs are deliberately not labels; they are unbounded.
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	metrics := pipeline.NewMetrics(registry)
//	engine, _ := pipeline.New(reducer, nil, emitter, pipeline.WithMetrics(metrics))
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
type Metrics struct {
	stepLatency    *prometheus.HistogramVec
	runs           *prometheus.CounterVec
	parseFallbacks *prometheus.CounterVec
	llmTokens      *prometheus.CounterVec
	llmCost        *prometheus.CounterVec
}

// NewMetrics creates and registers the pipeline metrics with registry.
// A nil registry uses prometheus.DefaultRegisterer.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		stepLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "article_analyzer",
			Name:      "step_latency_ms",
			Help:      "Pipeline step duration in milliseconds, model call included",
			Buckets:   []float64{10, 50, 100, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		}, []string{"step", "status"}),

		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "article_analyzer",
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome",
		}, []string{"status"}),

		parseFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "article_analyzer",
			Name:      "parse_fallbacks_total",
			Help:      "Model replies replaced by the fallback record because they were not a JSON object",
		}, []string{"step"}),

		llmTokens: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "article_analyzer",
			Name:      "llm_tokens_total",
			Help:      "Tokens consumed by model calls",
		}, []string{"model", "direction"}),

		llmCost: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "article_analyzer",
			Name:      "llm_cost_usd_total",
			Help:      "Estimated model spend in USD from the static pricing table",
		}, []string{"model"}),
	}
}

// RecordStepLatency observes one step duration.
func (m *Metrics) RecordStepLatency(stepID string, latency time.Duration, status string) {
	m.stepLatency.WithLabelValues(stepID, status).Observe(float64(latency.Milliseconds()))
}

// IncrementRuns counts a finished run ("success" or "error").
func (m *Metrics) IncrementRuns(status string) {
	m.runs.WithLabelValues(status).Inc()
}

// IncrementParseFallbacks counts a reply that fell back to the error record.
func (m *Metrics) IncrementParseFallbacks(stepID string) {
	m.parseFallbacks.WithLabelValues(stepID).Inc()
}

// RecordLLMCall adds a priced call to the token and cost counters.
func (m *Metrics) RecordLLMCall(call LLMCall) {
	m.llmTokens.WithLabelValues(call.Model, "input").Add(float64(call.InputTokens))
	m.llmTokens.WithLabelValues(call.Model, "output").Add(float64(call.OutputTokens))
	m.llmCost.WithLabelValues(call.Model).Add(call.CostUSD)
}
