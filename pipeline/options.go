package pipeline

import "fmt"

// Option configures an Engine.
//
// Example:
//
//	engine, err := pipeline.New(reducer, st, emitter,
//	    pipeline.WithMetrics(metrics),
//	    pipeline.WithPricing(customPricing),
//	)
type Option func(*engineConfig) error

type engineConfig struct {
	metrics *Metrics
	pricing map[string]ModelPricing
}

func defaultConfig() engineConfig {
	return engineConfig{pricing: DefaultModelPricing}
}

// WithMetrics records step latency, run outcomes, parse fallbacks and
// token spend on metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(cfg *engineConfig) error {
		cfg.metrics = metrics
		return nil
	}
}

// WithPricing replaces the pricing table used for each run's CostTracker.
func WithPricing(pricing map[string]ModelPricing) Option {
	return func(cfg *engineConfig) error {
		if pricing == nil {
			return fmt.Errorf("pricing table cannot be nil")
		}
		cfg.pricing = pricing
		return nil
	}
}
