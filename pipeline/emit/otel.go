package emit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const attrPrefix = "article_analyzer."

// OTelEmitter implements Emitter by turning each event into an
// OpenTelemetry span.
//
// Each span has:
//   - Name: event.Msg (e.g. "step_end", "parse_fallback")
//   - Attributes: run_id, step, step_id and every event.Meta entry
//   - Status: Error when event.Meta["error"] is set
//
// Spans are ended immediately; events are points in time. The step
// duration travels as the duration_ms attribute.
//
// Usage:
//
//	tp := sdktrace.NewTracerProvider()
//	otel.SetTracerProvider(tp)
//	emitter := emit.NewOTelEmitter(otel.Tracer("article-analyzer"))
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter creates an OTelEmitter that starts spans on tracer.
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

// Emit records the event as a span.
func (o *OTelEmitter) Emit(event Event) {
	_, span := o.tracer.Start(context.Background(), event.Msg)
	defer span.End()

	span.SetAttributes(
		attribute.String(attrPrefix+"run_id", event.RunID),
		attribute.Int(attrPrefix+"step", event.Step),
		attribute.String(attrPrefix+"step_id", event.StepID),
	)
	o.addMetadataAttributes(span, event.Meta)

	if msg, ok := event.Meta["error"].(string); ok {
		span.SetStatus(codes.Error, msg)
		span.RecordError(errors.New(msg))
	}
}

// Flush forces export of pending spans when the global tracer provider
// supports it (the SDK provider does, the no-op provider does not).
//
// Call it before shutdown:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//	_ = emitter.Flush(ctx)
func (o *OTelEmitter) Flush(ctx context.Context) error {
	type flusher interface {
		ForceFlush(context.Context) error
	}

	if f, ok := otel.GetTracerProvider().(flusher); ok {
		return f.ForceFlush(ctx)
	}
	return nil
}

// addMetadataAttributes converts event metadata to span attributes.
//
// LLM usage keys are mapped onto the llm.* namespace:
//   - tokens_in, tokens_out: token usage (integer attributes)
//   - cost_usd: priced cost in USD
//   - model: model name
func (o *OTelEmitter) addMetadataAttributes(span trace.Span, meta map[string]interface{}) {
	for key, value := range meta {
		attrKey := attrPrefix + key
		switch key {
		case "tokens_in", "tokens_out", "cost_usd", "model":
			attrKey = attrPrefix + "llm." + key
		case "error":
			continue
		}

		switch v := value.(type) {
		case string:
			span.SetAttributes(attribute.String(attrKey, v))
		case int:
			span.SetAttributes(attribute.Int(attrKey, v))
		case int64:
			span.SetAttributes(attribute.Int64(attrKey, v))
		case float64:
			span.SetAttributes(attribute.Float64(attrKey, v))
		case bool:
			span.SetAttributes(attribute.Bool(attrKey, v))
		case time.Duration:
			span.SetAttributes(attribute.Int64(attrKey, v.Milliseconds()))
		default:
			span.SetAttributes(attribute.String(attrKey, fmt.Sprintf("%v", v)))
		}
	}
}
