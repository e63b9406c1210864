package emit

import (
	"context"
	"log/slog"
	"maps"
	"slices"
)

// LogEmitter implements Emitter by writing each event as one structured
// slog record.
//
// Error events (step_error, run_error) are logged at Error level and
// parse_fallback at Warn; everything else is Info, except step_start
// which is Debug.
//
// Example text output:
//
//	level=INFO msg=step_end run_id=1f0c… step=1 step_id=analysis_a duration_ms=812
//
// Usage:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
//	emitter := emit.NewLogEmitter(logger)
type LogEmitter struct {
	logger *slog.Logger
}

// NewLogEmitter creates a LogEmitter writing to logger.
// A nil logger falls back to slog.Default().
func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEmitter{logger: logger}
}

// Emit writes the event as a structured log record.
func (l *LogEmitter) Emit(event Event) {
	attrs := make([]slog.Attr, 0, 3+len(event.Meta))
	attrs = append(attrs, slog.String("run_id", event.RunID))
	if event.StepID != "" {
		attrs = append(attrs,
			slog.Int("step", event.Step),
			slog.String("step_id", event.StepID),
		)
	}
	for _, key := range slices.Sorted(maps.Keys(event.Meta)) {
		attrs = append(attrs, slog.Any(key, event.Meta[key]))
	}

	l.logger.LogAttrs(context.Background(), levelFor(event.Msg), event.Msg, attrs...)
}

func levelFor(msg string) slog.Level {
	switch msg {
	case MsgStepError, MsgRunError:
		return slog.LevelError
	case MsgParseFallback:
		return slog.LevelWarn
	case MsgStepStart:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
