package emit

import "sync"

// BufferedEmitter implements Emitter by storing events in memory.
//
// Events are kept per runID in emission order. It is used by tests to
// assert step ordering and by callers that want the event history of a
// single run after it finishes.
//
// Warning: events are never evicted on their own; call Clear once a
// run's history is no longer needed.
//
// Example usage:
//
//	emitter := emit.NewBufferedEmitter()
//	engine := pipeline.New(reducer, nil, emitter)
//	engine.Run(ctx, "run-001", initial)
//
//	all := emitter.GetHistory("run-001")
//	fallbacks := emitter.GetHistoryWithFilter("run-001", emit.HistoryFilter{Msg: emit.MsgParseFallback})
//	emitter.Clear("run-001")
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event // runID -> events
}

// HistoryFilter selects events from a run's history.
//
// Empty fields do not filter. Set fields are combined with AND.
type HistoryFilter struct {
	StepID  string // Filter by step ID
	Msg     string // Filter by message
	MinStep *int   // Minimum step number (inclusive)
	MaxStep *int   // Maximum step number (inclusive)
}

// NewBufferedEmitter creates an empty BufferedEmitter.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{
		events: make(map[string][]Event),
	}
}

// Emit stores the event under its runID.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events[event.RunID] = append(b.events[event.RunID], event)
}

// GetHistory returns a copy of all events for runID in emission order.
// The result is never nil.
func (b *BufferedEmitter) GetHistory(runID string) []Event {
	return b.GetHistoryWithFilter(runID, HistoryFilter{})
}

// GetHistoryWithFilter returns a copy of the events for runID that match filter.
// The result is never nil.
func (b *BufferedEmitter) GetHistoryWithFilter(runID string, filter HistoryFilter) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := []Event{}
	for _, event := range b.events[runID] {
		if filter.matches(event) {
			result = append(result, event)
		}
	}
	return result
}

func (f HistoryFilter) matches(event Event) bool {
	if f.StepID != "" && event.StepID != f.StepID {
		return false
	}
	if f.Msg != "" && event.Msg != f.Msg {
		return false
	}
	if f.MinStep != nil && event.Step < *f.MinStep {
		return false
	}
	if f.MaxStep != nil && event.Step > *f.MaxStep {
		return false
	}
	return true
}

// Clear removes the events of runID, or of every run when runID is empty.
func (b *BufferedEmitter) Clear(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if runID == "" {
		b.events = make(map[string][]Event)
		return
	}
	delete(b.events, runID)
}
