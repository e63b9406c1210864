package emit

// Emitter receives observability events from pipeline execution.
//
// Implementations should be:
//   - Non-blocking: avoid slowing down the run
//   - Thread-safe: concurrent runs share one emitter
//   - Resilient: never panic, never fail the run
type Emitter interface {
	// Emit sends an event to the configured backend.
	Emit(event Event)
}

// Multi fans a single event out to several emitters in order.
// Nil entries are skipped.
type Multi []Emitter

// Emit implements Emitter.
func (m Multi) Emit(event Event) {
	for _, e := range m {
		if e != nil {
			e.Emit(event)
		}
	}
}
