package emit

// NullEmitter implements Emitter by discarding all events.
//
// Use it when a run needs no observability, e.g. in tests that only
// care about the final state.
type NullEmitter struct{}

// NewNullEmitter creates a new NullEmitter.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit discards the event.
func (n *NullEmitter) Emit(Event) {}
