package store

import (
	"context"
	"slices"
	"sync"
)

// MemStore is an in-memory implementation of Store[S].
//
// Steps are kept per run in the order they were saved. MemStore is
// thread-safe; data is lost when the process exits.
type MemStore[S any] struct {
	mu    sync.RWMutex
	steps map[string][]StepRecord[S] // runID -> steps in save order
}

// NewMemStore creates a new in-memory store.
//
// Example:
//
//	st := store.NewMemStore[analysis.State]()
//	engine := pipeline.New(analysis.Reduce, st, emitter)
func NewMemStore[S any]() *MemStore[S] {
	return &MemStore[S]{
		steps: make(map[string][]StepRecord[S]),
	}
}

// SaveStep appends a step to the run's history.
func (m *MemStore[S]) SaveStep(_ context.Context, runID string, step int, stepID string, state S) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.steps[runID] = append(m.steps[runID], StepRecord[S]{
		Step:   step,
		StepID: stepID,
		State:  state,
	})
	return nil
}

// LoadLatest returns the record with the highest step number, which
// tolerates out-of-order saves.
func (m *MemStore[S]) LoadLatest(_ context.Context, runID string) (state S, step int, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := m.steps[runID]
	if len(records) == 0 {
		var zero S
		return zero, 0, ErrNotFound
	}

	latest := records[0]
	for _, record := range records[1:] {
		if record.Step > latest.Step {
			latest = record
		}
	}
	return latest.State, latest.Step, nil
}

// Steps returns a copy of the run's history sorted by step number.
func (m *MemStore[S]) Steps(_ context.Context, runID string) ([]StepRecord[S], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := m.steps[runID]
	if len(records) == 0 {
		return nil, ErrNotFound
	}

	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b StepRecord[S]) int { return a.Step - b.Step })
	return out, nil
}
