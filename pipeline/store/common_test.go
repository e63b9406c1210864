package store

import (
	"context"
	"errors"
	"testing"
)

// TestState is a simple state type used by the store tests.
type TestState struct {
	Value   string `json:"value"`
	Counter int    `json:"counter"`
}

// exerciseStore runs the behaviour every Store implementation must share.
func exerciseStore(t *testing.T, st Store[TestState]) {
	t.Helper()
	ctx := context.Background()

	if _, _, err := st.LoadLatest(ctx, "run-missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown run, got %v", err)
	}
	if _, err := st.Steps(ctx, "run-missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound from Steps for unknown run, got %v", err)
	}

	saves := []struct {
		step   int
		stepID string
		state  TestState
	}{
		{1, "analysis_a", TestState{Value: "first", Counter: 1}},
		{3, "synthesis", TestState{Value: "third", Counter: 3}},
		{2, "analysis_b", TestState{Value: "second", Counter: 2}},
	}
	for _, s := range saves {
		if err := st.SaveStep(ctx, "run-001", s.step, s.stepID, s.state); err != nil {
			t.Fatalf("SaveStep(%d) failed: %v", s.step, err)
		}
	}
	_ = st.SaveStep(ctx, "run-002", 1, "analysis_a", TestState{Value: "other"})

	state, step, err := st.LoadLatest(ctx, "run-001")
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if step != 3 || state.Value != "third" {
		t.Errorf("expected step 3 with value 'third', got step %d value %q", step, state.Value)
	}

	records, err := st.Steps(ctx, "run-001")
	if err != nil {
		t.Fatalf("Steps failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	wantIDs := []string{"analysis_a", "analysis_b", "synthesis"}
	for i, record := range records {
		if record.Step != i+1 {
			t.Errorf("record %d: expected step %d, got %d", i, i+1, record.Step)
		}
		if record.StepID != wantIDs[i] {
			t.Errorf("record %d: expected step id %q, got %q", i, wantIDs[i], record.StepID)
		}
		if record.State.Counter != i+1 {
			t.Errorf("record %d: expected counter %d, got %d", i, i+1, record.State.Counter)
		}
	}
}
