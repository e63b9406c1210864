package store

import (
	"context"
	"sync"
	"testing"
)

func TestMemStore_Contract(t *testing.T) {
	exerciseStore(t, NewMemStore[TestState]())
}

func TestMemStore_Independent(t *testing.T) {
	ctx := context.Background()
	store1 := NewMemStore[TestState]()
	store2 := NewMemStore[TestState]()

	_ = store1.SaveStep(ctx, "run-001", 1, "a", TestState{Value: "store1"})

	if _, _, err := store2.LoadLatest(ctx, "run-001"); err == nil {
		t.Error("store2 should not have data from store1")
	}
}

// TestMemStore_Concurrent verifies concurrent SaveStep calls are safe.
func TestMemStore_Concurrent(t *testing.T) {
	st := NewMemStore[TestState]()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 1; i <= 10; i++ {
		wg.Add(1)
		go func(step int) {
			defer wg.Done()
			_ = st.SaveStep(ctx, "run-001", step, "step", TestState{Counter: step})
		}(i)
	}
	wg.Wait()

	records, err := st.Steps(ctx, "run-001")
	if err != nil {
		t.Fatalf("Steps failed: %v", err)
	}
	if len(records) != 10 {
		t.Fatalf("expected 10 records, got %d", len(records))
	}
	for i, record := range records {
		if record.Step != i+1 {
			t.Errorf("records not sorted: index %d has step %d", i, record.Step)
		}
	}
}

func TestMemStore_StepsReturnsCopy(t *testing.T) {
	st := NewMemStore[TestState]()
	ctx := context.Background()
	_ = st.SaveStep(ctx, "run-001", 1, "a", TestState{Value: "original"})

	records, _ := st.Steps(ctx, "run-001")
	records[0].State.Value = "mutated"

	state, _, _ := st.LoadLatest(ctx, "run-001")
	if state.Value != "original" {
		t.Errorf("mutating Steps result changed stored state to %q", state.Value)
	}
}
