package traversal

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestAtomicFactFilterEmptyDeltaIsPassThrough(t *testing.T) {
	graph := &fakeGraph{facts: []Fact{{ID: "f1", ChunkID: "c1"}}}
	scorer := &fakeScorer{
		facts: func([]Fact) (FactBatchResult, error) {
			return FactBatchResult{}, fmt.Errorf("scorer must not be called on an empty delta")
		},
	}
	filter := NewAtomicFactFilter(graph, scorer, NopLogger{})

	st := testState(StepAtomicFacts)
	st.QueuedKeyConcepts = []string{"alpha"}
	st.ProcessedKeyConcepts = NewStringSet("alpha")

	t.Run("chunks still queued", func(t *testing.T) {
		st := st
		st.QueuedChunks = []string{"c9"}
		u, _, err := filter.Run(context.Background(), st)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.NextStep != StepChunks {
			t.Fatalf("next step = %q, want %q", u.NextStep, StepChunks)
		}
		if u.AppendAnnotations != "" || len(u.AppendNotebook) != 0 {
			t.Fatal("pass-through mutated annotations or notebook")
		}
	})

	t.Run("nothing queued", func(t *testing.T) {
		u, _, err := filter.Run(context.Background(), st)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.NextStep != StepAnswer {
			t.Fatalf("next step = %q, want %q", u.NextStep, StepAnswer)
		}
	})
}

func TestAtomicFactFilterQueuesSurvivingChunks(t *testing.T) {
	graph := &fakeGraph{facts: []Fact{
		{ID: "f1", ChunkID: "c1", Content: "fact one"},
		{ID: "f2", ChunkID: "c2", Content: "fact two"},
		{ID: "f3", ChunkID: "c3", Content: "fact three"},
	}}
	scorer := &fakeScorer{
		facts: func(batch []Fact) (FactBatchResult, error) {
			return FactBatchResult{
				Status:     "facts look promising",
				Annotation: "c1 and c2 relate to firing",
				ChunkIDs:   []string{"c1", "c2", "c1", "c3", "bogus"},
			}, nil
		},
	}

	st := testState(StepAtomicFacts)
	st.RationalPlan = "check membrane potentials"
	st.QueuedKeyConcepts = []string{"alpha", "beta"}
	st.ProcessedChunks = NewStringSet("c3")

	u, events, err := NewAtomicFactFilter(graph, scorer, NopLogger{}).Run(context.Background(), st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.NextStep != StepChunks {
		t.Fatalf("next step = %q, want %q", u.NextStep, StepChunks)
	}
	if got, want := *u.QueuedChunks, []string{"c1", "c2"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("queued chunks = %v, want %v", got, want)
	}
	if got, want := u.AddProcessedKeyConcepts, []string{"alpha", "beta"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("processed concepts = %v, want %v", got, want)
	}
	if got, want := u.AddProcessedFacts, []string{"f1", "f2", "f3"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("processed facts = %v, want %v", got, want)
	}
	if u.AppendAnnotations != "c1 and c2 relate to firing" {
		t.Fatalf("annotations = %q", u.AppendAnnotations)
	}
	if len(events) != 1 {
		t.Fatalf("events = %v", events)
	}
}

func TestAtomicFactFilterNoCandidatesEscalatesToNeighbours(t *testing.T) {
	graph := &fakeGraph{facts: []Fact{{ID: "f1", ChunkID: "c1", Content: "fact"}}}
	scorer := &fakeScorer{} // default verdict proposes no chunks

	tests := []struct {
		name     string
		explored bool
		want     Step
	}{
		{"first exhaustion", false, StepNeighbouringNodes},
		{"neighbours already explored", true, StepAnswer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := testState(StepAtomicFacts)
			st.QueuedKeyConcepts = []string{"alpha"}
			st.NeighboursExplored = tt.explored

			u, _, err := NewAtomicFactFilter(graph, scorer, NopLogger{}).Run(context.Background(), st)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if u.NextStep != tt.want {
				t.Fatalf("next step = %q, want %q", u.NextStep, tt.want)
			}
			if got, want := u.AddProcessedFacts, []string{"f1"}; !reflect.DeepEqual(got, want) {
				t.Fatalf("processed facts = %v, want %v", got, want)
			}
		})
	}
}

func TestAtomicFactFilterBatchesLargeFactSets(t *testing.T) {
	facts := make([]Fact, 120)
	for i := range facts {
		facts[i] = Fact{ID: fmt.Sprintf("f%03d", i), ChunkID: fmt.Sprintf("c%03d", i)}
	}
	graph := &fakeGraph{facts: facts}

	scorer := &fakeScorer{
		facts: func(batch []Fact) (FactBatchResult, error) {
			if len(batch) > 50 {
				return FactBatchResult{}, fmt.Errorf("batch of %d exceeds the cap", len(batch))
			}
			return FactBatchResult{Annotation: fmt.Sprintf("saw %d facts", len(batch))}, nil
		},
	}

	st := testState(StepAtomicFacts)
	st.QueuedKeyConcepts = []string{"alpha"}

	u, _, err := NewAtomicFactFilter(graph, scorer, NopLogger{}).Run(context.Background(), st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(strings.Split(u.AppendAnnotations, "\n")); got != 3 {
		t.Fatalf("annotation lines = %d, want 3 (one per batch)", got)
	}
	if len(u.AddProcessedFacts) != 120 {
		t.Fatalf("processed facts = %d, want 120", len(u.AddProcessedFacts))
	}
}

func TestAtomicFactFilterSingleBadBatchDegrades(t *testing.T) {
	facts := make([]Fact, 100)
	for i := range facts {
		facts[i] = Fact{ID: fmt.Sprintf("f%03d", i), ChunkID: fmt.Sprintf("c%03d", i)}
	}
	graph := &fakeGraph{facts: facts}
	scorer := &fakeScorer{
		facts: func(batch []Fact) (FactBatchResult, error) {
			if batch[0].ID == "f000" {
				return FactBatchResult{}, fmt.Errorf("model timeout")
			}
			return FactBatchResult{ChunkIDs: []string{batch[0].ChunkID}}, nil
		},
	}

	st := testState(StepAtomicFacts)
	st.QueuedKeyConcepts = []string{"alpha"}

	u, _, err := NewAtomicFactFilter(graph, scorer, NopLogger{}).Run(context.Background(), st)
	if err != nil {
		t.Fatalf("one failed batch should not abort the stage: %v", err)
	}
	if u.QueuedChunks == nil || len(*u.QueuedChunks) != 1 {
		t.Fatalf("surviving batch result lost: %+v", u.QueuedChunks)
	}
}
