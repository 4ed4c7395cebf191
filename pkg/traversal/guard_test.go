package traversal

import (
	"context"
	"testing"
)

func TestGuardForcesAnswerAtEveryExpandingStage(t *testing.T) {
	scorer := &fakeScorer{}
	graph := &fakeGraph{
		potentialConcepts: conceptNames(3),
		facts:             []Fact{{ID: "f1", ChunkID: "c1", Content: "a fact"}},
		chunks:            map[string]Chunk{"c1": {ID: "c1", Content: "body"}},
		vectorChunks:      []Chunk{{ID: "c9", Content: "body"}},
	}

	stages := []struct {
		name string
		run  func(context.Context, State) (Update, []Event, error)
	}{
		{"refiner", NewQuestionRefiner(scorer, NopLogger{}).Run},
		{"planner", func(ctx context.Context, st State) (Update, []Event, error) {
			return NewRationalPlanner(scorer, NopLogger{}).Run(ctx, st, "")
		}},
		{"concepts", NewKeyConceptSelector(graph, scorer, NopLogger{}).Run},
		{"facts", NewAtomicFactFilter(graph, scorer, NopLogger{}).Run},
		{"chunks", NewChunkEvaluator(graph, scorer, NopLogger{}).Run},
		{"vector", NewChunkVectorRetriever(graph, scorer, NopLogger{}).Run},
	}

	for _, tc := range stages {
		t.Run(tc.name+"/hop budget", func(t *testing.T) {
			st := testState(StepKeyConcepts)
			st.Hops = HopSoftLimit
			st.QueuedKeyConcepts = []string{"concept-00"}
			st.QueuedChunks = []string{"c1"}

			u, _, err := tc.run(context.Background(), st)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if u.NextStep != StepAnswer {
				t.Fatalf("next step = %q, want %q", u.NextStep, StepAnswer)
			}
			next := st.Apply(u)
			if len(next.QueuedKeyConcepts) != 0 || len(next.QueuedChunks) != 0 {
				t.Fatalf("queues not cleared: %v %v", next.QueuedKeyConcepts, next.QueuedChunks)
			}
		})
	}
}

func TestGuardChunkLevelCap(t *testing.T) {
	st := testState(StepChunks)
	st.ChunkLevel = ChunkLevelCap
	if guardFired(st) {
		t.Fatal("guard fired at the cap itself")
	}
	st.ChunkLevel = ChunkLevelCap + 1
	if !guardFired(st) {
		t.Fatal("guard did not fire past the cap")
	}
}

func TestChunkEvaluatorStillDescendsWhenGuarded(t *testing.T) {
	eval := NewChunkEvaluator(&fakeGraph{}, &fakeScorer{}, NopLogger{})
	st := testState(StepChunks)
	st.ChunkLevel = ChunkLevelCap + 1
	st.QueuedChunks = []string{"c1"}

	u, _, err := eval.Run(context.Background(), st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ChunkLevelDelta != 1 {
		t.Fatalf("chunk level delta = %d, want 1", u.ChunkLevelDelta)
	}
	if u.NextStep != StepAnswer {
		t.Fatalf("next step = %q, want %q", u.NextStep, StepAnswer)
	}
}
