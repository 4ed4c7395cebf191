package traversal

import (
	"reflect"
	"testing"
)

func TestApplyConsumesExactlyOneHop(t *testing.T) {
	st := testState(StepRationalPlan)
	next := st.Apply(Update{})
	if next.Hops != 1 {
		t.Fatalf("hops = %d, want 1", next.Hops)
	}
	if next.NextStep != StepRationalPlan {
		t.Fatalf("empty update changed step to %q", next.NextStep)
	}
	next = next.Apply(Update{NextStep: StepKeyConcepts})
	if next.Hops != 2 {
		t.Fatalf("hops = %d, want 2", next.Hops)
	}
}

func TestApplyKeepsQueuesDisjointFromProcessed(t *testing.T) {
	st := testState(StepAtomicFacts)
	st.ProcessedKeyConcepts = NewStringSet("done")
	st.ProcessedChunks = NewStringSet("c1")

	next := st.Apply(Update{
		QueuedKeyConcepts: &[]string{"a", "done", "b", "a", ""},
		QueuedChunks:      &[]string{"c2", "c1", "c2", "c3"},
	})

	if got, want := next.QueuedKeyConcepts, []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("queued concepts = %v, want %v", got, want)
	}
	if got, want := next.QueuedChunks, []string{"c2", "c3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("queued chunks = %v, want %v", got, want)
	}
}

func TestApplyReprunesCarriedQueueAgainstNewProcessed(t *testing.T) {
	st := testState(StepChunks)
	st.QueuedChunks = []string{"c1", "c2", "c3"}

	// No queue replacement: marking chunks processed must still expel them.
	next := st.Apply(Update{AddProcessedChunks: []string{"c1", "c3"}})
	if got, want := next.QueuedChunks, []string{"c2"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("queued chunks = %v, want %v", got, want)
	}
}

func TestApplyDoesNotMutateReceiver(t *testing.T) {
	st := testState(StepChunks)
	st.Notebook = []NotebookEntry{{ChunkID: "c0", Content: "first"}}
	st.ProcessedChunks = NewStringSet("c0")

	_ = st.Apply(Update{
		AppendNotebook:     []NotebookEntry{{ChunkID: "c1", Content: "second"}},
		AddProcessedChunks: []string{"c1"},
		AddStatus:          []string{"found it"},
		AppendAnnotations:  "notes so far",
	})

	if len(st.Notebook) != 1 {
		t.Errorf("receiver notebook grew to %d entries", len(st.Notebook))
	}
	if st.ProcessedChunks.Has("c1") {
		t.Errorf("receiver processed set gained c1")
	}
	if len(st.Status) != 0 || st.Annotations != "" {
		t.Errorf("receiver status/annotations mutated: %v %q", st.Status, st.Annotations)
	}
}

func TestApplyNeighboursExploredLatches(t *testing.T) {
	st := testState(StepKeyConcepts)
	next := st.Apply(Update{NeighboursExplored: true})
	if !next.NeighboursExplored {
		t.Fatal("flag not set")
	}
	next = next.Apply(Update{})
	if !next.NeighboursExplored {
		t.Fatal("flag reset by later update")
	}
}

func TestApplyJoinsAnnotationsWithNewlines(t *testing.T) {
	st := testState(StepAtomicFacts)
	next := st.Apply(Update{AppendAnnotations: "batch one"})
	next = next.Apply(Update{AppendAnnotations: "batch two"})
	if next.Annotations != "batch one\nbatch two" {
		t.Fatalf("annotations = %q", next.Annotations)
	}
}

func TestApplyOntologyDeduplicates(t *testing.T) {
	st := testState(StepKeyConcepts)
	next := st.Apply(Update{AppendOntology: []string{"m1", "m2"}})
	next = next.Apply(Update{AppendOntology: []string{"m2", "m3", ""}})
	if got, want := next.Ontology, []string{"m1", "m2", "m3"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("ontology = %v, want %v", got, want)
	}
}

func TestApplyAccumulatesTokens(t *testing.T) {
	st := testState(StepRationalPlan)
	next := st.Apply(Update{Tokens: TokenUsage{Input: 100, Output: 20}})
	next = next.Apply(Update{Tokens: TokenUsage{Input: 30, Output: 5}})
	if next.Tokens != (TokenUsage{Input: 130, Output: 25}) {
		t.Fatalf("tokens = %+v", next.Tokens)
	}
}
