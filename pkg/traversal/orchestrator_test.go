package traversal

import (
	"context"
	"errors"
	"testing"
)

func newTestOrchestrator(graph *fakeGraph, scorer *fakeScorer) *Orchestrator {
	log := NopLogger{}
	return NewOrchestrator(
		NewQuestionRefiner(scorer, log),
		NewRationalPlanner(scorer, log),
		NewKeyConceptSelector(graph, scorer, log),
		NewAtomicFactFilter(graph, scorer, log),
		NewChunkEvaluator(graph, scorer, log),
		NewChunkVectorRetriever(graph, scorer, log),
		log,
	)
}

// Full graph walk: refine, plan, select concepts, filter facts, read one
// chunk, answer.
func TestOrchestratorWalksGraphToAnswer(t *testing.T) {
	graph := &fakeGraph{
		potentialConcepts: []Concept{{Name: "action potential"}, {Name: "myelin"}},
		facts: []Fact{
			{ID: "f1", ChunkID: "c1", Content: "spikes travel down axons"},
		},
		chunks: map[string]Chunk{"c1": {ID: "c1", Content: "the axon carries the spike"}},
	}
	scorer := &fakeScorer{
		refine: func(_ []ChatTurn, q string) (string, error) { return "how does a neuron fire?", nil },
		facts: func(batch []Fact) (FactBatchResult, error) {
			return FactBatchResult{Annotation: "c1 is on point", ChunkIDs: []string{"c1"}}, nil
		},
		chunk: func(c Chunk, _ []NotebookEntry) (ChunkVerdict, error) {
			return ChunkVerdict{
				Note:   NotebookEntry{Content: "spike rides the axon", Reason: "direct answer"},
				Action: ActionAnswer,
				Status: "enough evidence collected",
			}, nil
		},
	}

	st := testState(StepQuestionRefine)
	st.History = []ChatTurn{{Role: "user", Content: "we were talking about neurons"}}

	var events []Event
	final, err := newTestOrchestrator(graph, scorer).Run(context.Background(), st, 20, func(ev Event) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !final.Done() {
		t.Fatalf("session not terminal: %q", final.NextStep)
	}
	if final.Question != "how does a neuron fire?" {
		t.Errorf("question not refined: %q", final.Question)
	}
	if final.RationalPlan == "" {
		t.Error("no rational plan recorded")
	}
	if final.Hops != 5 {
		t.Errorf("hops = %d, want 5", final.Hops)
	}
	if len(final.Notebook) != 1 || final.Notebook[0].ChunkID != "c1" {
		t.Errorf("notebook = %+v", final.Notebook)
	}
	if !final.Status.Has("enough evidence collected") {
		t.Errorf("status lost: %v", final.Status)
	}
	if !final.ProcessedKeyConcepts.Has("action potential") || !final.ProcessedChunks.Has("c1") {
		t.Errorf("processed sets incomplete: %v %v", final.ProcessedKeyConcepts, final.ProcessedChunks)
	}
	if final.Tokens.Input == 0 || final.Tokens.Output == 0 {
		t.Errorf("token usage not accumulated: %+v", final.Tokens)
	}
	if len(events) == 0 {
		t.Error("no progress events delivered")
	}
}

// An empty graph must still terminate quickly instead of looping.
func TestOrchestratorEmptyGraphTerminates(t *testing.T) {
	st := testState(StepRationalPlan)
	final, err := newTestOrchestrator(&fakeGraph{}, &fakeScorer{}).Run(context.Background(), st, 20, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !final.Done() {
		t.Fatalf("session not terminal: %q", final.NextStep)
	}
	if final.Hops > 3 {
		t.Fatalf("empty graph burned %d hops", final.Hops)
	}
}

func TestOrchestratorVectorPathIsTerminal(t *testing.T) {
	graph := &fakeGraph{vectorChunks: []Chunk{{ID: "c1", Content: "axon body"}}}

	st := testState(StepChunksVector)
	final, err := newTestOrchestrator(graph, &fakeScorer{}).Run(context.Background(), st, 20, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !final.Done() {
		t.Fatalf("vector path did not terminate: %q", final.NextStep)
	}
	if final.Hops != 1 {
		t.Fatalf("hops = %d, want 1", final.Hops)
	}
	if len(final.Notebook) != 1 {
		t.Fatalf("notebook = %+v", final.Notebook)
	}
}

func TestOrchestratorHardCeilingForcesAnswer(t *testing.T) {
	// Concepts and facts keep feeding each other chunks that always queue
	// their successor, so only the ceiling can stop the walk.
	graph := &fakeGraph{
		potentialConcepts: conceptNames(3),
		facts:             []Fact{{ID: "f1", ChunkID: "c1", Content: "fact"}},
		chunks: map[string]Chunk{
			"c1": {ID: "c1", Content: "body"},
			"c2": {ID: "c2", Content: "body"},
		},
		next: map[string]string{"c1": "c2", "c2": "c1"},
	}
	scorer := &fakeScorer{
		facts: func([]Fact) (FactBatchResult, error) {
			return FactBatchResult{ChunkIDs: []string{"c1"}}, nil
		},
		chunk: func(c Chunk, _ []NotebookEntry) (ChunkVerdict, error) {
			return ChunkVerdict{Action: ActionQueueNext}, nil
		},
	}

	st := testState(StepRationalPlan)
	final, err := newTestOrchestrator(graph, scorer).Run(context.Background(), st, 4, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !final.Done() {
		t.Fatalf("session not terminal: %q", final.NextStep)
	}
	if final.Hops > 4 {
		t.Fatalf("ceiling ignored, hops = %d", final.Hops)
	}
}

func TestOrchestratorDispatchOnTerminalState(t *testing.T) {
	st := testState(StepAnswer)
	_, _, err := newTestOrchestrator(&fakeGraph{}, &fakeScorer{}).Dispatch(context.Background(), st)
	if !errors.Is(err, ErrDone) {
		t.Fatalf("err = %v, want ErrDone", err)
	}
}

func TestOrchestratorRejectsUnknownStep(t *testing.T) {
	st := testState(Step("time_travel"))
	_, _, err := newTestOrchestrator(&fakeGraph{}, &fakeScorer{}).Dispatch(context.Background(), st)
	if err == nil {
		t.Fatal("unknown step accepted")
	}
}

func TestOrchestratorSoftLimitStopsExpansion(t *testing.T) {
	graph := &fakeGraph{potentialConcepts: conceptNames(2)}
	st := testState(StepKeyConcepts)
	st.Hops = HopSoftLimit

	final, err := newTestOrchestrator(graph, &fakeScorer{}).Run(context.Background(), st, 30, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if final.Hops != HopSoftLimit+1 {
		t.Fatalf("hops = %d, want %d", final.Hops, HopSoftLimit+1)
	}
	if len(final.QueuedKeyConcepts) != 0 {
		t.Fatalf("guarded stage still queued work: %v", final.QueuedKeyConcepts)
	}
}
