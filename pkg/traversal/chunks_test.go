package traversal

import (
	"context"
	"reflect"
	"testing"
)

func chunkFixture() *fakeGraph {
	return &fakeGraph{
		chunks: map[string]Chunk{
			"c1": {ID: "c1", Content: "axon body"},
			"c2": {ID: "c2", Content: "dendrite body"},
			"c3": {ID: "c3", Content: "synapse body"},
		},
		next: map[string]string{"c1": "c2", "c2": "c3"},
		prev: map[string]string{"c2": "c1", "c3": "c2"},
	}
}

func TestChunkEvaluatorTakesNotesAndFollowsSequence(t *testing.T) {
	scorer := &fakeScorer{
		chunk: func(c Chunk, _ []NotebookEntry) (ChunkVerdict, error) {
			switch c.ID {
			case "c1":
				return ChunkVerdict{
					Note:   NotebookEntry{Content: "axons carry the spike", Reason: "mechanism"},
					Action: ActionQueueNext,
				}, nil
			default:
				return ChunkVerdict{Action: ActionSkip}, nil
			}
		},
	}

	st := testState(StepChunks)
	st.QueuedChunks = []string{"c1"}

	u, _, err := NewChunkEvaluator(chunkFixture(), scorer, NopLogger{}).Run(context.Background(), st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ChunkLevelDelta != 1 {
		t.Fatalf("chunk level delta = %d, want 1", u.ChunkLevelDelta)
	}
	if len(u.AppendNotebook) != 1 || u.AppendNotebook[0].ChunkID != "c1" {
		t.Fatalf("notebook = %+v", u.AppendNotebook)
	}
	if u.NextStep != StepChunks {
		t.Fatalf("next step = %q, want %q", u.NextStep, StepChunks)
	}
	if got, want := *u.QueuedChunks, []string{"c2"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("new queue = %v, want %v", got, want)
	}
	if got, want := u.AddProcessedChunks, []string{"c1"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("processed = %v, want %v", got, want)
	}
}

func TestChunkEvaluatorSkipLeavesNoNote(t *testing.T) {
	scorer := &fakeScorer{
		chunk: func(Chunk, []NotebookEntry) (ChunkVerdict, error) {
			return ChunkVerdict{
				Note:   NotebookEntry{Content: "would have been a note"},
				Action: ActionSkip,
				Status: "irrelevant",
			}, nil
		},
	}

	st := testState(StepChunks)
	st.QueuedChunks = []string{"c1"}

	u, _, err := NewChunkEvaluator(chunkFixture(), scorer, NopLogger{}).Run(context.Background(), st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(u.AppendNotebook) != 0 {
		t.Fatalf("skip action still wrote a note: %+v", u.AppendNotebook)
	}
	if len(u.AddStatus) != 0 {
		t.Fatalf("status kept outside answer action: %v", u.AddStatus)
	}
	if got, want := u.AddProcessedChunks, []string{"c1"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("processed = %v, want %v", got, want)
	}
	// nothing queued and no answer verdict: widen through the neighbours
	if u.NextStep != StepNeighbouringNodes {
		t.Fatalf("next step = %q, want %q", u.NextStep, StepNeighbouringNodes)
	}
}

func TestChunkEvaluatorBlankNoteStaysOutOfNotebook(t *testing.T) {
	scorer := &fakeScorer{
		chunk: func(Chunk, []NotebookEntry) (ChunkVerdict, error) {
			return ChunkVerdict{
				Note:   NotebookEntry{Content: "   "},
				Action: ActionAnswer,
				Status: "done",
			}, nil
		},
	}
	st := testState(StepChunks)
	st.QueuedChunks = []string{"c1"}

	u, _, err := NewChunkEvaluator(chunkFixture(), scorer, NopLogger{}).Run(context.Background(), st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(u.AppendNotebook) != 0 {
		t.Fatalf("blank note written: %+v", u.AppendNotebook)
	}
	if u.NextStep != StepAnswer {
		t.Fatalf("next step = %q, want %q", u.NextStep, StepAnswer)
	}
}

func TestChunkEvaluatorEmptyDeltaFallsBackToNeighbours(t *testing.T) {
	st := testState(StepChunks)

	u, _, err := NewChunkEvaluator(chunkFixture(), &fakeScorer{}, NopLogger{}).Run(context.Background(), st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ChunkLevelDelta != 1 {
		t.Fatalf("chunk level delta = %d, want 1", u.ChunkLevelDelta)
	}
	if u.NextStep != StepNeighbouringNodes {
		t.Fatalf("next step = %q, want %q", u.NextStep, StepNeighbouringNodes)
	}

	st.NeighboursExplored = true
	u, _, err = NewChunkEvaluator(chunkFixture(), &fakeScorer{}, NopLogger{}).Run(context.Background(), st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.NextStep != StepAnswer {
		t.Fatalf("next step after neighbours explored = %q, want %q", u.NextStep, StepAnswer)
	}
}

func TestChunkEvaluatorAnswerBeatsNeighboursButNotNewQueue(t *testing.T) {
	tests := []struct {
		name      string
		actions   map[string]ChunkAction
		explored  bool
		wantStep  Step
		wantQueue []string
	}{
		{
			name:      "new queue wins over answer",
			actions:   map[string]ChunkAction{"c1": ActionAnswer, "c2": ActionQueueNext},
			wantStep:  StepChunks,
			wantQueue: []string{"c3"},
		},
		{
			name:     "answer wins over neighbours",
			actions:  map[string]ChunkAction{"c1": ActionAnswer, "c2": ActionReadNeighbours},
			wantStep: StepAnswer,
		},
		{
			name:     "neighbours when not yet explored",
			actions:  map[string]ChunkAction{"c1": ActionReadNeighbours, "c2": ActionSkip},
			wantStep: StepNeighbouringNodes,
		},
		{
			name:     "all skips still head to neighbours first",
			actions:  map[string]ChunkAction{"c1": ActionSkip, "c2": ActionSkip},
			wantStep: StepNeighbouringNodes,
		},
		{
			name:     "neighbours exhausted falls back to answer",
			actions:  map[string]ChunkAction{"c1": ActionReadNeighbours, "c2": ActionSkip},
			explored: true,
			wantStep: StepAnswer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := &fakeScorer{
				chunk: func(c Chunk, _ []NotebookEntry) (ChunkVerdict, error) {
					return ChunkVerdict{Action: tt.actions[c.ID], Status: "answer ready"}, nil
				},
			}

			st := testState(StepChunks)
			st.QueuedChunks = []string{"c1", "c2"}
			st.NeighboursExplored = tt.explored

			u, _, err := NewChunkEvaluator(chunkFixture(), scorer, NopLogger{}).Run(context.Background(), st)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if u.NextStep != tt.wantStep {
				t.Fatalf("next step = %q, want %q", u.NextStep, tt.wantStep)
			}
			if tt.wantQueue != nil {
				if u.QueuedChunks == nil || !reflect.DeepEqual(*u.QueuedChunks, tt.wantQueue) {
					t.Fatalf("new queue = %v, want %v", u.QueuedChunks, tt.wantQueue)
				}
			}
		})
	}
}

func TestChunkEvaluatorKeepsStatusOnlyForAnswer(t *testing.T) {
	scorer := &fakeScorer{
		chunk: func(c Chunk, _ []NotebookEntry) (ChunkVerdict, error) {
			return ChunkVerdict{Action: ActionAnswer, Status: "the notebook has enough"}, nil
		},
	}
	st := testState(StepChunks)
	st.QueuedChunks = []string{"c1"}

	u, _, err := NewChunkEvaluator(chunkFixture(), scorer, NopLogger{}).Run(context.Background(), st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := u.AddStatus, []string{"the notebook has enough"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("status = %v, want %v", got, want)
	}
}

func TestChunkEvaluatorMissingChunkStillCountsProcessed(t *testing.T) {
	st := testState(StepChunks)
	st.QueuedChunks = []string{"ghost"}

	u, _, err := NewChunkEvaluator(chunkFixture(), &fakeScorer{}, NopLogger{}).Run(context.Background(), st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := u.AddProcessedChunks, []string{"ghost"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("processed = %v, want %v", got, want)
	}
	if u.NextStep != StepNeighbouringNodes {
		t.Fatalf("next step = %q, want %q", u.NextStep, StepNeighbouringNodes)
	}
}

func TestChunkEvaluatorDoesNotRequeueProcessedNeighbours(t *testing.T) {
	scorer := &fakeScorer{
		chunk: func(c Chunk, _ []NotebookEntry) (ChunkVerdict, error) {
			return ChunkVerdict{Action: ActionQueuePrevious}, nil
		},
	}
	st := testState(StepChunks)
	st.QueuedChunks = []string{"c2"}
	st.ProcessedChunks = NewStringSet("c1")

	u, _, err := NewChunkEvaluator(chunkFixture(), scorer, NopLogger{}).Run(context.Background(), st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.QueuedChunks != nil {
		t.Fatalf("already-read neighbour requeued: %v", *u.QueuedChunks)
	}
	if u.NextStep != StepNeighbouringNodes {
		t.Fatalf("next step = %q, want %q", u.NextStep, StepNeighbouringNodes)
	}
}

func TestChunkVectorRetrieverAppraisesEverything(t *testing.T) {
	graph := chunkFixture()
	graph.vectorChunks = []Chunk{
		{ID: "c1", Content: "axon body"},
		{ID: "c2", Content: "dendrite body"},
	}

	st := testState(StepChunksVector)
	u, _, err := NewChunkVectorRetriever(graph, &fakeScorer{}, NopLogger{}).Run(context.Background(), st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(u.AppendNotebook) != 2 {
		t.Fatalf("notebook = %+v, want 2 entries", u.AppendNotebook)
	}
	if got, want := u.AddProcessedChunks, []string{"c1", "c2"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("processed = %v, want %v", got, want)
	}
	if u.NextStep != "" {
		t.Fatalf("retriever routed on its own: %q", u.NextStep)
	}
}

func TestChunkVectorRetrieverEmptyStoreAnswersDirectly(t *testing.T) {
	st := testState(StepChunksVector)
	u, _, err := NewChunkVectorRetriever(&fakeGraph{}, &fakeScorer{}, NopLogger{}).Run(context.Background(), st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.NextStep != StepAnswer {
		t.Fatalf("next step = %q, want %q", u.NextStep, StepAnswer)
	}
}

func TestChunkVectorRetrieverSkipsProcessed(t *testing.T) {
	graph := chunkFixture()
	graph.vectorChunks = []Chunk{{ID: "c1", Content: "axon body"}, {ID: "c2", Content: "dendrite body"}}

	st := testState(StepChunksVector)
	st.ProcessedChunks = NewStringSet("c1")

	u, _, err := NewChunkVectorRetriever(graph, &fakeScorer{}, NopLogger{}).Run(context.Background(), st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := u.AddProcessedChunks, []string{"c2"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("processed = %v, want %v", got, want)
	}
}
