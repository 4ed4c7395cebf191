package scoring

import (
	"context"
	"strings"
	"testing"

	"graph-qa-be/pkg/llm"
	"graph-qa-be/pkg/traversal"
)

type cannedProvider struct {
	response string
	err      error
	prompts  []string
}

func (p *cannedProvider) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	if len(history) > 0 {
		p.prompts = append(p.prompts, history[len(history)-1].Content)
	}
	return p.response, p.err
}

func (p *cannedProvider) Generate(_ context.Context, prompt string, _ ...llm.Option) (string, error) {
	p.prompts = append(p.prompts, prompt)
	return p.response, p.err
}

func TestRefineQuestionExtractsWrappedJSON(t *testing.T) {
	provider := &cannedProvider{
		response: "Sure! Here is the JSON:\n```json\n{\"refined_question\": \"how do neurons fire?\"}\n```",
	}
	scorer := NewScorer(provider, traversal.NopLogger{})

	refined, usage, err := scorer.RefineQuestion(context.Background(),
		[]traversal.ChatTurn{{Role: "user", Content: "tell me about neurons"}}, "how do they fire?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refined != "how do neurons fire?" {
		t.Fatalf("refined = %q", refined)
	}
	if usage.Input == 0 || usage.Output == 0 {
		t.Fatalf("usage not counted: %+v", usage)
	}
}

func TestPlanRetrievalRejectsEmptyPlan(t *testing.T) {
	provider := &cannedProvider{response: `{"rational_plan": "  "}`}
	scorer := NewScorer(provider, traversal.NopLogger{})

	if _, _, err := scorer.PlanRetrieval(context.Background(), "q", ""); err == nil {
		t.Fatal("empty plan accepted")
	}
}

func TestScoreConceptsClampsAndDropsBlanks(t *testing.T) {
	provider := &cannedProvider{response: `{
		"concepts": [
			{"name": "axon", "score": 150, "is_source": true},
			{"name": "  ", "score": 50},
			{"name": "myelin", "score": -3}
		]
	}`}
	scorer := NewScorer(provider, traversal.NopLogger{})

	scores, _, err := scorer.ScoreConcepts(context.Background(), "q", "p",
		[]traversal.Concept{{Name: "axon"}, {Name: "myelin"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("scores = %+v", scores)
	}
	if scores[0].Score != 100 || !scores[0].IsSource {
		t.Errorf("clamp high failed: %+v", scores[0])
	}
	if scores[1].Score != 0 {
		t.Errorf("clamp low failed: %+v", scores[1])
	}
}

func TestEvaluateFactsFiltersBlankChunkIDs(t *testing.T) {
	provider := &cannedProvider{response: `{
		"status": "looking good",
		"annotation": "facts point at c1",
		"chunk_ids": ["c1", " ", "c2"]
	}`}
	scorer := NewScorer(provider, traversal.NopLogger{})

	result, _, err := scorer.EvaluateFacts(context.Background(), "q", "p",
		[]traversal.Fact{{ID: "f1", ChunkID: "c1", Content: "a fact"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.ChunkIDs) != 2 {
		t.Fatalf("chunk ids = %v", result.ChunkIDs)
	}
}

func TestEvaluateChunkNormalizesAction(t *testing.T) {
	tests := []struct {
		name   string
		action string
		want   traversal.ChunkAction
	}{
		{"verbatim", "queue_next_chunk", traversal.ActionQueueNext},
		{"uppercase", "ANSWER", traversal.ActionAnswer},
		{"padded", "  skip  ", traversal.ActionSkip},
		{"unknown downgrades to skip", "teleport", traversal.ActionSkip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &cannedProvider{
				response: `{"note": "n", "reason": "r", "action": "` + tt.action + `", "status": "s"}`,
			}
			scorer := NewScorer(provider, traversal.NopLogger{})

			verdict, _, err := scorer.EvaluateChunk(context.Background(), "q", "p",
				traversal.Chunk{ID: "c1", Content: "body"}, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if verdict.Action != tt.want {
				t.Fatalf("action = %q, want %q", verdict.Action, tt.want)
			}
		})
	}
}

func TestEvaluateChunkMalformedJSONFails(t *testing.T) {
	provider := &cannedProvider{response: "the passage is about axons"}
	scorer := NewScorer(provider, traversal.NopLogger{})

	if _, _, err := scorer.EvaluateChunk(context.Background(), "q", "p",
		traversal.Chunk{ID: "c1", Content: "body"}, nil); err == nil {
		t.Fatal("prose response accepted as verdict")
	}
}

func TestFactPromptCarriesChunkIDs(t *testing.T) {
	provider := &cannedProvider{response: `{"status":"","annotation":"","chunk_ids":[]}`}
	scorer := NewScorer(provider, traversal.NopLogger{})

	_, _, err := scorer.EvaluateFacts(context.Background(), "q", "p", []traversal.Fact{
		{ID: "f1", ChunkID: "chunk-abc", Content: "a fact"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(provider.prompts) != 1 || !strings.Contains(provider.prompts[0], "chunk-abc") {
		t.Fatal("fact prompt missing chunk id")
	}
}

func TestResponderAnswersFromNotebook(t *testing.T) {
	provider := &cannedProvider{response: "Neurons fire via action potentials."}
	responder := NewResponder(provider)

	st := traversal.State{
		Question: "how do neurons fire?",
		Notebook: []traversal.NotebookEntry{{Content: "spikes ride axons", Reason: "mechanism"}},
	}
	answer, usage, err := responder.Answer(context.Background(), st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer == "" || usage.Input == 0 {
		t.Fatalf("answer = %q usage = %+v", answer, usage)
	}
	if !strings.Contains(provider.prompts[0], "spikes ride axons") {
		t.Fatal("answer prompt missing notebook evidence")
	}
}
