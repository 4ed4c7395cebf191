package traversal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// fakeScorer implements Scorer with overridable behaviour per method.
// Unset methods return benign zero results.
type fakeScorer struct {
	refine   func(history []ChatTurn, question string) (string, error)
	plan     func(question, previousAnalysis string) (string, error)
	score    func(candidates []Concept) ([]ConceptScore, error)
	facts    func(batch []Fact) (FactBatchResult, error)
	chunk    func(chunk Chunk, notebook []NotebookEntry) (ChunkVerdict, error)
	appraise func(chunk Chunk) (NotebookEntry, string, error)
}

var unitUsage = TokenUsage{Input: 10, Output: 5}

func (f *fakeScorer) RefineQuestion(_ context.Context, history []ChatTurn, question string) (string, TokenUsage, error) {
	if f.refine == nil {
		return question, unitUsage, nil
	}
	out, err := f.refine(history, question)
	return out, unitUsage, err
}

func (f *fakeScorer) PlanRetrieval(_ context.Context, question, previousAnalysis string) (string, TokenUsage, error) {
	if f.plan == nil {
		return "plan for " + question, unitUsage, nil
	}
	out, err := f.plan(question, previousAnalysis)
	return out, unitUsage, err
}

func (f *fakeScorer) ScoreConcepts(_ context.Context, _, _ string, candidates []Concept) ([]ConceptScore, TokenUsage, error) {
	if f.score == nil {
		out := make([]ConceptScore, len(candidates))
		for i, c := range candidates {
			out[i] = ConceptScore{Name: c.Name, Score: 50}
		}
		return out, unitUsage, nil
	}
	out, err := f.score(candidates)
	return out, unitUsage, err
}

func (f *fakeScorer) EvaluateFacts(_ context.Context, _, _ string, batch []Fact) (FactBatchResult, TokenUsage, error) {
	if f.facts == nil {
		return FactBatchResult{}, unitUsage, nil
	}
	out, err := f.facts(batch)
	return out, unitUsage, err
}

func (f *fakeScorer) EvaluateChunk(_ context.Context, _, _ string, chunk Chunk, notebook []NotebookEntry) (ChunkVerdict, TokenUsage, error) {
	if f.chunk == nil {
		return ChunkVerdict{Action: ActionSkip}, unitUsage, nil
	}
	out, err := f.chunk(chunk, notebook)
	return out, unitUsage, err
}

func (f *fakeScorer) AppraiseChunk(_ context.Context, _ string, chunk Chunk) (NotebookEntry, string, TokenUsage, error) {
	if f.appraise == nil {
		return NotebookEntry{Content: "note on " + chunk.ID}, "", unitUsage, nil
	}
	note, status, err := f.appraise(chunk)
	return note, status, unitUsage, err
}

// fakeGraph backs all three repositories with in-memory data.
type fakeGraph struct {
	potentialConcepts []Concept
	neighbours        []Concept
	facts             []Fact
	chunks            map[string]Chunk
	next              map[string]string
	prev              map[string]string
	vectorChunks      []Chunk

	conceptErr error
	factErr    error
	chunkErr   error
}

func (g *fakeGraph) FindPotentialKeyConcepts(context.Context, string, Limits) ([]Concept, error) {
	return g.potentialConcepts, g.conceptErr
}

func (g *fakeGraph) FindNeighboursByKeyConcepts(context.Context, []string, Limits) ([]Concept, error) {
	return g.neighbours, g.conceptErr
}

func (g *fakeGraph) FindAtomicFactsByKeyConcepts(_ context.Context, concepts []string, skipChunkIDs, skipFactIDs []string, _ Limits) ([]Fact, error) {
	if g.factErr != nil {
		return nil, g.factErr
	}
	skipChunks := NewStringSet(skipChunkIDs...)
	skipFacts := NewStringSet(skipFactIDs...)
	out := make([]Fact, 0, len(g.facts))
	for _, f := range g.facts {
		if skipChunks.Has(f.ChunkID) || skipFacts.Has(f.ID) {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func (g *fakeGraph) FindChunkByID(_ context.Context, id string) (*Chunk, error) {
	if g.chunkErr != nil {
		return nil, g.chunkErr
	}
	c, ok := g.chunks[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (g *fakeGraph) FindSubsequentChunkID(_ context.Context, id string) (string, error) {
	return g.next[id], nil
}

func (g *fakeGraph) FindPreviousChunkID(_ context.Context, id string) (string, error) {
	return g.prev[id], nil
}

func (g *fakeGraph) FindPotentialChunks(_ context.Context, _ string, skipChunkIDs []string, _ Limits) ([]Chunk, error) {
	if g.chunkErr != nil {
		return nil, g.chunkErr
	}
	skip := NewStringSet(skipChunkIDs...)
	out := make([]Chunk, 0, len(g.vectorChunks))
	for _, c := range g.vectorChunks {
		if skip.Has(c.ID) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func testState(entry Step) State {
	return NewState(uuid.UUID{1}, uuid.UUID{2}, "how do neurons fire?", nil, entry, Limits{
		MaxConcepts:   30,
		MaxFacts:      200,
		MaxChunks:     5,
		MaxNeighbours: 30,
	})
}

func conceptNames(n int) []Concept {
	out := make([]Concept, n)
	for i := range out {
		out[i] = Concept{Name: fmt.Sprintf("concept-%02d", i)}
	}
	return out
}
