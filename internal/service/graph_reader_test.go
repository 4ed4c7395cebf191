package service

import (
	"context"
	"testing"

	"graph-qa-be/internal/entity"
	"graph-qa-be/internal/repository/contract"
	"graph-qa-be/internal/repository/specification"
	"graph-qa-be/pkg/embedding"
	"graph-qa-be/pkg/traversal"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// Fakes embed the contract interface so only the methods a test exercises
// need overriding.

type fakeConceptRepo struct {
	contract.KeyConceptRepository
	similar    []*entity.KeyConcept
	neighbours []*entity.KeyConcept
	gotNames   []string
}

func (f *fakeConceptRepo) SearchSimilar(_ context.Context, _ []float32, _ int, _ uuid.UUID) ([]*entity.KeyConcept, error) {
	return f.similar, nil
}

func (f *fakeConceptRepo) FindNeighbours(_ context.Context, _ uuid.UUID, names []string, _ int) ([]*entity.KeyConcept, error) {
	f.gotNames = names
	return f.neighbours, nil
}

type fakeFactRepo struct {
	contract.AtomicFactRepository
	facts        []*entity.AtomicFact
	gotSkipFacts []uuid.UUID
}

func (f *fakeFactRepo) FindByConceptNames(_ context.Context, _ uuid.UUID, _ []string, _, skipFactIds []uuid.UUID, _ int) ([]*entity.AtomicFact, error) {
	f.gotSkipFacts = skipFactIds
	return f.facts, nil
}

type fakeChunkRepo struct {
	contract.TextChunkRepository
	byId     map[uuid.UUID]*entity.TextChunk
	adjacent map[int]*entity.TextChunk
}

func (f *fakeChunkRepo) FindOne(_ context.Context, _ ...specification.Specification) (*entity.TextChunk, error) {
	for _, c := range f.byId {
		return c, nil
	}
	return nil, nil
}

func (f *fakeChunkRepo) FindAdjacent(_ context.Context, _ uuid.UUID, offset int) (*entity.TextChunk, error) {
	return f.adjacent[offset], nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Generate(_ string, _ string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: make([]float32, 768)},
	}, nil
}

func TestGraphReaderConceptsCarryNoteIds(t *testing.T) {
	noteId := uuid.New()
	concepts := &fakeConceptRepo{
		similar: []*entity.KeyConcept{
			{Id: uuid.New(), Name: "Nile", NoteIds: []uuid.UUID{noteId}},
		},
	}

	reader := NewGraphReader(uuid.New(), concepts, &fakeFactRepo{}, &fakeChunkRepo{}, fakeEmbedder{})

	out, err := reader.FindPotentialKeyConcepts(context.Background(), "longest river?", traversal.Limits{MaxConcepts: 30})
	assert.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, "Nile", out[0].Name)
	assert.Equal(t, []string{noteId.String()}, out[0].MetadataIDs)
}

func TestGraphReaderNeighboursPassNamesThrough(t *testing.T) {
	concepts := &fakeConceptRepo{
		neighbours: []*entity.KeyConcept{{Name: "Egypt"}, {Name: "Africa"}},
	}

	reader := NewGraphReader(uuid.New(), concepts, &fakeFactRepo{}, &fakeChunkRepo{}, fakeEmbedder{})

	out, err := reader.FindNeighboursByKeyConcepts(context.Background(), []string{"Nile"}, traversal.Limits{MaxNeighbours: 30})
	assert.NoError(t, err)
	assert.Equal(t, []string{"Nile"}, concepts.gotNames)
	assert.Len(t, out, 2)
}

func TestGraphReaderFactsDropUnparseableSkipIds(t *testing.T) {
	factId := uuid.New()
	chunkId := uuid.New()
	facts := &fakeFactRepo{
		facts: []*entity.AtomicFact{
			{Id: factId, ChunkId: chunkId, Content: "The Nile flows north."},
		},
	}

	reader := NewGraphReader(uuid.New(), &fakeConceptRepo{}, facts, &fakeChunkRepo{}, fakeEmbedder{})

	skipFact := uuid.New()
	out, err := reader.FindAtomicFactsByKeyConcepts(
		context.Background(),
		[]string{"Nile"},
		nil,
		[]string{skipFact.String(), "not-a-uuid"},
		traversal.Limits{MaxFacts: 200},
	)
	assert.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, factId.String(), out[0].ID)
	assert.Equal(t, chunkId.String(), out[0].ChunkID)
	// the malformed id must be silently dropped, not passed to the repo
	assert.Equal(t, []uuid.UUID{skipFact}, facts.gotSkipFacts)
}

func TestGraphReaderAdjacentChunkRespectsOwnership(t *testing.T) {
	userId := uuid.New()
	next := &entity.TextChunk{Id: uuid.New(), UserId: userId, Sequence: 2}
	foreign := &entity.TextChunk{Id: uuid.New(), UserId: uuid.New(), Sequence: 0}
	chunks := &fakeChunkRepo{adjacent: map[int]*entity.TextChunk{1: next, -1: foreign}}

	reader := NewGraphReader(userId, &fakeConceptRepo{}, &fakeFactRepo{}, chunks, fakeEmbedder{})

	id, err := reader.FindSubsequentChunkID(context.Background(), uuid.New().String())
	assert.NoError(t, err)
	assert.Equal(t, next.Id.String(), id)

	// a chunk owned by another user reads as "no previous chunk"
	id, err = reader.FindPreviousChunkID(context.Background(), uuid.New().String())
	assert.NoError(t, err)
	assert.Empty(t, id)

	// malformed ids are absent, not errors
	id, err = reader.FindSubsequentChunkID(context.Background(), "not-a-uuid")
	assert.NoError(t, err)
	assert.Empty(t, id)
}
