package service

import (
	"context"
	"fmt"

	"graph-qa-be/internal/entity"
	"graph-qa-be/internal/repository/contract"
	"graph-qa-be/internal/repository/specification"
	"graph-qa-be/pkg/embedding"
	"graph-qa-be/pkg/traversal"

	"github.com/google/uuid"
)

// GraphReader adapts the persistence layer to the traversal stage
// interfaces for one user's graph. Ids cross the boundary as strings;
// anything that does not parse back to a UUID is treated as absent.
type GraphReader struct {
	userId    uuid.UUID
	concepts  contract.KeyConceptRepository
	facts     contract.AtomicFactRepository
	chunks    contract.TextChunkRepository
	embedding embedding.EmbeddingProvider
}

var (
	_ traversal.ConceptRepository = &GraphReader{}
	_ traversal.FactRepository    = &GraphReader{}
	_ traversal.ChunkRepository   = &GraphReader{}
)

func NewGraphReader(
	userId uuid.UUID,
	concepts contract.KeyConceptRepository,
	facts contract.AtomicFactRepository,
	chunks contract.TextChunkRepository,
	embeddingProvider embedding.EmbeddingProvider,
) *GraphReader {
	return &GraphReader{
		userId:    userId,
		concepts:  concepts,
		facts:     facts,
		chunks:    chunks,
		embedding: embeddingProvider,
	}
}

func (g *GraphReader) FindPotentialKeyConcepts(ctx context.Context, question string, limits traversal.Limits) ([]traversal.Concept, error) {
	vector, err := g.embedQuery(question)
	if err != nil {
		return nil, err
	}
	concepts, err := g.concepts.SearchSimilar(ctx, vector, limits.MaxConcepts, g.userId)
	if err != nil {
		return nil, err
	}
	return toTraversalConcepts(concepts), nil
}

func (g *GraphReader) FindNeighboursByKeyConcepts(ctx context.Context, names []string, limits traversal.Limits) ([]traversal.Concept, error) {
	concepts, err := g.concepts.FindNeighbours(ctx, g.userId, names, limits.MaxNeighbours)
	if err != nil {
		return nil, err
	}
	return toTraversalConcepts(concepts), nil
}

func (g *GraphReader) FindAtomicFactsByKeyConcepts(ctx context.Context, names []string, skipChunkIDs, skipFactIDs []string, limits traversal.Limits) ([]traversal.Fact, error) {
	facts, err := g.facts.FindByConceptNames(ctx, g.userId, names,
		parseIds(skipChunkIDs), parseIds(skipFactIDs), limits.MaxFacts)
	if err != nil {
		return nil, err
	}

	out := make([]traversal.Fact, len(facts))
	for i, f := range facts {
		out[i] = traversal.Fact{
			ID:      f.Id.String(),
			ChunkID: f.ChunkId.String(),
			Content: f.Content,
		}
	}
	return out, nil
}

func (g *GraphReader) FindChunkByID(ctx context.Context, id string) (*traversal.Chunk, error) {
	chunkId, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	chunk, err := g.chunks.FindOne(ctx,
		specification.ByID{ID: chunkId},
		specification.ByUserID{UserID: g.userId})
	if err != nil {
		return nil, err
	}
	if chunk == nil {
		return nil, nil
	}
	return &traversal.Chunk{ID: chunk.Id.String(), Content: chunk.Content}, nil
}

func (g *GraphReader) FindSubsequentChunkID(ctx context.Context, id string) (string, error) {
	return g.adjacentChunkId(ctx, id, 1)
}

func (g *GraphReader) FindPreviousChunkID(ctx context.Context, id string) (string, error) {
	return g.adjacentChunkId(ctx, id, -1)
}

func (g *GraphReader) FindPotentialChunks(ctx context.Context, question string, skipChunkIDs []string, limits traversal.Limits) ([]traversal.Chunk, error) {
	vector, err := g.embedQuery(question)
	if err != nil {
		return nil, err
	}
	chunks, err := g.chunks.SearchSimilar(ctx, vector, limits.MaxChunks, g.userId, parseIds(skipChunkIDs))
	if err != nil {
		return nil, err
	}

	out := make([]traversal.Chunk, len(chunks))
	for i, c := range chunks {
		out[i] = traversal.Chunk{ID: c.Id.String(), Content: c.Content}
	}
	return out, nil
}

func (g *GraphReader) adjacentChunkId(ctx context.Context, id string, offset int) (string, error) {
	chunkId, err := uuid.Parse(id)
	if err != nil {
		return "", nil
	}
	chunk, err := g.chunks.FindAdjacent(ctx, chunkId, offset)
	if err != nil {
		return "", err
	}
	if chunk == nil || chunk.UserId != g.userId {
		return "", nil
	}
	return chunk.Id.String(), nil
}

func (g *GraphReader) embedQuery(question string) ([]float32, error) {
	resp, err := g.embedding.Generate(question, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("question embedding failed: %w", err)
	}
	return resp.Embedding.Values, nil
}

func toTraversalConcepts(concepts []*entity.KeyConcept) []traversal.Concept {
	out := make([]traversal.Concept, len(concepts))
	for i, c := range concepts {
		metadataIds := make([]string, len(c.NoteIds))
		for j, noteId := range c.NoteIds {
			metadataIds[j] = noteId.String()
		}
		out[i] = traversal.Concept{Name: c.Name, MetadataIDs: metadataIds}
	}
	return out
}

func parseIds(ids []string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, raw := range ids {
		if id, err := uuid.Parse(raw); err == nil {
			out = append(out, id)
		}
	}
	return out
}
