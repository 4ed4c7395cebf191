package contract

import (
	"context"

	"graph-qa-be/internal/entity"
	"graph-qa-be/internal/repository/specification"

	"github.com/google/uuid"
)

type TextChunkRepository interface {
	Create(ctx context.Context, chunk *entity.TextChunk) error
	CreateBulk(ctx context.Context, chunks []*entity.TextChunk) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByNoteId(ctx context.Context, noteId uuid.UUID) error
	DeleteAllByUserIdUnscoped(ctx context.Context, userId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TextChunk, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TextChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// FindAdjacent returns the chunk right before (offset -1) or after
	// (offset +1) the given chunk within the same note, nil when the note
	// ends there.
	FindAdjacent(ctx context.Context, chunkId uuid.UUID, offset int) (*entity.TextChunk, error)
	// SearchSimilar orders chunks by embedding distance to the query
	// vector, excluding the given chunk ids.
	SearchSimilar(ctx context.Context, embedding []float32, limit int, userId uuid.UUID, skipChunkIds []uuid.UUID) ([]*entity.TextChunk, error)
	// SearchSimilarWithScore returns chunks with their cosine similarity,
	// filtered by threshold.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, userId uuid.UUID, threshold float64) ([]*ScoredTextChunk, error)
}

// ScoredTextChunk pairs a chunk with its similarity to a query vector.
type ScoredTextChunk struct {
	Chunk      *entity.TextChunk
	Similarity float64
}

type ChunkEmbeddingRepository interface {
	Create(ctx context.Context, embedding *entity.ChunkEmbedding) error
	CreateBulk(ctx context.Context, embeddings []*entity.ChunkEmbedding) error
	DeleteByChunkIds(ctx context.Context, chunkIds []uuid.UUID) error
	DeleteAllByUserIdUnscoped(ctx context.Context, userId uuid.UUID) error
}
