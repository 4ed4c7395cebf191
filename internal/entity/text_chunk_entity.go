package entity

import (
	"time"

	"github.com/google/uuid"
)

// TextChunk is a contiguous span of a note. Sequence orders chunks within
// their note, which is what the previous/next navigation walks.
type TextChunk struct {
	Id        uuid.UUID
	Content   string
	NoteId    uuid.UUID
	UserId    uuid.UUID
	Sequence  int
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}

// ChunkEmbedding is the vector index entry for one text chunk.
type ChunkEmbedding struct {
	Id             uuid.UUID
	ChunkId        uuid.UUID
	EmbeddingValue []float32
	CreatedAt      time.Time
}
