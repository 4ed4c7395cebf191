package entity

import (
	"time"

	"github.com/google/uuid"
)

// AtomicFact is a single self-contained statement extracted from one text
// chunk and linked to the key concepts it mentions.
type AtomicFact struct {
	Id         uuid.UUID
	Content    string
	ChunkId    uuid.UUID
	UserId     uuid.UUID
	ConceptIds []uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}
