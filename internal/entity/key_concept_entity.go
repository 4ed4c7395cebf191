package entity

import (
	"time"

	"github.com/google/uuid"
)

// KeyConcept is a node of the user's knowledge graph. NoteIds are the
// source notes the concept was extracted from.
type KeyConcept struct {
	Id             uuid.UUID
	Name           string
	UserId         uuid.UUID
	NoteIds        []uuid.UUID
	EmbeddingValue []float32
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
