package entity

import (
	"time"

	"github.com/google/uuid"
)

// ConceptEdge is an undirected adjacency between two key concepts,
// stored once per direction.
type ConceptEdge struct {
	Id        uuid.UUID
	SourceId  uuid.UUID
	TargetId  uuid.UUID
	UserId    uuid.UUID
	CreatedAt time.Time
}
