package contract

import (
	"context"

	"graph-qa-be/internal/entity"
	"graph-qa-be/internal/repository/specification"

	"github.com/google/uuid"
)

type KeyConceptRepository interface {
	Create(ctx context.Context, concept *entity.KeyConcept) error
	CreateBulk(ctx context.Context, concepts []*entity.KeyConcept) error
	Update(ctx context.Context, concept *entity.KeyConcept) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAllByUserIdUnscoped(ctx context.Context, userId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KeyConcept, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KeyConcept, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// LinkFacts records which atomic facts mention the concept.
	LinkFacts(ctx context.Context, conceptId uuid.UUID, factIds []uuid.UUID) error
	// LinkNeighbours stores adjacency edges between the concept and its peers.
	LinkNeighbours(ctx context.Context, userId, conceptId uuid.UUID, neighbourIds []uuid.UUID) error
	// SearchSimilar orders concepts by embedding distance to the query vector.
	SearchSimilar(ctx context.Context, embedding []float32, limit int, userId uuid.UUID) ([]*entity.KeyConcept, error)
	// FindNeighbours returns the concepts one edge away from any of the named
	// concepts, in either direction.
	FindNeighbours(ctx context.Context, userId uuid.UUID, names []string, limit int) ([]*entity.KeyConcept, error)
}
