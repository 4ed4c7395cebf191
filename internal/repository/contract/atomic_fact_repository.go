package contract

import (
	"context"

	"graph-qa-be/internal/entity"
	"graph-qa-be/internal/repository/specification"

	"github.com/google/uuid"
)

type AtomicFactRepository interface {
	Create(ctx context.Context, fact *entity.AtomicFact) error
	CreateBulk(ctx context.Context, facts []*entity.AtomicFact) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByNoteId(ctx context.Context, noteId uuid.UUID) error
	DeleteAllByUserIdUnscoped(ctx context.Context, userId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AtomicFact, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AtomicFact, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// FindByConceptNames returns the facts linked to any of the named
	// concepts, excluding facts whose id or source chunk is in the skip
	// lists.
	FindByConceptNames(ctx context.Context, userId uuid.UUID, names []string, skipChunkIds, skipFactIds []uuid.UUID, limit int) ([]*entity.AtomicFact, error)
}
