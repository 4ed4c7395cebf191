package mapper

import (
	"encoding/json"
	"time"

	"graph-qa-be/internal/entity"
	"graph-qa-be/internal/model"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type GraphMapper struct{}

func NewGraphMapper() *GraphMapper {
	return &GraphMapper{}
}

func (m *GraphMapper) ConceptToEntity(e *model.KeyConcept) *entity.KeyConcept {
	if e == nil {
		return nil
	}

	var deletedAt *time.Time
	if e.DeletedAt.Valid {
		t := e.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	var noteIds []uuid.UUID
	if len(e.NoteIds) > 0 {
		_ = json.Unmarshal(e.NoteIds, &noteIds)
	}

	return &entity.KeyConcept{
		Id:             e.Id,
		Name:           e.Name,
		UserId:         e.UserId,
		NoteIds:        noteIds,
		EmbeddingValue: e.EmbeddingValue.Slice(),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
		IsDeleted:      e.DeletedAt.Valid,
	}
}

func (m *GraphMapper) ConceptToModel(e *entity.KeyConcept) *model.KeyConcept {
	if e == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if e.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *e.DeletedAt, Valid: true}
	} else if e.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	noteIds := datatypes.JSON("[]")
	if len(e.NoteIds) > 0 {
		if raw, err := json.Marshal(e.NoteIds); err == nil {
			noteIds = raw
		}
	}

	return &model.KeyConcept{
		Id:             e.Id,
		Name:           e.Name,
		UserId:         e.UserId,
		NoteIds:        noteIds,
		EmbeddingValue: pgvector.NewVector(e.EmbeddingValue),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
	}
}

func (m *GraphMapper) ConceptsToEntities(models []*model.KeyConcept) []*entity.KeyConcept {
	entities := make([]*entity.KeyConcept, len(models))
	for i, e := range models {
		entities[i] = m.ConceptToEntity(e)
	}
	return entities
}

func (m *GraphMapper) FactToEntity(e *model.AtomicFact) *entity.AtomicFact {
	if e == nil {
		return nil
	}

	var deletedAt *time.Time
	if e.DeletedAt.Valid {
		t := e.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	return &entity.AtomicFact{
		Id:        e.Id,
		Content:   e.Content,
		ChunkId:   e.ChunkId,
		UserId:    e.UserId,
		CreatedAt: e.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
		IsDeleted: e.DeletedAt.Valid,
	}
}

func (m *GraphMapper) FactToModel(e *entity.AtomicFact) *model.AtomicFact {
	if e == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if e.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *e.DeletedAt, Valid: true}
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &model.AtomicFact{
		Id:        e.Id,
		Content:   e.Content,
		ChunkId:   e.ChunkId,
		UserId:    e.UserId,
		CreatedAt: e.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
	}
}

func (m *GraphMapper) FactsToEntities(models []*model.AtomicFact) []*entity.AtomicFact {
	entities := make([]*entity.AtomicFact, len(models))
	for i, e := range models {
		entities[i] = m.FactToEntity(e)
	}
	return entities
}

func (m *GraphMapper) ChunkToEntity(e *model.TextChunk) *entity.TextChunk {
	if e == nil {
		return nil
	}

	var deletedAt *time.Time
	if e.DeletedAt.Valid {
		t := e.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	return &entity.TextChunk{
		Id:        e.Id,
		Content:   e.Content,
		NoteId:    e.NoteId,
		UserId:    e.UserId,
		Sequence:  e.Sequence,
		CreatedAt: e.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
		IsDeleted: e.DeletedAt.Valid,
	}
}

func (m *GraphMapper) ChunkToModel(e *entity.TextChunk) *model.TextChunk {
	if e == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if e.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *e.DeletedAt, Valid: true}
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &model.TextChunk{
		Id:        e.Id,
		Content:   e.Content,
		NoteId:    e.NoteId,
		UserId:    e.UserId,
		Sequence:  e.Sequence,
		CreatedAt: e.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
	}
}

func (m *GraphMapper) ChunksToEntities(models []*model.TextChunk) []*entity.TextChunk {
	entities := make([]*entity.TextChunk, len(models))
	for i, e := range models {
		entities[i] = m.ChunkToEntity(e)
	}
	return entities
}

func (m *GraphMapper) EmbeddingToModel(e *entity.ChunkEmbedding) *model.ChunkEmbedding {
	if e == nil {
		return nil
	}
	return &model.ChunkEmbedding{
		Id:             e.Id,
		ChunkId:        e.ChunkId,
		EmbeddingValue: pgvector.NewVector(e.EmbeddingValue),
		CreatedAt:      e.CreatedAt,
	}
}

func (m *GraphMapper) EdgeToModel(e *entity.ConceptEdge) *model.ConceptEdge {
	if e == nil {
		return nil
	}
	return &model.ConceptEdge{
		Id:        e.Id,
		SourceId:  e.SourceId,
		TargetId:  e.TargetId,
		UserId:    e.UserId,
		CreatedAt: e.CreatedAt,
	}
}
