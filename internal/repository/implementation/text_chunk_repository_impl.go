package implementation

import (
	"context"
	"errors"

	"graph-qa-be/internal/entity"
	"graph-qa-be/internal/mapper"
	"graph-qa-be/internal/model"
	"graph-qa-be/internal/repository/contract"
	"graph-qa-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type TextChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.GraphMapper
}

func NewTextChunkRepository(db *gorm.DB) contract.TextChunkRepository {
	return &TextChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewGraphMapper(),
	}
}

func (r *TextChunkRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TextChunkRepositoryImpl) Create(ctx context.Context, chunk *entity.TextChunk) error {
	m := r.mapper.ChunkToModel(chunk)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*chunk = *r.mapper.ChunkToEntity(m)
	return nil
}

func (r *TextChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.TextChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := make([]*model.TextChunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ChunkToModel(c)
	}
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*chunks[i] = *r.mapper.ChunkToEntity(m)
	}
	return nil
}

func (r *TextChunkRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.TextChunk{}, id).Error
}

func (r *TextChunkRepositoryImpl) DeleteByNoteId(ctx context.Context, noteId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("note_id = ?", noteId).Delete(&model.TextChunk{}).Error
}

func (r *TextChunkRepositoryImpl) DeleteAllByUserIdUnscoped(ctx context.Context, userId uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().Where("user_id = ?", userId).Delete(&model.TextChunk{}).Error
}

func (r *TextChunkRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TextChunk, error) {
	var m model.TextChunk
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ChunkToEntity(&m), nil
}

func (r *TextChunkRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TextChunk, error) {
	var models []*model.TextChunk
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ChunksToEntities(models), nil
}

func (r *TextChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.TextChunk{}).Count(&count).Error
	return count, err
}

func (r *TextChunkRepositoryImpl) FindAdjacent(ctx context.Context, chunkId uuid.UUID, offset int) (*entity.TextChunk, error) {
	var current model.TextChunk
	if err := r.db.WithContext(ctx).First(&current, "id = ?", chunkId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var m model.TextChunk
	err := r.db.WithContext(ctx).
		Where("note_id = ?", current.NoteId).
		Where("sequence = ?", current.Sequence+offset).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ChunkToEntity(&m), nil
}

func (r *TextChunkRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int, userId uuid.UUID, skipChunkIds []uuid.UUID) ([]*entity.TextChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	query := r.db.WithContext(ctx).
		Joins("JOIN chunk_embeddings ON chunk_embeddings.chunk_id = text_chunks.id").
		Where("text_chunks.user_id = ?", userId).
		Where("text_chunks.deleted_at IS NULL")
	if len(skipChunkIds) > 0 {
		query = query.Where("text_chunks.id NOT IN ?", skipChunkIds)
	}

	var models []*model.TextChunk
	err := query.
		Order(gorm.Expr("chunk_embeddings.embedding_value <=> ?", pgvector.NewVector(embedding))).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ChunksToEntities(models), nil
}

// SearchSimilarWithScore returns chunks with similarity scores, filtered by threshold.
// Cosine distance in pgvector is 1 - cosine_similarity.
func (r *TextChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, userId uuid.UUID, threshold float64) ([]*contract.ScoredTextChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.TextChunk
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("text_chunks").
		Select("text_chunks.*, 1 - (chunk_embeddings.embedding_value <=> ?) as similarity", queryVector).
		Joins("JOIN chunk_embeddings ON chunk_embeddings.chunk_id = text_chunks.id").
		Where("text_chunks.user_id = ?", userId).
		Where("text_chunks.deleted_at IS NULL").
		Where("1 - (chunk_embeddings.embedding_value <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredTextChunk, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredTextChunk{
			Chunk:      r.mapper.ChunkToEntity(&res.TextChunk),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
