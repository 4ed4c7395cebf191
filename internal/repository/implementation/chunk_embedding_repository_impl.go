package implementation

import (
	"context"

	"graph-qa-be/internal/entity"
	"graph-qa-be/internal/mapper"
	"graph-qa-be/internal/model"
	"graph-qa-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChunkEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.GraphMapper
}

func NewChunkEmbeddingRepository(db *gorm.DB) contract.ChunkEmbeddingRepository {
	return &ChunkEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewGraphMapper(),
	}
}

func (r *ChunkEmbeddingRepositoryImpl) Create(ctx context.Context, embedding *entity.ChunkEmbedding) error {
	return r.db.WithContext(ctx).Create(r.mapper.EmbeddingToModel(embedding)).Error
}

func (r *ChunkEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*entity.ChunkEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	models := make([]*model.ChunkEmbedding, len(embeddings))
	for i, e := range embeddings {
		models[i] = r.mapper.EmbeddingToModel(e)
	}
	return r.db.WithContext(ctx).Create(&models).Error
}

func (r *ChunkEmbeddingRepositoryImpl) DeleteByChunkIds(ctx context.Context, chunkIds []uuid.UUID) error {
	if len(chunkIds) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("chunk_id IN ?", chunkIds).Delete(&model.ChunkEmbedding{}).Error
}

func (r *ChunkEmbeddingRepositoryImpl) DeleteAllByUserIdUnscoped(ctx context.Context, userId uuid.UUID) error {
	subQuery := r.db.Table("text_chunks").Select("id").Where("user_id = ?", userId)
	return r.db.WithContext(ctx).Where("chunk_id IN (?)", subQuery).Delete(&model.ChunkEmbedding{}).Error
}
