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
	"gorm.io/gorm"
)

type AtomicFactRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.GraphMapper
}

func NewAtomicFactRepository(db *gorm.DB) contract.AtomicFactRepository {
	return &AtomicFactRepositoryImpl{
		db:     db,
		mapper: mapper.NewGraphMapper(),
	}
}

func (r *AtomicFactRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *AtomicFactRepositoryImpl) Create(ctx context.Context, fact *entity.AtomicFact) error {
	m := r.mapper.FactToModel(fact)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*fact = *r.mapper.FactToEntity(m)
	return nil
}

func (r *AtomicFactRepositoryImpl) CreateBulk(ctx context.Context, facts []*entity.AtomicFact) error {
	if len(facts) == 0 {
		return nil
	}
	models := make([]*model.AtomicFact, len(facts))
	for i, f := range facts {
		models[i] = r.mapper.FactToModel(f)
	}
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*facts[i] = *r.mapper.FactToEntity(m)
	}
	return nil
}

func (r *AtomicFactRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.AtomicFact{}, id).Error
}

func (r *AtomicFactRepositoryImpl) DeleteByNoteId(ctx context.Context, noteId uuid.UUID) error {
	subQuery := r.db.Table("text_chunks").Select("id").Where("note_id = ?", noteId)
	return r.db.WithContext(ctx).Where("chunk_id IN (?)", subQuery).Delete(&model.AtomicFact{}).Error
}

func (r *AtomicFactRepositoryImpl) DeleteAllByUserIdUnscoped(ctx context.Context, userId uuid.UUID) error {
	subQuery := r.db.Table("atomic_facts").Select("id").Where("user_id = ?", userId)
	if err := r.db.WithContext(ctx).Where("fact_id IN (?)", subQuery).Delete(&model.ConceptFact{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Unscoped().Where("user_id = ?", userId).Delete(&model.AtomicFact{}).Error
}

func (r *AtomicFactRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AtomicFact, error) {
	var m model.AtomicFact
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.FactToEntity(&m), nil
}

func (r *AtomicFactRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AtomicFact, error) {
	var models []*model.AtomicFact
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.FactsToEntities(models), nil
}

func (r *AtomicFactRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.AtomicFact{}).Count(&count).Error
	return count, err
}

func (r *AtomicFactRepositoryImpl) FindByConceptNames(ctx context.Context, userId uuid.UUID, names []string, skipChunkIds, skipFactIds []uuid.UUID, limit int) ([]*entity.AtomicFact, error) {
	if len(names) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 200
	}

	query := r.db.WithContext(ctx).
		Joins("JOIN concept_facts ON concept_facts.fact_id = atomic_facts.id").
		Joins("JOIN key_concepts ON key_concepts.id = concept_facts.concept_id").
		Where("atomic_facts.user_id = ?", userId).
		Where("atomic_facts.deleted_at IS NULL").
		Where("key_concepts.name IN ?", names)

	if len(skipChunkIds) > 0 {
		query = query.Where("atomic_facts.chunk_id NOT IN ?", skipChunkIds)
	}
	if len(skipFactIds) > 0 {
		query = query.Where("atomic_facts.id NOT IN ?", skipFactIds)
	}

	var models []*model.AtomicFact
	err := query.
		Distinct("atomic_facts.*").
		Order("atomic_facts.created_at ASC, atomic_facts.id ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.FactsToEntities(models), nil
}
