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
	"gorm.io/gorm/clause"
)

type KeyConceptRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.GraphMapper
}

func NewKeyConceptRepository(db *gorm.DB) contract.KeyConceptRepository {
	return &KeyConceptRepositoryImpl{
		db:     db,
		mapper: mapper.NewGraphMapper(),
	}
}

func (r *KeyConceptRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *KeyConceptRepositoryImpl) Create(ctx context.Context, concept *entity.KeyConcept) error {
	m := r.mapper.ConceptToModel(concept)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*concept = *r.mapper.ConceptToEntity(m)
	return nil
}

func (r *KeyConceptRepositoryImpl) CreateBulk(ctx context.Context, concepts []*entity.KeyConcept) error {
	if len(concepts) == 0 {
		return nil
	}
	models := make([]*model.KeyConcept, len(concepts))
	for i, c := range concepts {
		models[i] = r.mapper.ConceptToModel(c)
	}
	// Re-ingesting a note may hit concepts that already exist for the user.
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"note_ids", "embedding_value", "updated_at"}),
		}).
		Create(&models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*concepts[i] = *r.mapper.ConceptToEntity(m)
	}
	return nil
}

func (r *KeyConceptRepositoryImpl) Update(ctx context.Context, concept *entity.KeyConcept) error {
	m := r.mapper.ConceptToModel(concept)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*concept = *r.mapper.ConceptToEntity(m)
	return nil
}

func (r *KeyConceptRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.KeyConcept{}, id).Error
}

func (r *KeyConceptRepositoryImpl) DeleteAllByUserIdUnscoped(ctx context.Context, userId uuid.UUID) error {
	subQuery := r.db.Table("key_concepts").Select("id").Where("user_id = ?", userId)
	if err := r.db.WithContext(ctx).Where("concept_id IN (?)", subQuery).Delete(&model.ConceptFact{}).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Where("user_id = ?", userId).Delete(&model.ConceptEdge{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Unscoped().Where("user_id = ?", userId).Delete(&model.KeyConcept{}).Error
}

func (r *KeyConceptRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KeyConcept, error) {
	var m model.KeyConcept
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ConceptToEntity(&m), nil
}

func (r *KeyConceptRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KeyConcept, error) {
	var models []*model.KeyConcept
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ConceptsToEntities(models), nil
}

func (r *KeyConceptRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.KeyConcept{}).Count(&count).Error
	return count, err
}

func (r *KeyConceptRepositoryImpl) LinkFacts(ctx context.Context, conceptId uuid.UUID, factIds []uuid.UUID) error {
	if len(factIds) == 0 {
		return nil
	}
	links := make([]*model.ConceptFact, len(factIds))
	for i, factId := range factIds {
		links[i] = &model.ConceptFact{ConceptId: conceptId, FactId: factId}
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&links).Error
}

func (r *KeyConceptRepositoryImpl) LinkNeighbours(ctx context.Context, userId, conceptId uuid.UUID, neighbourIds []uuid.UUID) error {
	if len(neighbourIds) == 0 {
		return nil
	}
	edges := make([]*model.ConceptEdge, 0, len(neighbourIds))
	for _, neighbourId := range neighbourIds {
		if neighbourId == conceptId {
			continue
		}
		edges = append(edges, &model.ConceptEdge{
			SourceId: conceptId,
			TargetId: neighbourId,
			UserId:   userId,
		})
	}
	if len(edges) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&edges).Error
}

func (r *KeyConceptRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int, userId uuid.UUID) ([]*entity.KeyConcept, error) {
	if limit <= 0 {
		limit = 30
	}
	var models []*model.KeyConcept

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userId).
		Where("deleted_at IS NULL").
		Order(gorm.Expr("embedding_value <=> ?", pgvector.NewVector(embedding))).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ConceptsToEntities(models), nil
}

func (r *KeyConceptRepositoryImpl) FindNeighbours(ctx context.Context, userId uuid.UUID, names []string, limit int) ([]*entity.KeyConcept, error) {
	if len(names) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 30
	}

	// Edges are stored once per direction, so the neighbour of a named
	// concept may sit on either side.
	named := r.db.Table("key_concepts").Select("id").
		Where("user_id = ?", userId).
		Where("name IN ?", names)

	var models []*model.KeyConcept
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userId).
		Where("deleted_at IS NULL").
		Where("name NOT IN ?", names).
		Where(
			r.db.Where("id IN (?)", r.db.Table("concept_edges").Select("target_id").Where("source_id IN (?)", named)).
				Or("id IN (?)", r.db.Table("concept_edges").Select("source_id").Where("target_id IN (?)", named)),
		).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ConceptsToEntities(models), nil
}
