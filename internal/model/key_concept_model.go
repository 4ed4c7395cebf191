package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type KeyConcept struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name           string          `gorm:"type:text;not null;uniqueIndex:idx_key_concepts_user_name,priority:2"`
	UserId         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_key_concepts_user_name,priority:1"`
	NoteIds        datatypes.JSON  `gorm:"type:jsonb"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt  `gorm:"index"`
}

func (KeyConcept) TableName() string {
	return "key_concepts"
}

type ConceptEdge struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SourceId  uuid.UUID `gorm:"type:uuid;not null;index"`
	TargetId  uuid.UUID `gorm:"type:uuid;not null;index"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (ConceptEdge) TableName() string {
	return "concept_edges"
}

// ConceptFact links an atomic fact to one key concept it mentions.
type ConceptFact struct {
	ConceptId uuid.UUID `gorm:"type:uuid;primaryKey"`
	FactId    uuid.UUID `gorm:"type:uuid;primaryKey"`
}

func (ConceptFact) TableName() string {
	return "concept_facts"
}
