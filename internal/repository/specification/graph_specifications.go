package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByUserID struct {
	UserID uuid.UUID
}

func (s ByUserID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

type ByNoteID struct {
	NoteID uuid.UUID
}

func (s ByNoteID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("note_id = ?", s.NoteID)
}

type ByConceptName struct {
	Name string
}

func (s ByConceptName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("name = ?", s.Name)
}

type ByConceptNames struct {
	Names []string
}

func (s ByConceptNames) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("name IN ?", s.Names)
}

type ByChunkID struct {
	ChunkID uuid.UUID
}

func (s ByChunkID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chunk_id = ?", s.ChunkID)
}

type ByChunkIDs struct {
	ChunkIDs []uuid.UUID
}

func (s ByChunkIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chunk_id IN ?", s.ChunkIDs)
}

type BySequence struct {
	Sequence int
}

func (s BySequence) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("sequence = ?", s.Sequence)
}
