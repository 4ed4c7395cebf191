package unitofwork

import (
	"context"

	"graph-qa-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	NotebookRepository() contract.NotebookRepository
	NoteRepository() contract.NoteRepository

	KeyConceptRepository() contract.KeyConceptRepository
	AtomicFactRepository() contract.AtomicFactRepository
	TextChunkRepository() contract.TextChunkRepository
	ChunkEmbeddingRepository() contract.ChunkEmbeddingRepository

	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository
	ChatCitationRepository() contract.ChatCitationRepository
}
