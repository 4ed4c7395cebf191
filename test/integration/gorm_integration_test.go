package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"graph-qa-be/internal/entity"
	"graph-qa-be/internal/repository/specification"
	"graph-qa-be/internal/repository/unitofwork"
	"graph-qa-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.UserRepository())
	assert.NotNil(t, uow.KeyConceptRepository())
	assert.NotNil(t, uow.TextChunkRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	// Verify Data Access (implies columns exist)
	t.Run("Check User Repository", func(t *testing.T) {
		count, err := uow.UserRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("User count: %d", count)
	})

	t.Run("Check Transactional Graph Slice", func(t *testing.T) {
		userId := uuid.New()
		user := &entity.User{
			Id:       userId,
			Email:    "test-integration-" + uuid.New().String() + "@example.com",
			FullName: "Integration Test User",
			Role:     "user",
			Status:   "active",
		}

		notebookId := uuid.New()
		notebook := &entity.Notebook{
			Id:     notebookId,
			Name:   "Integration Notebook",
			UserId: userId,
		}

		noteId := uuid.New()
		note := &entity.Note{
			Id:         noteId,
			Title:      "Integration Note",
			Content:    "The Nile is the longest river in Africa.",
			NotebookId: notebookId,
			UserId:     userId,
		}

		// Setup DB Data
		err := uow.UserRepository().Create(context.Background(), user)
		assert.NoError(t, err)
		err = uow.NotebookRepository().Create(context.Background(), notebook)
		assert.NoError(t, err)
		err = uow.NoteRepository().Create(context.Background(), note)
		assert.NoError(t, err)

		// Transaction Test: chunk, concept and fact must land together
		ctx := context.Background()
		err = uow.Begin(ctx)
		assert.NoError(t, err)
		defer uow.Rollback()

		chunkId := uuid.New()
		chunk := &entity.TextChunk{
			Id:       chunkId,
			Content:  "The Nile is the longest river in Africa.",
			NoteId:   noteId,
			UserId:   userId,
			Sequence: 0,
		}
		err = uow.TextChunkRepository().Create(ctx, chunk)
		assert.NoError(t, err)

		conceptId := uuid.New()
		concept := &entity.KeyConcept{
			Id:             conceptId,
			Name:           "Nile",
			UserId:         userId,
			NoteIds:        []uuid.UUID{noteId},
			EmbeddingValue: make([]float32, 768),
		}
		err = uow.KeyConceptRepository().Create(ctx, concept)
		assert.NoError(t, err)

		fact := &entity.AtomicFact{
			Id:         uuid.New(),
			Content:    "The Nile is the longest river in Africa.",
			ChunkId:    chunkId,
			UserId:     userId,
			ConceptIds: []uuid.UUID{conceptId},
		}
		err = uow.AtomicFactRepository().Create(ctx, fact)
		assert.NoError(t, err)

		err = uow.Commit()
		assert.NoError(t, err)

		// Read back through specifications
		facts, err := uow.AtomicFactRepository().FindAll(
			context.Background(),
			specification.ByChunkID{ChunkID: chunkId},
		)
		assert.NoError(t, err)
		assert.Len(t, facts, 1)

		t.Log("Successfully created chunk, concept and fact in Transaction")
	})
}
