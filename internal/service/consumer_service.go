package service

import (
	"context"
	"encoding/json"
	"time"

	"graph-qa-be/internal/dto"
	"graph-qa-be/internal/entity"
	"graph-qa-be/internal/pkg/logger"
	"graph-qa-be/internal/repository/specification"
	"graph-qa-be/internal/repository/unitofwork"
	"graph-qa-be/pkg/embedding"
	"graph-qa-be/pkg/graph"
	"graph-qa-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// Chunk geometry for graph ingestion. No overlap: previous/next chunk
// navigation assumes chunks tile the note.
const (
	graphChunkSize    = 1200
	graphChunkOverlap = 0
)

func dedupeUUIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	extractor         *graph.Extractor
	logger            logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	extractor *graph.Extractor,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		extractor:         extractor,
		logger:            log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishGraphBuildMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("consumer", "failed to unmarshal graph build message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: payload.NoteId})
	if err != nil {
		cs.logger.Error("consumer", "failed to load note", map[string]interface{}{
			"note_id": payload.NoteId,
			"error":   err.Error(),
		})
		msg.Nack()
		return
	}
	if note == nil {
		// Note deleted between publish and consume.
		msg.Ack()
		return
	}

	build, err := cs.buildGraphSlice(ctx, note)
	if err != nil {
		cs.logger.Error("consumer", "graph extraction failed", map[string]interface{}{
			"note_id": note.Id,
			"error":   err.Error(),
		})
		msg.Nack()
		return
	}

	if err := cs.persistGraphSlice(ctx, uow, note, build); err != nil {
		cs.logger.Error("consumer", "graph persistence failed", map[string]interface{}{
			"note_id": note.Id,
			"error":   err.Error(),
		})
		msg.Nack()
		return
	}

	cs.logger.Info("consumer", "note graphed", map[string]interface{}{
		"note_id":  note.Id,
		"chunks":   len(build.chunks),
		"facts":    len(build.facts),
		"concepts": len(build.concepts),
	})
	msg.Ack()
}

type graphSlice struct {
	chunks     []*entity.TextChunk
	embeddings []*entity.ChunkEmbedding
	facts      []*entity.AtomicFact
	concepts   []*entity.KeyConcept
	// fact ids per concept name, and co-occurring concept names per fact
	factsByConcept map[string][]uuid.UUID
	conceptsByFact map[uuid.UUID][]string
}

// buildGraphSlice runs the read-only part of ingestion: chunking,
// embedding, and extraction. Nothing is written until it fully succeeds.
func (cs *consumerService) buildGraphSlice(ctx context.Context, note *entity.Note) (*graphSlice, error) {
	now := time.Now()
	pieces := utils.SplitText(note.Content, graphChunkSize, graphChunkOverlap)

	build := &graphSlice{
		factsByConcept: make(map[string][]uuid.UUID),
		conceptsByFact: make(map[uuid.UUID][]string),
	}
	conceptNotes := make(map[string]struct{})

	for i, piece := range pieces {
		chunk := &entity.TextChunk{
			Id:        uuid.New(),
			Content:   piece,
			NoteId:    note.Id,
			UserId:    note.UserId,
			Sequence:  i,
			CreatedAt: now,
		}
		build.chunks = append(build.chunks, chunk)

		res, err := cs.embeddingProvider.Generate(piece, "RETRIEVAL_DOCUMENT")
		if err != nil {
			return nil, err
		}
		build.embeddings = append(build.embeddings, &entity.ChunkEmbedding{
			Id:             uuid.New(),
			ChunkId:        chunk.Id,
			EmbeddingValue: res.Embedding.Values,
			CreatedAt:      now,
		})

		extracted, err := cs.extractor.ExtractFacts(ctx, piece)
		if err != nil {
			return nil, err
		}
		for _, ef := range extracted {
			fact := &entity.AtomicFact{
				Id:        uuid.New(),
				Content:   ef.Content,
				ChunkId:   chunk.Id,
				UserId:    note.UserId,
				CreatedAt: now,
			}
			build.facts = append(build.facts, fact)
			build.conceptsByFact[fact.Id] = ef.Concepts
			for _, name := range ef.Concepts {
				build.factsByConcept[name] = append(build.factsByConcept[name], fact.Id)
				conceptNotes[name] = struct{}{}
			}
		}
	}

	for name := range conceptNotes {
		res, err := cs.embeddingProvider.Generate(name, "RETRIEVAL_DOCUMENT")
		if err != nil {
			return nil, err
		}
		build.concepts = append(build.concepts, &entity.KeyConcept{
			Id:             uuid.New(),
			Name:           name,
			UserId:         note.UserId,
			NoteIds:        []uuid.UUID{note.Id},
			EmbeddingValue: res.Embedding.Values,
			CreatedAt:      now,
		})
	}

	return build, nil
}

// persistGraphSlice replaces the note's previous graph slice in one
// transaction.
func (cs *consumerService) persistGraphSlice(ctx context.Context, uow unitofwork.UnitOfWork, note *entity.Note, build *graphSlice) error {
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	oldChunks, err := uow.TextChunkRepository().FindAll(ctx, specification.ByNoteID{NoteID: note.Id})
	if err != nil {
		return err
	}
	oldChunkIds := make([]uuid.UUID, len(oldChunks))
	for i, c := range oldChunks {
		oldChunkIds[i] = c.Id
	}

	if err := uow.AtomicFactRepository().DeleteByNoteId(ctx, note.Id); err != nil {
		return err
	}
	if err := uow.ChunkEmbeddingRepository().DeleteByChunkIds(ctx, oldChunkIds); err != nil {
		return err
	}
	if err := uow.TextChunkRepository().DeleteByNoteId(ctx, note.Id); err != nil {
		return err
	}

	if err := uow.TextChunkRepository().CreateBulk(ctx, build.chunks); err != nil {
		return err
	}
	if err := uow.ChunkEmbeddingRepository().CreateBulk(ctx, build.embeddings); err != nil {
		return err
	}
	if err := uow.AtomicFactRepository().CreateBulk(ctx, build.facts); err != nil {
		return err
	}
	if err := uow.KeyConceptRepository().CreateBulk(ctx, build.concepts); err != nil {
		return err
	}

	conceptIds := make(map[string]uuid.UUID, len(build.concepts))
	for _, c := range build.concepts {
		conceptIds[c.Name] = c.Id
	}

	for name, factIds := range build.factsByConcept {
		if err := uow.KeyConceptRepository().LinkFacts(ctx, conceptIds[name], factIds); err != nil {
			return err
		}
	}

	// Concepts mentioned by the same fact become graph neighbours. Each
	// unordered pair is stored once; lookups check both directions.
	pairs := make(map[string][]uuid.UUID)
	for _, names := range build.conceptsByFact {
		for i, a := range names {
			for _, b := range names[i+1:] {
				source, target := a, b
				if source > target {
					source, target = target, source
				}
				pairs[source] = append(pairs[source], conceptIds[target])
			}
		}
	}
	for source, targets := range pairs {
		if err := uow.KeyConceptRepository().LinkNeighbours(ctx, note.UserId, conceptIds[source], dedupeUUIDs(targets)); err != nil {
			return err
		}
	}

	return uow.Commit()
}
