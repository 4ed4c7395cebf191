package service

import (
	"context"
	"fmt"
	"time"

	"graph-qa-be/internal/constant"
	"graph-qa-be/internal/dto"
	"graph-qa-be/internal/entity"
	"graph-qa-be/internal/pkg/logger"
	"graph-qa-be/internal/repository/memory"
	"graph-qa-be/internal/repository/specification"
	"graph-qa-be/internal/repository/unitofwork"
	"graph-qa-be/pkg/embedding"
	"graph-qa-be/pkg/events"
	"graph-qa-be/pkg/llm"
	pktNats "graph-qa-be/pkg/nats"
	"graph-qa-be/pkg/scoring"
	"graph-qa-be/pkg/store"
	"graph-qa-be/pkg/traversal"

	"github.com/google/uuid"
)

const sessionTitleMaxLen = 60

// IChatbotService defines the chatbot service interface
type IChatbotService interface {
	CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error)
	SendChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	DeleteSession(ctx context.Context, userId uuid.UUID, request *dto.DeleteSessionRequest) error
}

// chatbotService answers questions by walking the user's knowledge
// graph. Each SendChat runs a fresh traversal session over the stage
// orchestrator and persists the outcome as a regular chat exchange.
type chatbotService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	sessionRepo       *memory.SessionRepository
	eventPublisher    *pktNats.Publisher
	log               logger.ILogger

	scorer    *scoring.Scorer
	responder *scoring.Responder

	maxHops int
	limits  traversal.Limits
}

// NewChatbotService creates a new chatbot service.
func NewChatbotService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	llmProvider llm.LLMProvider,
	sessionRepo *memory.SessionRepository,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
	maxHops int,
	limits traversal.Limits,
) IChatbotService {
	return &chatbotService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		sessionRepo:       sessionRepo,
		eventPublisher:    eventPublisher,
		log:               log,
		scorer:            scoring.NewScorer(llmProvider, log),
		responder:         scoring.NewResponder(llmProvider),
		maxHops:           maxHops,
		limits:            limits,
	}
}

// CreateSession creates a new chat session with a greeting message.
func (cs *chatbotService) CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	now := time.Now()

	chatSession := entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     "Unnamed session",
		CreatedAt: now,
	}

	greeting := entity.ChatMessage{
		Id:            uuid.New(),
		Chat:          "Hi, how can I help you ?",
		Role:          constant.ChatMessageRoleModel,
		ChatSessionId: chatSession.Id,
		CreatedAt:     now,
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Create(ctx, &chatSession); err != nil {
		return nil, err
	}
	if err := uow.ChatMessageRepository().Create(ctx, &greeting); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{Id: chatSession.Id}, nil
}

// GetAllSessions retrieves all chat sessions
func (cs *chatbotService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	chatSessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.GetAllSessionsResponse, 0, len(chatSessions))
	for _, s := range chatSessions {
		response = append(response, &dto.GetAllSessionsResponse{
			Id:        s.Id,
			Title:     s.Title,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		})
	}

	return response, nil
}

// GetChatHistory retrieves chat history for a session, each model
// message carrying the notes its answer drew on.
func (cs *chatbotService) GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session not found or access denied")
	}

	chatMessages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	messageIds := make([]uuid.UUID, len(chatMessages))
	for i, msg := range chatMessages {
		messageIds[i] = msg.Id
	}

	citations, err := uow.ChatMessageRepository().FindCitationsByMessageIds(ctx, messageIds)
	if err != nil {
		return nil, err
	}

	sourcesByMsgId := make(map[uuid.UUID][]dto.SourceDTO)
	for _, c := range citations {
		if c.Note != nil {
			sourcesByMsgId[c.ChatMessageId] = append(sourcesByMsgId[c.ChatMessageId], dto.SourceDTO{
				NoteId: c.NoteId,
				Title:  c.Note.Title,
			})
		}
	}

	resp := make([]*dto.GetChatHistoryResponse, 0, len(chatMessages))
	for _, msg := range chatMessages {
		resp = append(resp, &dto.GetChatHistoryResponse{
			Id:        msg.Id,
			Role:      msg.Role,
			Chat:      msg.Chat,
			CreatedAt: msg.CreatedAt,
			Sources:   sourcesByMsgId[msg.Id],
		})
	}

	return resp, nil
}

// SendChat answers a user message by traversing their knowledge graph.
func (cs *chatbotService) SendChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	chatSession, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: request.ChatSessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if chatSession == nil {
		return nil, fmt.Errorf("session not found or access denied")
	}

	existingMessages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: request.ChatSessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	history := toChatTurns(existingMessages)
	updateSessionTitle := !hasUserMessage(existingMessages)
	now := time.Now()

	userMessage := entity.ChatMessage{
		Id:            uuid.New(),
		Chat:          request.Chat,
		Role:          constant.ChatMessageRoleUser,
		ChatSessionId: request.ChatSessionId,
		CreatedAt:     now,
	}
	if err := uow.ChatMessageRepository().Create(ctx, &userMessage); err != nil {
		return nil, err
	}

	finalState, err := cs.runTraversal(ctx, uow, userId, request, history)
	if err != nil {
		return nil, err
	}

	answer, answerUsage, err := cs.responder.Answer(ctx, finalState)
	if err != nil {
		return nil, err
	}
	totalTokens := finalState.Tokens.Add(answerUsage)

	modelMessage := entity.ChatMessage{
		Id:            uuid.New(),
		Chat:          answer,
		Role:          constant.ChatMessageRoleModel,
		ChatSessionId: request.ChatSessionId,
		CreatedAt:     now.Add(1 * time.Second),
	}
	if err := uow.ChatMessageRepository().Create(ctx, &modelMessage); err != nil {
		return nil, err
	}

	sources, err := cs.persistSources(ctx, uow, userId, modelMessage.Id, finalState.Ontology, now)
	if err != nil {
		return nil, err
	}

	if updateSessionTitle {
		chatSession.Title = truncateTitle(request.Chat)
		chatSession.UpdatedAt = &now
		if err := uow.ChatSessionRepository().Update(ctx, chatSession); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	cs.sessionRepo.Save(&store.Session{
		ID:               request.ChatSessionId.String(),
		UserID:           userId.String(),
		LastState:        &finalState,
		PreviousAnalysis: finalState.Annotations,
		LastQuery:        finalState.Question,
		UpdatedAt:        time.Now(),
	})

	return &dto.SendChatResponse{
		ChatSessionId:    chatSession.Id,
		ChatSessionTitle: chatSession.Title,
		Sent: &dto.SendChatResponseChat{
			Id:        userMessage.Id,
			Chat:      userMessage.Chat,
			Role:      userMessage.Role,
			CreatedAt: userMessage.CreatedAt,
		},
		Reply: &dto.SendChatResponseChat{
			Id:        modelMessage.Id,
			Chat:      modelMessage.Chat,
			Role:      modelMessage.Role,
			CreatedAt: modelMessage.CreatedAt,
			Sources:   sources,
		},
		Retrieval: &dto.RetrievalStatsDTO{
			Hops:         finalState.Hops,
			ChunksRead:   len(finalState.ProcessedChunks),
			InputTokens:  totalTokens.Input,
			OutputTokens: totalTokens.Output,
		},
	}, nil
}

// runTraversal wires a per-user graph reader into the stage
// orchestrator and walks the graph until the session reaches its
// answer state.
func (cs *chatbotService) runTraversal(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	userId uuid.UUID,
	request *dto.SendChatRequest,
	history []traversal.ChatTurn,
) (traversal.State, error) {

	reader := NewGraphReader(
		userId,
		uow.KeyConceptRepository(),
		uow.AtomicFactRepository(),
		uow.TextChunkRepository(),
		cs.embeddingProvider,
	)

	orchestrator := traversal.NewOrchestrator(
		traversal.NewQuestionRefiner(cs.scorer, cs.log),
		traversal.NewRationalPlanner(cs.scorer, cs.log),
		traversal.NewKeyConceptSelector(reader, cs.scorer, cs.log),
		traversal.NewAtomicFactFilter(reader, cs.scorer, cs.log),
		traversal.NewChunkEvaluator(reader, cs.scorer, cs.log),
		traversal.NewChunkVectorRetriever(reader, cs.scorer, cs.log),
		cs.log,
	)

	entry := traversal.StepRationalPlan
	if len(history) > 0 {
		entry = traversal.StepQuestionRefine
	}

	st := traversal.NewState(request.ChatSessionId, userId, request.Chat, history, entry, cs.limits)

	// Analysis accumulated by a previous question in this session seeds
	// the planner instead of starting cold.
	if sess, found := cs.sessionRepo.Get(request.ChatSessionId.String()); found {
		st.Annotations = sess.PreviousAnalysis
	}

	return orchestrator.Run(ctx, st, cs.maxHops, func(ev traversal.Event) {
		cs.publishProgress(ctx, userId, request.ChatSessionId, ev)
	})
}

// publishProgress emits a retrieval progress event. Progress is
// auxiliary, failures are logged and never fail the request.
func (cs *chatbotService) publishProgress(ctx context.Context, userId, sessionId uuid.UUID, ev traversal.Event) {
	if cs.eventPublisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type: "CHAT_RETRIEVAL_PROGRESS",
		Data: map[string]interface{}{
			"user_id":         userId,
			"chat_session_id": sessionId,
			"stage":           ev.Name,
			"message":         ev.Message,
		},
		OccurredAt: time.Now(),
	}
	if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
		cs.log.Warn("chatbot_service", "failed to publish retrieval progress", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// persistSources resolves the ontology's note ids against the user's
// notes and stores the survivors as citations on the model message.
func (cs *chatbotService) persistSources(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	userId uuid.UUID,
	messageId uuid.UUID,
	ontology []string,
	now time.Time,
) ([]dto.SourceDTO, error) {

	noteIds := make([]uuid.UUID, 0, len(ontology))
	for _, raw := range ontology {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		noteIds = append(noteIds, id)
	}
	if len(noteIds) == 0 {
		return nil, nil
	}

	notes, err := uow.NoteRepository().FindAll(ctx,
		specification.ByIDs{IDs: noteIds},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, nil
	}

	sources := make([]dto.SourceDTO, 0, len(notes))
	citations := make([]*entity.ChatCitation, 0, len(notes))
	for _, note := range notes {
		sources = append(sources, dto.SourceDTO{NoteId: note.Id, Title: note.Title})
		citations = append(citations, &entity.ChatCitation{
			Id:            uuid.New(),
			ChatMessageId: messageId,
			NoteId:        note.Id,
			CreatedAt:     now,
		})
	}
	if err := uow.ChatMessageRepository().CreateCitations(ctx, citations); err != nil {
		return nil, err
	}

	return sources, nil
}

// DeleteSession removes a chat session
func (cs *chatbotService) DeleteSession(ctx context.Context, userId uuid.UUID, request *dto.DeleteSessionRequest) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: request.ChatSessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("session not found or access denied")
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Delete(ctx, request.ChatSessionId); err != nil {
		return err
	}
	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, request.ChatSessionId); err != nil {
		return err
	}

	cs.sessionRepo.Delete(request.ChatSessionId.String())

	return uow.Commit()
}

func toChatTurns(messages []*entity.ChatMessage) []traversal.ChatTurn {
	turns := make([]traversal.ChatTurn, 0, len(messages))
	for _, msg := range messages {
		turns = append(turns, traversal.ChatTurn{Role: msg.Role, Content: msg.Chat})
	}
	return turns
}

func hasUserMessage(messages []*entity.ChatMessage) bool {
	for _, msg := range messages {
		if msg.Role == constant.ChatMessageRoleUser {
			return true
		}
	}
	return false
}

func truncateTitle(chat string) string {
	if len(chat) <= sessionTitleMaxLen {
		return chat
	}
	return chat[:sessionTitleMaxLen]
}
