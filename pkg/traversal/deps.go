package traversal

import "context"

// Concept is a named graph node expandable to neighbours or atomic facts.
// MetadataIDs are the ids of metadata nodes recorded in the ontology when
// the scorer flags the concept as an answer source.
type Concept struct {
	Name        string
	MetadataIDs []string
}

// Fact is a small extracted statement tied to exactly one source chunk.
type Fact struct {
	ID      string
	ChunkID string
	Content string
}

// Chunk is a contiguous span of source text with sequence neighbours.
type Chunk struct {
	ID      string
	Content string
}

// ConceptRepository looks up key concepts in the knowledge graph.
type ConceptRepository interface {
	FindPotentialKeyConcepts(ctx context.Context, question string, limits Limits) ([]Concept, error)
	FindNeighboursByKeyConcepts(ctx context.Context, concepts []string, limits Limits) ([]Concept, error)
}

// FactRepository looks up atomic facts tied to key concepts. Facts whose
// id or source chunk appears in the skip lists are excluded server-side.
type FactRepository interface {
	FindAtomicFactsByKeyConcepts(ctx context.Context, concepts []string, skipChunkIDs, skipFactIDs []string, limits Limits) ([]Fact, error)
}

// ChunkRepository resolves chunk content and sequence neighbours. Lookups
// that find nothing return the zero value and a nil error.
type ChunkRepository interface {
	FindChunkByID(ctx context.Context, id string) (*Chunk, error)
	FindSubsequentChunkID(ctx context.Context, id string) (string, error)
	FindPreviousChunkID(ctx context.Context, id string) (string, error)
	FindPotentialChunks(ctx context.Context, question string, skipChunkIDs []string, limits Limits) ([]Chunk, error)
}

// ConceptScore is the scorer's verdict on one candidate concept.
type ConceptScore struct {
	Name     string
	Score    int // 0-100
	IsSource bool
}

// FactBatchResult is the scorer's verdict on one batch of atomic facts.
type FactBatchResult struct {
	Status     string
	Annotation string
	ChunkIDs   []string
}

// ChunkAction is what the scorer decided to do after reading a chunk.
type ChunkAction string

const (
	ActionQueuePrevious  ChunkAction = "queue_previous_chunk"
	ActionQueueNext      ChunkAction = "queue_next_chunk"
	ActionReadNeighbours ChunkAction = "read_neighbouring_nodes"
	ActionAnswer         ChunkAction = "answer"
	ActionSkip           ChunkAction = "skip"
)

// ChunkVerdict is the scorer's verdict on one text chunk.
type ChunkVerdict struct {
	Note   NotebookEntry
	Action ChunkAction
	Status string
}

// Scorer is the scoring collaborator. Implementations validate the model
// output against the declared schema before returning, so stages only ever
// see well-formed fields; every call reports its token usage.
type Scorer interface {
	RefineQuestion(ctx context.Context, history []ChatTurn, question string) (string, TokenUsage, error)
	PlanRetrieval(ctx context.Context, question, previousAnalysis string) (string, TokenUsage, error)
	ScoreConcepts(ctx context.Context, question, plan string, candidates []Concept) ([]ConceptScore, TokenUsage, error)
	EvaluateFacts(ctx context.Context, question, plan string, facts []Fact) (FactBatchResult, TokenUsage, error)
	EvaluateChunk(ctx context.Context, question, plan string, chunk Chunk, notebook []NotebookEntry) (ChunkVerdict, TokenUsage, error)
	AppraiseChunk(ctx context.Context, question string, chunk Chunk) (NotebookEntry, string, TokenUsage, error)
}

// Event is a progress side effect a stage wants delivered. Stages return
// events instead of calling notification transports themselves; the
// orchestrator's owner routes them.
type Event struct {
	Name    string
	Message string
}
