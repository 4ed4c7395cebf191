package traversal

import (
	"sort"

	"github.com/google/uuid"
)

// Step is the dispatch key of the retrieval state machine. It is a closed
// set: the orchestrator switches over it exhaustively and rejects anything
// else, so adding a stage is a compile-visible change.
type Step string

const (
	StepQuestionRefine    Step = "question_refine"
	StepRationalPlan      Step = "rational_plan"
	StepKeyConcepts       Step = "key_concepts"
	StepAtomicFacts       Step = "atomic_facts"
	StepChunks            Step = "chunks"
	StepChunksVector      Step = "chunks_vector"
	StepNeighbouringNodes Step = "neighbouring_nodes"
	StepAnswer            Step = "answer"
)

// ChatTurn is one prior exchange of the conversation being answered.
type ChatTurn struct {
	Role    string
	Content string
}

// NotebookEntry is one piece of accumulated evidence.
type NotebookEntry struct {
	ChunkID string
	Content string
	Reason  string
}

// TokenUsage accumulates scorer token consumption for a session.
type TokenUsage struct {
	Input  int
	Output int
}

func (t TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{Input: t.Input + other.Input, Output: t.Output + other.Output}
}

// Limits caps repository lookups. Owned by the caller and forwarded
// verbatim to the repositories; stages never interpret it.
type Limits struct {
	MaxConcepts   int
	MaxFacts      int
	MaxChunks     int
	MaxNeighbours int
}

// StringSet is an append-only membership set over identifiers.
type StringSet map[string]struct{}

func NewStringSet(values ...string) StringSet {
	s := make(StringSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

func (s StringSet) Clone() StringSet {
	out := make(StringSet, len(s))
	for v := range s {
		out[v] = struct{}{}
	}
	return out
}

// Values returns the members sorted, for deterministic iteration.
func (s StringSet) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// State is the record threaded through every stage of a question-answering
// session. Stages never mutate it; they return an Update and the
// orchestrator produces the next State by structural merge.
type State struct {
	SessionID uuid.UUID
	UserID    uuid.UUID

	Question     string
	RationalPlan string
	History      []ChatTurn

	Hops       int
	ChunkLevel int

	QueuedKeyConcepts    []string
	ProcessedKeyConcepts StringSet
	QueuedChunks         []string
	ProcessedChunks      StringSet
	ProcessedFacts       StringSet

	NeighboursExplored bool

	Notebook    []NotebookEntry
	Annotations string
	Status      StringSet
	Ontology    []string

	Tokens TokenUsage

	NextStep Step
	Limits   Limits
}

// NewState seeds a fresh session. The caller chooses the entry step:
// StepQuestionRefine for conversations, StepRationalPlan (or
// StepChunksVector) for one-shot questions.
func NewState(sessionID, userID uuid.UUID, question string, history []ChatTurn, entry Step, limits Limits) State {
	return State{
		SessionID:            sessionID,
		UserID:               userID,
		Question:             question,
		History:              history,
		ProcessedKeyConcepts: NewStringSet(),
		ProcessedChunks:      NewStringSet(),
		ProcessedFacts:       NewStringSet(),
		Status:               NewStringSet(),
		NextStep:             entry,
		Limits:               limits,
	}
}

// Update is the partial result a stage hands back. Pointer fields replace
// the corresponding State field when non-nil; slice "Add" fields extend
// append-only collections; everything else is merged additively.
type Update struct {
	Question     *string
	RationalPlan *string

	QueuedKeyConcepts *[]string
	QueuedChunks      *[]string

	AddProcessedKeyConcepts []string
	AddProcessedChunks      []string
	AddProcessedFacts       []string

	ChunkLevelDelta    int
	NeighboursExplored bool

	AppendNotebook    []NotebookEntry
	AppendAnnotations string
	AddStatus         []string
	AppendOntology    []string

	Tokens TokenUsage

	NextStep Step
}

// Apply merges an Update into a copy of the State and returns it. Exactly
// one hop is consumed per applied update. After the merge the queued sets
// are disjoint from their processed counterparts and free of duplicates.
func (s State) Apply(u Update) State {
	next := s
	next.Hops = s.Hops + 1
	next.ChunkLevel = s.ChunkLevel + u.ChunkLevelDelta

	if u.Question != nil {
		next.Question = *u.Question
	}
	if u.RationalPlan != nil {
		next.RationalPlan = *u.RationalPlan
	}

	next.ProcessedKeyConcepts = s.ProcessedKeyConcepts.Clone()
	for _, c := range u.AddProcessedKeyConcepts {
		next.ProcessedKeyConcepts[c] = struct{}{}
	}
	next.ProcessedChunks = s.ProcessedChunks.Clone()
	for _, c := range u.AddProcessedChunks {
		next.ProcessedChunks[c] = struct{}{}
	}
	next.ProcessedFacts = s.ProcessedFacts.Clone()
	for _, f := range u.AddProcessedFacts {
		next.ProcessedFacts[f] = struct{}{}
	}

	if u.QueuedKeyConcepts != nil {
		next.QueuedKeyConcepts = dedupeExcluding(*u.QueuedKeyConcepts, next.ProcessedKeyConcepts)
	} else {
		next.QueuedKeyConcepts = dedupeExcluding(s.QueuedKeyConcepts, next.ProcessedKeyConcepts)
	}
	if u.QueuedChunks != nil {
		next.QueuedChunks = dedupeExcluding(*u.QueuedChunks, next.ProcessedChunks)
	} else {
		next.QueuedChunks = dedupeExcluding(s.QueuedChunks, next.ProcessedChunks)
	}

	if u.NeighboursExplored {
		next.NeighboursExplored = true
	}

	if len(u.AppendNotebook) > 0 {
		next.Notebook = append(append([]NotebookEntry{}, s.Notebook...), u.AppendNotebook...)
	}
	if u.AppendAnnotations != "" {
		if next.Annotations != "" {
			next.Annotations += "\n"
		}
		next.Annotations += u.AppendAnnotations
	}
	next.Status = s.Status.Clone()
	for _, msg := range u.AddStatus {
		if msg != "" {
			next.Status[msg] = struct{}{}
		}
	}
	if len(u.AppendOntology) > 0 {
		next.Ontology = appendMissing(s.Ontology, u.AppendOntology)
	}

	next.Tokens = s.Tokens.Add(u.Tokens)

	if u.NextStep != "" {
		next.NextStep = u.NextStep
	}

	return next
}

// Done reports whether the session has reached its terminal step.
func (s State) Done() bool {
	return s.NextStep == StepAnswer
}

// dedupeExcluding keeps first occurrences, preserving input order, and
// drops members of the exclusion set.
func dedupeExcluding(values []string, exclude StringSet) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" || exclude.Has(v) {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func appendMissing(existing []string, add []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, v := range existing {
		seen[v] = struct{}{}
	}
	out := append([]string{}, existing...)
	for _, v := range add {
		if _, dup := seen[v]; dup || v == "" {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
