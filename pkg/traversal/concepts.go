package traversal

import (
	"context"
	"fmt"
	"sort"
)

// KeyConceptSelector scores candidate graph concepts and decides whether
// the session expands through atomic facts next. It serves two entry
// modes, chosen by the incoming step: fresh expansion against the
// question, or neighbour expansion around the already-processed concepts.
type KeyConceptSelector struct {
	concepts ConceptRepository
	scorer   Scorer
	logger   Logger
}

// Concepts surviving selection, at most. No absolute score threshold is
// applied; a weak top list is still a top list.
const maxQueuedConcepts = 10

func NewKeyConceptSelector(concepts ConceptRepository, scorer Scorer, logger Logger) *KeyConceptSelector {
	return &KeyConceptSelector{concepts: concepts, scorer: scorer, logger: logger}
}

func (k *KeyConceptSelector) Run(ctx context.Context, st State) (Update, []Event, error) {
	if guardFired(st) {
		return forceAnswer(TokenUsage{}), nil, nil
	}

	neighbourMode := st.NextStep == StepNeighbouringNodes

	var candidates []Concept
	var err error
	if neighbourMode {
		candidates, err = k.concepts.FindNeighboursByKeyConcepts(ctx, st.ProcessedKeyConcepts.Values(), st.Limits)
	} else {
		candidates, err = k.concepts.FindPotentialKeyConcepts(ctx, st.Question, st.Limits)
	}
	if err != nil {
		return Update{}, nil, fmt.Errorf("key concept lookup failed: %w", err)
	}

	fresh := make([]Concept, 0, len(candidates))
	for _, c := range candidates {
		if !st.ProcessedKeyConcepts.Has(c.Name) {
			fresh = append(fresh, c)
		}
	}

	if len(fresh) == 0 {
		u := forceAnswer(TokenUsage{})
		u.NeighboursExplored = neighbourMode
		return u, nil, nil
	}

	scores, usage, err := k.scorer.ScoreConcepts(ctx, st.Question, st.RationalPlan, fresh)
	if err != nil {
		return Update{}, nil, fmt.Errorf("concept scoring failed: %w", err)
	}

	// The scorer may invent names; only candidates we actually offered
	// count. Input order is remembered so the sort below stays stable.
	byName := make(map[string]Concept, len(fresh))
	order := make(map[string]int, len(fresh))
	for i, c := range fresh {
		byName[c.Name] = c
		order[c.Name] = i
	}

	accepted := make([]ConceptScore, 0, len(scores))
	var ontology []string
	for _, s := range scores {
		c, known := byName[s.Name]
		if !known {
			k.logger.Warn("traversal.concepts", "scorer returned unknown concept, dropping", map[string]interface{}{
				"concept": s.Name,
			})
			continue
		}
		accepted = append(accepted, s)
		if s.IsSource {
			ontology = append(ontology, c.MetadataIDs...)
		}
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		if accepted[i].Score != accepted[j].Score {
			return accepted[i].Score > accepted[j].Score
		}
		return order[accepted[i].Name] < order[accepted[j].Name]
	})
	if len(accepted) > maxQueuedConcepts {
		accepted = accepted[:maxQueuedConcepts]
	}

	if len(accepted) == 0 {
		u := forceAnswer(usage)
		u.NeighboursExplored = neighbourMode
		return u, nil, nil
	}

	queued := make([]string, len(accepted))
	for i, s := range accepted {
		queued[i] = s.Name
	}

	k.logger.Info("traversal.concepts", "key concepts queued", map[string]interface{}{
		"session_id": st.SessionID,
		"queued":     len(queued),
		"neighbours": neighbourMode,
	})

	events := []Event{{
		Name:    "retrieval.concepts",
		Message: fmt.Sprintf("Following %d concepts in your knowledge graph...", len(queued)),
	}}

	return Update{
		QueuedKeyConcepts:  &queued,
		AppendOntology:     ontology,
		NeighboursExplored: neighbourMode,
		Tokens:             usage,
		NextStep:           StepAtomicFacts,
	}, events, nil
}
