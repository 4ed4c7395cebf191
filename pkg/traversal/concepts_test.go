package traversal

import (
	"context"
	"fmt"
	"reflect"
	"testing"
)

func TestKeyConceptSelectorKeepsTopTenStable(t *testing.T) {
	graph := &fakeGraph{potentialConcepts: conceptNames(12)}
	scorer := &fakeScorer{
		score: func(candidates []Concept) ([]ConceptScore, error) {
			out := make([]ConceptScore, len(candidates))
			for i, c := range candidates {
				// Two holding 90, everything else 40: the tie must keep
				// candidate order, and only ten names may survive.
				score := 40
				if i == 3 || i == 7 {
					score = 90
				}
				out[i] = ConceptScore{Name: c.Name, Score: score}
			}
			return out, nil
		},
	}

	sel := NewKeyConceptSelector(graph, scorer, NopLogger{})
	u, _, err := sel.Run(context.Background(), testState(StepKeyConcepts))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.QueuedKeyConcepts == nil {
		t.Fatal("no queue proposed")
	}

	queued := *u.QueuedKeyConcepts
	if len(queued) != 10 {
		t.Fatalf("queued %d concepts, want 10", len(queued))
	}
	want := []string{
		"concept-03", "concept-07",
		"concept-00", "concept-01", "concept-02", "concept-04",
		"concept-05", "concept-06", "concept-08", "concept-09",
	}
	if !reflect.DeepEqual(queued, want) {
		t.Fatalf("queued = %v, want %v", queued, want)
	}
	if u.NextStep != StepAtomicFacts {
		t.Fatalf("next step = %q, want %q", u.NextStep, StepAtomicFacts)
	}
}

func TestKeyConceptSelectorDropsUnknownNamesAndProcessed(t *testing.T) {
	graph := &fakeGraph{potentialConcepts: []Concept{{Name: "alpha"}, {Name: "beta"}, {Name: "seen"}}}
	scorer := &fakeScorer{
		score: func(candidates []Concept) ([]ConceptScore, error) {
			if len(candidates) != 2 {
				return nil, fmt.Errorf("processed concept offered to scorer: %v", candidates)
			}
			return []ConceptScore{
				{Name: "alpha", Score: 80},
				{Name: "invented", Score: 99},
				{Name: "beta", Score: 60},
			}, nil
		},
	}

	st := testState(StepKeyConcepts)
	st.ProcessedKeyConcepts = NewStringSet("seen")

	u, _, err := NewKeyConceptSelector(graph, scorer, NopLogger{}).Run(context.Background(), st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := *u.QueuedKeyConcepts, []string{"alpha", "beta"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("queued = %v, want %v", got, want)
	}
}

func TestKeyConceptSelectorNeighbourMode(t *testing.T) {
	graph := &fakeGraph{neighbours: []Concept{{Name: "gamma"}}}
	st := testState(StepNeighbouringNodes)
	st.ProcessedKeyConcepts = NewStringSet("alpha", "beta")

	u, _, err := NewKeyConceptSelector(graph, &fakeScorer{}, NopLogger{}).Run(context.Background(), st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !u.NeighboursExplored {
		t.Fatal("neighbour expansion not marked as consumed")
	}
	if got, want := *u.QueuedKeyConcepts, []string{"gamma"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("queued = %v, want %v", got, want)
	}
}

func TestKeyConceptSelectorNoCandidatesForcesAnswer(t *testing.T) {
	tests := []struct {
		name  string
		entry Step
	}{
		{"fresh expansion", StepKeyConcepts},
		{"neighbour expansion", StepNeighbouringNodes},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := testState(tt.entry)
			u, _, err := NewKeyConceptSelector(&fakeGraph{}, &fakeScorer{}, NopLogger{}).Run(context.Background(), st)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if u.NextStep != StepAnswer {
				t.Fatalf("next step = %q, want %q", u.NextStep, StepAnswer)
			}
			if wantFlag := tt.entry == StepNeighbouringNodes; u.NeighboursExplored != wantFlag {
				t.Fatalf("neighbours explored = %v, want %v", u.NeighboursExplored, wantFlag)
			}
		})
	}
}

func TestKeyConceptSelectorCollectsOntologyFromSources(t *testing.T) {
	graph := &fakeGraph{potentialConcepts: []Concept{
		{Name: "alpha", MetadataIDs: []string{"m1", "m2"}},
		{Name: "beta", MetadataIDs: []string{"m3"}},
	}}
	scorer := &fakeScorer{
		score: func(candidates []Concept) ([]ConceptScore, error) {
			return []ConceptScore{
				{Name: "alpha", Score: 90, IsSource: true},
				{Name: "beta", Score: 70},
			}, nil
		},
	}

	u, _, err := NewKeyConceptSelector(graph, scorer, NopLogger{}).Run(context.Background(), testState(StepKeyConcepts))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := u.AppendOntology, []string{"m1", "m2"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("ontology = %v, want %v", got, want)
	}
}
