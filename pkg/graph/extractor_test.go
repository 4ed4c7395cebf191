package graph

import (
	"context"
	"reflect"
	"testing"

	"graph-qa-be/pkg/llm"
)

type cannedProvider struct {
	response string
	err      error
}

func (p *cannedProvider) Chat(context.Context, []llm.Message, ...llm.Option) (string, error) {
	return p.response, p.err
}

func (p *cannedProvider) Generate(context.Context, string, ...llm.Option) (string, error) {
	return p.response, p.err
}

func TestExtractFactsNormalizesConcepts(t *testing.T) {
	provider := &cannedProvider{response: "```json\n" + `{
		"facts": [
			{"content": "Axons carry action potentials.", "concepts": ["Axon", "  Action   Potential ", "axon"]},
			{"content": "   ", "concepts": ["noise"]},
			{"content": "Myelin speeds conduction.", "concepts": []}
		]
	}` + "\n```"}

	facts, err := NewExtractor(provider).ExtractFacts(context.Background(), "some passage")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("facts = %+v, want only the well-formed one", facts)
	}
	if got, want := facts[0].Concepts, []string{"axon", "action potential"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("concepts = %v, want %v", got, want)
	}
}

func TestExtractFactsProseResponseFails(t *testing.T) {
	provider := &cannedProvider{response: "the passage talks about axons"}
	if _, err := NewExtractor(provider).ExtractFacts(context.Background(), "p"); err == nil {
		t.Fatal("prose response accepted")
	}
}
