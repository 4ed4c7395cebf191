package factory

import (
	"testing"

	"graph-qa-be/pkg/llm/huggingface"
	"graph-qa-be/pkg/llm/ollama"
)

func TestNewLLMProviderSelectsBackend(t *testing.T) {
	p, err := NewLLMProvider("ollama", "llama3", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(*ollama.OllamaProvider); !ok {
		t.Fatalf("provider = %T, want *ollama.OllamaProvider", p)
	}

	p, err = NewLLMProvider("huggingface", "Qwen/Qwen2.5-7B-Instruct", "http://localhost:11434", "hf_key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(*huggingface.HuggingFaceProvider); !ok {
		t.Fatalf("provider = %T, want *huggingface.HuggingFaceProvider", p)
	}
}

func TestNewLLMProviderRejectsUnknownBackend(t *testing.T) {
	if _, err := NewLLMProvider("carrier-pigeon", "any", "", ""); err == nil {
		t.Fatal("unknown provider accepted")
	}
}
