package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"graph-qa-be/pkg/llm"
)

// ExtractedFact is one atomic statement pulled out of a chunk together
// with the concept names it mentions.
type ExtractedFact struct {
	Content  string   `json:"content"`
	Concepts []string `json:"concepts"`
}

// Extractor turns raw chunk text into atomic facts and key concepts.
type Extractor struct {
	provider llm.LLMProvider
}

func NewExtractor(provider llm.LLMProvider) *Extractor {
	return &Extractor{provider: provider}
}

func (e *Extractor) ExtractFacts(ctx context.Context, chunk string) ([]ExtractedFact, error) {
	prompt := buildExtractPrompt(chunk)
	response, err := e.provider.Generate(ctx, prompt, llm.WithTemperature(0.1))
	if err != nil {
		return nil, fmt.Errorf("fact extraction call failed: %w", err)
	}

	var parsed struct {
		Facts []ExtractedFact `json:"facts"`
	}
	if err := json.Unmarshal([]byte(extractJSON(response)), &parsed); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}

	out := make([]ExtractedFact, 0, len(parsed.Facts))
	for _, fact := range parsed.Facts {
		fact.Content = strings.TrimSpace(fact.Content)
		if fact.Content == "" {
			continue
		}
		fact.Concepts = normalizeConcepts(fact.Concepts)
		if len(fact.Concepts) == 0 {
			continue
		}
		out = append(out, fact)
	}
	return out, nil
}

func buildExtractPrompt(chunk string) string {
	var prompt strings.Builder

	prompt.WriteString("<task>\n")
	prompt.WriteString("Break the passage into atomic facts: short, self-contained statements\n")
	prompt.WriteString("that are each true on their own. For every fact, list the key concepts\n")
	prompt.WriteString("it mentions as short noun phrases. Reuse the same concept name for the\n")
	prompt.WriteString("same thing across facts.\n")
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("<passage>\n")
	prompt.WriteString(chunk)
	prompt.WriteString("\n</passage>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON in this exact structure:\n\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"facts\": [\n")
	prompt.WriteString("    {\"content\": \"one atomic fact\", \"concepts\": [\"concept name\"]}\n")
	prompt.WriteString("  ]\n")
	prompt.WriteString("}\n\n")
	prompt.WriteString("IMPORTANT: Output ONLY the JSON. No preamble, no explanation outside the JSON.\n")
	prompt.WriteString("</output_format>\n")

	return prompt.String()
}

// normalizeConcepts lowercases, trims, and deduplicates concept names so
// the same concept written twice lands on one graph node.
func normalizeConcepts(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.Join(strings.Fields(name), " "))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// extractJSON isolates JSON content from response
func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return response
	}

	return response[startIdx : endIdx+1]
}
