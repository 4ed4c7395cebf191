package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"graph-qa-be/pkg/llm"
	"graph-qa-be/pkg/traversal"
)

// Scorer implements traversal.Scorer on top of an LLM provider. Every call
// builds a structured prompt, demands JSON back, extracts and validates it
// before anything reaches the traversal stages.
type Scorer struct {
	provider llm.LLMProvider
	counter  *tokenCounter
	logger   traversal.Logger
}

var _ traversal.Scorer = &Scorer{}

func NewScorer(provider llm.LLMProvider, logger traversal.Logger) *Scorer {
	return &Scorer{
		provider: provider,
		counter:  newTokenCounter(),
		logger:   logger,
	}
}

func (s *Scorer) RefineQuestion(ctx context.Context, history []traversal.ChatTurn, question string) (string, traversal.TokenUsage, error) {
	prompt := buildRefinePrompt(history, question)
	response, err := s.provider.Generate(ctx, prompt, llm.WithTemperature(0.2))
	if err != nil {
		return "", traversal.TokenUsage{}, fmt.Errorf("refine question call failed: %w", err)
	}
	usage := s.counter.usage(prompt, response)

	var parsed struct {
		RefinedQuestion string `json:"refined_question"`
	}
	if err := unmarshalResponse(response, &parsed); err != nil {
		return "", usage, err
	}
	return strings.TrimSpace(parsed.RefinedQuestion), usage, nil
}

func (s *Scorer) PlanRetrieval(ctx context.Context, question, previousAnalysis string) (string, traversal.TokenUsage, error) {
	prompt := buildPlanPrompt(question, previousAnalysis)
	response, err := s.provider.Generate(ctx, prompt, llm.WithTemperature(0.3))
	if err != nil {
		return "", traversal.TokenUsage{}, fmt.Errorf("plan retrieval call failed: %w", err)
	}
	usage := s.counter.usage(prompt, response)

	var parsed struct {
		RationalPlan string `json:"rational_plan"`
	}
	if err := unmarshalResponse(response, &parsed); err != nil {
		return "", usage, err
	}
	plan := strings.TrimSpace(parsed.RationalPlan)
	if plan == "" {
		return "", usage, fmt.Errorf("model returned an empty rational plan")
	}
	return plan, usage, nil
}

func (s *Scorer) ScoreConcepts(ctx context.Context, question, plan string, candidates []traversal.Concept) ([]traversal.ConceptScore, traversal.TokenUsage, error) {
	prompt := buildConceptPrompt(question, plan, candidates)
	response, err := s.provider.Generate(ctx, prompt, llm.WithTemperature(0.1))
	if err != nil {
		return nil, traversal.TokenUsage{}, fmt.Errorf("concept scoring call failed: %w", err)
	}
	usage := s.counter.usage(prompt, response)

	var parsed struct {
		Concepts []struct {
			Name     string `json:"name"`
			Score    int    `json:"score"`
			IsSource bool   `json:"is_source"`
		} `json:"concepts"`
	}
	if err := unmarshalResponse(response, &parsed); err != nil {
		return nil, usage, err
	}

	out := make([]traversal.ConceptScore, 0, len(parsed.Concepts))
	for _, c := range parsed.Concepts {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		out = append(out, traversal.ConceptScore{
			Name:     name,
			Score:    clampScore(c.Score),
			IsSource: c.IsSource,
		})
	}
	return out, usage, nil
}

func (s *Scorer) EvaluateFacts(ctx context.Context, question, plan string, facts []traversal.Fact) (traversal.FactBatchResult, traversal.TokenUsage, error) {
	prompt := buildFactPrompt(question, plan, facts)
	response, err := s.provider.Generate(ctx, prompt, llm.WithTemperature(0.1))
	if err != nil {
		return traversal.FactBatchResult{}, traversal.TokenUsage{}, fmt.Errorf("fact evaluation call failed: %w", err)
	}
	usage := s.counter.usage(prompt, response)

	var parsed struct {
		Status     string   `json:"status"`
		Annotation string   `json:"annotation"`
		ChunkIDs   []string `json:"chunk_ids"`
	}
	if err := unmarshalResponse(response, &parsed); err != nil {
		return traversal.FactBatchResult{}, usage, err
	}

	ids := make([]string, 0, len(parsed.ChunkIDs))
	for _, id := range parsed.ChunkIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return traversal.FactBatchResult{
		Status:     strings.TrimSpace(parsed.Status),
		Annotation: strings.TrimSpace(parsed.Annotation),
		ChunkIDs:   ids,
	}, usage, nil
}

func (s *Scorer) EvaluateChunk(ctx context.Context, question, plan string, chunk traversal.Chunk, notebook []traversal.NotebookEntry) (traversal.ChunkVerdict, traversal.TokenUsage, error) {
	prompt := buildChunkPrompt(question, plan, chunk, notebook)
	response, err := s.provider.Generate(ctx, prompt, llm.WithTemperature(0.1))
	if err != nil {
		return traversal.ChunkVerdict{}, traversal.TokenUsage{}, fmt.Errorf("chunk evaluation call failed: %w", err)
	}
	usage := s.counter.usage(prompt, response)

	var parsed struct {
		Note   string `json:"note"`
		Reason string `json:"reason"`
		Action string `json:"action"`
		Status string `json:"status"`
	}
	if err := unmarshalResponse(response, &parsed); err != nil {
		return traversal.ChunkVerdict{}, usage, err
	}

	action, ok := normalizeAction(parsed.Action)
	if !ok {
		s.logger.Warn("scoring", "model returned unknown chunk action, downgrading to skip", map[string]interface{}{
			"chunk_id": chunk.ID,
			"action":   parsed.Action,
		})
		action = traversal.ActionSkip
	}

	return traversal.ChunkVerdict{
		Note: traversal.NotebookEntry{
			Content: strings.TrimSpace(parsed.Note),
			Reason:  strings.TrimSpace(parsed.Reason),
		},
		Action: action,
		Status: strings.TrimSpace(parsed.Status),
	}, usage, nil
}

func (s *Scorer) AppraiseChunk(ctx context.Context, question string, chunk traversal.Chunk) (traversal.NotebookEntry, string, traversal.TokenUsage, error) {
	prompt := buildAppraisePrompt(question, chunk)
	response, err := s.provider.Generate(ctx, prompt, llm.WithTemperature(0.1))
	if err != nil {
		return traversal.NotebookEntry{}, "", traversal.TokenUsage{}, fmt.Errorf("chunk appraisal call failed: %w", err)
	}
	usage := s.counter.usage(prompt, response)

	var parsed struct {
		Note   string `json:"note"`
		Reason string `json:"reason"`
		Status string `json:"status"`
	}
	if err := unmarshalResponse(response, &parsed); err != nil {
		return traversal.NotebookEntry{}, "", usage, err
	}

	return traversal.NotebookEntry{
		Content: strings.TrimSpace(parsed.Note),
		Reason:  strings.TrimSpace(parsed.Reason),
	}, strings.TrimSpace(parsed.Status), usage, nil
}

// unmarshalResponse isolates the JSON object in a model response and
// decodes it. Models wrap JSON in prose and code fences often enough that
// decoding the raw response directly is not an option.
func unmarshalResponse(response string, target interface{}) error {
	if err := json.Unmarshal([]byte(extractJSON(response)), target); err != nil {
		return fmt.Errorf("json unmarshal failed: %w", err)
	}
	return nil
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

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func normalizeAction(raw string) (traversal.ChunkAction, bool) {
	switch traversal.ChunkAction(strings.ToLower(strings.TrimSpace(raw))) {
	case traversal.ActionQueuePrevious:
		return traversal.ActionQueuePrevious, true
	case traversal.ActionQueueNext:
		return traversal.ActionQueueNext, true
	case traversal.ActionReadNeighbours:
		return traversal.ActionReadNeighbours, true
	case traversal.ActionAnswer:
		return traversal.ActionAnswer, true
	case traversal.ActionSkip:
		return traversal.ActionSkip, true
	default:
		return "", false
	}
}
