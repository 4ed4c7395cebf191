package traversal

import (
	"context"
	"fmt"
	"strings"
)

// QuestionRefiner collapses a multi-turn chat history into one focused
// question so later stages retrieve against a single intent instead of a
// whole conversation.
type QuestionRefiner struct {
	scorer Scorer
	logger Logger
}

func NewQuestionRefiner(scorer Scorer, logger Logger) *QuestionRefiner {
	return &QuestionRefiner{scorer: scorer, logger: logger}
}

func (r *QuestionRefiner) Run(ctx context.Context, st State) (Update, []Event, error) {
	if guardFired(st) {
		return forceAnswer(TokenUsage{}), nil, nil
	}

	// Nothing to collapse for a one-shot question.
	if len(st.History) == 0 {
		return Update{NextStep: StepRationalPlan}, nil, nil
	}

	refined, usage, err := r.scorer.RefineQuestion(ctx, st.History, st.Question)
	if err != nil {
		return Update{}, nil, fmt.Errorf("question refinement failed: %w", err)
	}

	refined = strings.TrimSpace(refined)
	if refined == "" {
		// Keep the original question rather than retrieving against nothing.
		r.logger.Warn("traversal.refiner", "scorer returned empty refinement, keeping original question", nil)
		return Update{Tokens: usage, NextStep: StepRationalPlan}, nil, nil
	}

	r.logger.Info("traversal.refiner", "question refined", map[string]interface{}{
		"session_id": st.SessionID,
		"question":   refined,
	})

	return Update{
		Question: &refined,
		Tokens:   usage,
		NextStep: StepRationalPlan,
	}, nil, nil
}
