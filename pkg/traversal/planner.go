package traversal

import (
	"context"
	"fmt"
)

// RationalPlanner produces the step-by-step plan that guides which
// evidence the later stages look for.
type RationalPlanner struct {
	scorer Scorer
	logger Logger
}

func NewRationalPlanner(scorer Scorer, logger Logger) *RationalPlanner {
	return &RationalPlanner{scorer: scorer, logger: logger}
}

// PreviousAnalysis carries a summary of prior answered questions in the
// same thread, when the caller has one.
func (p *RationalPlanner) Run(ctx context.Context, st State, previousAnalysis string) (Update, []Event, error) {
	if guardFired(st) {
		return forceAnswer(TokenUsage{}), nil, nil
	}

	plan, usage, err := p.scorer.PlanRetrieval(ctx, st.Question, previousAnalysis)
	if err != nil {
		return Update{}, nil, fmt.Errorf("rational planning failed: %w", err)
	}

	p.logger.Info("traversal.planner", "rational plan produced", map[string]interface{}{
		"session_id": st.SessionID,
	})

	events := []Event{{
		Name:    "retrieval.planning",
		Message: "Planning how to explore your notes...",
	}}

	return Update{
		RationalPlan: &plan,
		Tokens:       usage,
		NextStep:     StepKeyConcepts,
	}, events, nil
}
