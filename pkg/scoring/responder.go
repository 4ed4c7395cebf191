package scoring

import (
	"context"
	"fmt"
	"strings"

	"graph-qa-be/pkg/llm"
	"graph-qa-be/pkg/traversal"
)

// Responder produces the final answer from whatever the traversal
// accumulated. Unlike the stage calls it returns free text, not JSON.
type Responder struct {
	provider llm.LLMProvider
	counter  *tokenCounter
}

func NewResponder(provider llm.LLMProvider) *Responder {
	return &Responder{provider: provider, counter: newTokenCounter()}
}

func (r *Responder) Answer(ctx context.Context, st traversal.State) (string, traversal.TokenUsage, error) {
	prompt := buildAnswerPrompt(st)
	response, err := r.provider.Generate(ctx, prompt, llm.WithTemperature(0.5))
	if err != nil {
		return "", traversal.TokenUsage{}, fmt.Errorf("answer generation call failed: %w", err)
	}
	usage := r.counter.usage(prompt, response)

	answer := strings.TrimSpace(response)
	if answer == "" {
		return "", usage, fmt.Errorf("model returned an empty answer")
	}
	return answer, usage, nil
}

func buildAnswerPrompt(st traversal.State) string {
	var prompt strings.Builder

	prompt.WriteString("<task>\n")
	prompt.WriteString("Answer the question using ONLY the evidence below, gathered from the\n")
	prompt.WriteString("user's own notes. When the evidence does not cover the question, say so\n")
	prompt.WriteString("plainly instead of guessing.\n")
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("<question>\n")
	prompt.WriteString(st.Question)
	prompt.WriteString("\n</question>\n\n")

	if len(st.Notebook) > 0 {
		prompt.WriteString("<notebook>\n")
		for _, entry := range st.Notebook {
			prompt.WriteString("- ")
			prompt.WriteString(entry.Content)
			if entry.Reason != "" {
				prompt.WriteString(" (")
				prompt.WriteString(entry.Reason)
				prompt.WriteString(")")
			}
			prompt.WriteString("\n")
		}
		prompt.WriteString("</notebook>\n\n")
	}

	if st.Annotations != "" {
		prompt.WriteString("<fact_annotations>\n")
		prompt.WriteString(st.Annotations)
		prompt.WriteString("\n</fact_annotations>\n\n")
	}

	prompt.WriteString("Answer in the language of the question, concise and direct.\n")
	return prompt.String()
}
