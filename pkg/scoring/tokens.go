package scoring

import (
	"github.com/pkoukk/tiktoken-go"

	"graph-qa-be/pkg/traversal"
)

// tokenCounter reports how many tokens a prompt or completion costs.
// Counting is approximate for non-OpenAI backends but consistent, which is
// what the per-session accounting needs.
type tokenCounter struct {
	encoding *tiktoken.Tiktoken
}

func newTokenCounter() *tokenCounter {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		// Offline environments cannot always load the encoding files.
		return &tokenCounter{}
	}
	return &tokenCounter{encoding: enc}
}

func (t *tokenCounter) count(text string) int {
	if t.encoding == nil {
		// Rough fallback: one token per four characters.
		return (len(text) + 3) / 4
	}
	return len(t.encoding.Encode(text, nil, nil))
}

func (t *tokenCounter) usage(prompt, completion string) traversal.TokenUsage {
	return traversal.TokenUsage{
		Input:  t.count(prompt),
		Output: t.count(completion),
	}
}
