package traversal

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ChunkVectorRetriever is the graph-free fallback path: fetch chunks by
// embedding similarity against the question and appraise each one straight
// into the notebook. It never routes; the caller decides what follows,
// except when the store returns nothing at all or the guard has fired.
type ChunkVectorRetriever struct {
	chunks ChunkRepository
	scorer Scorer
	logger Logger
}

func NewChunkVectorRetriever(chunks ChunkRepository, scorer Scorer, logger Logger) *ChunkVectorRetriever {
	return &ChunkVectorRetriever{chunks: chunks, scorer: scorer, logger: logger}
}

func (r *ChunkVectorRetriever) Run(ctx context.Context, st State) (Update, []Event, error) {
	if guardFired(st) {
		return forceAnswer(TokenUsage{}), nil, nil
	}

	fetched, err := r.chunks.FindPotentialChunks(ctx, st.Question, st.ProcessedChunks.Values(), st.Limits)
	if err != nil {
		return Update{}, nil, fmt.Errorf("vector chunk lookup failed: %w", err)
	}
	if len(fetched) == 0 {
		return Update{NextStep: StepAnswer}, nil, nil
	}

	notes := make([]NotebookEntry, len(fetched))
	usages := make([]TokenUsage, len(fetched))
	statuses := make([]string, len(fetched))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(chunkParallelism)
	for i, chunk := range fetched {
		g.Go(func() error {
			note, status, usage, err := r.scorer.AppraiseChunk(gctx, st.Question, chunk)
			usages[i] = usage
			if err != nil {
				r.logger.Warn("traversal.vector", "chunk appraisal failed, dropping", map[string]interface{}{
					"session_id": st.SessionID,
					"chunk_id":   chunk.ID,
					"error":      err.Error(),
				})
				return nil
			}
			note.ChunkID = chunk.ID
			notes[i] = note
			statuses[i] = status
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Update{}, nil, err
	}

	update := Update{Tokens: TokenUsage{}}
	processed := make([]string, len(fetched))
	for i, chunk := range fetched {
		processed[i] = chunk.ID
		update.Tokens = update.Tokens.Add(usages[i])
		if strings.TrimSpace(notes[i].Content) != "" {
			update.AppendNotebook = append(update.AppendNotebook, notes[i])
		}
		if statuses[i] != "" {
			update.AddStatus = append(update.AddStatus, statuses[i])
		}
	}
	update.AddProcessedChunks = processed

	events := []Event{{
		Name:    "retrieval.vector",
		Message: fmt.Sprintf("Pulled %d similar passages from your notes...", len(fetched)),
	}}
	return update, events, nil
}
