package traversal

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// How many chunks may be scored at once.
const chunkParallelism = 4

// ChunkEvaluator reads every freshly queued chunk, lets the scorer take
// notes on it, and follows the per-chunk navigation actions. Each run
// descends one chunk level; the guard caps the descent.
type ChunkEvaluator struct {
	chunks ChunkRepository
	scorer Scorer
	logger Logger
}

func NewChunkEvaluator(chunks ChunkRepository, scorer Scorer, logger Logger) *ChunkEvaluator {
	return &ChunkEvaluator{chunks: chunks, scorer: scorer, logger: logger}
}

func (e *ChunkEvaluator) Run(ctx context.Context, st State) (Update, []Event, error) {
	if guardFired(st) {
		u := forceAnswer(TokenUsage{})
		u.ChunkLevelDelta = 1
		return u, nil, nil
	}

	delta := make([]string, 0, len(st.QueuedChunks))
	for _, id := range st.QueuedChunks {
		if !st.ProcessedChunks.Has(id) {
			delta = append(delta, id)
		}
	}
	if len(delta) == 0 {
		return Update{ChunkLevelDelta: 1, NextStep: fallbackStep(st)}, nil, nil
	}

	resolved := e.resolve(ctx, st, delta)
	if len(resolved) == 0 {
		return Update{
			ChunkLevelDelta:    1,
			AddProcessedChunks: delta,
			NextStep:           fallbackStep(st),
		}, nil, nil
	}

	verdicts, usage, err := e.evaluate(ctx, st, resolved)
	if err != nil {
		return Update{}, nil, err
	}

	update := Update{
		ChunkLevelDelta:    1,
		AddProcessedChunks: delta,
		Tokens:             usage,
	}

	var (
		wantAnswer bool
		newQueue   []string
	)
	queuedNow := NewStringSet(delta...)

	enqueue := func(id string) {
		if id == "" || st.ProcessedChunks.Has(id) || queuedNow.Has(id) {
			return
		}
		queuedNow[id] = struct{}{}
		newQueue = append(newQueue, id)
	}

	for i, v := range verdicts {
		chunk := resolved[i]

		// Every action but skip writes its note, though a blank note is
		// treated as missing content and kept out of the notebook.
		if v.Action != ActionSkip && strings.TrimSpace(v.Note.Content) != "" {
			note := v.Note
			note.ChunkID = chunk.ID
			update.AppendNotebook = append(update.AppendNotebook, note)
		}

		switch v.Action {
		case ActionQueuePrevious:
			prev, err := e.chunks.FindPreviousChunkID(ctx, chunk.ID)
			if err != nil {
				return Update{}, nil, fmt.Errorf("previous chunk lookup failed: %w", err)
			}
			enqueue(prev)
		case ActionQueueNext:
			next, err := e.chunks.FindSubsequentChunkID(ctx, chunk.ID)
			if err != nil {
				return Update{}, nil, fmt.Errorf("next chunk lookup failed: %w", err)
			}
			enqueue(next)
		case ActionReadNeighbours:
			// the fallback route below already heads to the neighbours
		case ActionAnswer:
			wantAnswer = true
			if v.Status != "" {
				update.AddStatus = append(update.AddStatus, v.Status)
			}
		case ActionSkip:
			// nothing to follow up
		default:
			e.logger.Warn("traversal.chunks", "scorer returned unknown chunk action, treating as skip", map[string]interface{}{
				"chunk_id": chunk.ID,
				"action":   v.Action,
			})
		}
	}

	switch {
	case len(newQueue) > 0:
		update.QueuedChunks = &newQueue
		update.NextStep = StepChunks
	case wantAnswer:
		update.NextStep = StepAnswer
	default:
		update.NextStep = fallbackStep(st)
	}

	events := []Event{{
		Name:    "retrieval.chunks",
		Message: fmt.Sprintf("Read %d passages, %d notes taken...", len(resolved), len(update.AppendNotebook)),
	}}
	return update, events, nil
}

// fallbackStep is where a chunk pass with nothing left to follow sends the
// session: widen the walk through the neighbouring concepts once, answer
// after that.
func fallbackStep(st State) Step {
	if !st.NeighboursExplored {
		return StepNeighbouringNodes
	}
	return StepAnswer
}

// resolve loads the chunk bodies, dropping ids the store no longer has and
// chunks with blank content. The dropped ids still count as processed.
func (e *ChunkEvaluator) resolve(ctx context.Context, st State, ids []string) []Chunk {
	resolved := make([]Chunk, 0, len(ids))
	for _, id := range ids {
		chunk, err := e.chunks.FindChunkByID(ctx, id)
		if err != nil {
			e.logger.Warn("traversal.chunks", "chunk lookup failed, skipping", map[string]interface{}{
				"session_id": st.SessionID,
				"chunk_id":   id,
				"error":      err.Error(),
			})
			continue
		}
		if chunk == nil || strings.TrimSpace(chunk.Content) == "" {
			e.logger.Warn("traversal.chunks", "queued chunk missing or empty, skipping", map[string]interface{}{
				"session_id": st.SessionID,
				"chunk_id":   id,
			})
			continue
		}
		resolved = append(resolved, *chunk)
	}
	return resolved
}

// evaluate scores the chunks concurrently but merges verdicts in input
// order so the notebook reads in queue order. A failed call degrades to a
// skip; every call failing is fatal.
func (e *ChunkEvaluator) evaluate(ctx context.Context, st State, resolved []Chunk) ([]ChunkVerdict, TokenUsage, error) {
	verdicts := make([]ChunkVerdict, len(resolved))
	usages := make([]TokenUsage, len(resolved))
	failed := make([]bool, len(resolved))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(chunkParallelism)

	for i, chunk := range resolved {
		g.Go(func() error {
			verdict, usage, err := e.scorer.EvaluateChunk(gctx, st.Question, st.RationalPlan, chunk, st.Notebook)
			usages[i] = usage
			if err != nil {
				failed[i] = true
				verdicts[i] = ChunkVerdict{Action: ActionSkip}
				e.logger.Warn("traversal.chunks", "chunk evaluation failed, treating as skip", map[string]interface{}{
					"session_id": st.SessionID,
					"chunk_id":   chunk.ID,
					"error":      err.Error(),
				})
				return nil
			}
			verdicts[i] = verdict
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, TokenUsage{}, err
	}

	var usage TokenUsage
	failures := 0
	for i := range resolved {
		usage = usage.Add(usages[i])
		if failed[i] {
			failures++
		}
	}
	if failures == len(resolved) {
		return nil, usage, fmt.Errorf("all %d chunk evaluations failed", len(resolved))
	}
	return verdicts, usage, nil
}
