package traversal

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Facts evaluated per scorer call, at most.
const factBatchSize = 50

// How many fact batches may be in flight at once.
const factBatchParallelism = 4

// AtomicFactFilter evaluates the atomic facts tied to the freshly queued
// key concepts and derives the candidate chunks worth reading.
type AtomicFactFilter struct {
	facts  FactRepository
	scorer Scorer
	logger Logger
}

func NewAtomicFactFilter(facts FactRepository, scorer Scorer, logger Logger) *AtomicFactFilter {
	return &AtomicFactFilter{facts: facts, scorer: scorer, logger: logger}
}

func (f *AtomicFactFilter) Run(ctx context.Context, st State) (Update, []Event, error) {
	if guardFired(st) {
		return forceAnswer(TokenUsage{}), nil, nil
	}

	delta := make([]string, 0, len(st.QueuedKeyConcepts))
	for _, c := range st.QueuedKeyConcepts {
		if !st.ProcessedKeyConcepts.Has(c) {
			delta = append(delta, c)
		}
	}

	// Nothing new to evaluate: a strict pass-through, so re-running with an
	// exhausted queue cannot touch the notebook or annotations.
	if len(delta) == 0 {
		return Update{NextStep: f.passThroughStep(st)}, nil, nil
	}

	fresh, err := f.facts.FindAtomicFactsByKeyConcepts(ctx, delta,
		st.ProcessedChunks.Values(), st.ProcessedFacts.Values(), st.Limits)
	if err != nil {
		return Update{}, nil, fmt.Errorf("atomic fact lookup failed: %w", err)
	}

	if len(fresh) == 0 {
		return Update{
			AddProcessedKeyConcepts: delta,
			NextStep:                f.passThroughStep(st),
		}, nil, nil
	}

	merged, usage, err := f.evaluateBatches(ctx, st, fresh)
	if err != nil {
		return Update{}, nil, err
	}

	factIDs := make([]string, len(fresh))
	for i, fact := range fresh {
		factIDs[i] = fact.ID
	}

	update := Update{
		AddProcessedKeyConcepts: delta,
		AddProcessedFacts:       factIDs,
		AppendAnnotations:       merged.annotations,
		AddStatus:               merged.statuses,
		Tokens:                  usage,
	}

	candidates := f.survivingChunks(st, fresh, merged.chunkIDs)
	if len(candidates) == 0 {
		if st.NeighboursExplored {
			update.NextStep = StepAnswer
		} else {
			update.NextStep = StepNeighbouringNodes
		}
		return update, nil, nil
	}

	f.logger.Info("traversal.facts", "chunk candidates derived from atomic facts", map[string]interface{}{
		"session_id": st.SessionID,
		"facts":      len(fresh),
		"candidates": len(candidates),
	})

	events := []Event{{
		Name:    "retrieval.facts",
		Message: fmt.Sprintf("Cross-checked %d facts, reading %d passages next...", len(fresh), len(candidates)),
	}}

	update.QueuedChunks = &candidates
	update.NextStep = StepChunks
	return update, events, nil
}

// passThroughStep is where an empty delta or empty fact set sends the
// session: keep reading queued chunks when there are any, answer otherwise.
func (f *AtomicFactFilter) passThroughStep(st State) Step {
	if len(st.QueuedChunks) > 0 {
		return StepChunks
	}
	return StepAnswer
}

type mergedFactResults struct {
	annotations string
	statuses    []string
	chunkIDs    []string
}

// evaluateBatches fans the fact list out in fixed-size batches and joins
// the results. Annotations are concatenated in batch-completion order;
// a single failed batch degrades to an empty result so one bad call does
// not abort the stage, while a wholesale scorer outage is fatal.
func (f *AtomicFactFilter) evaluateBatches(ctx context.Context, st State, fresh []Fact) (mergedFactResults, TokenUsage, error) {
	var (
		mu       sync.Mutex
		merged   mergedFactResults
		usage    TokenUsage
		failures int
		batches  int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(factBatchParallelism)

	for start := 0; start < len(fresh); start += factBatchSize {
		end := start + factBatchSize
		if end > len(fresh) {
			end = len(fresh)
		}
		batch := fresh[start:end]
		batches++

		g.Go(func() error {
			result, batchUsage, err := f.scorer.EvaluateFacts(gctx, st.Question, st.RationalPlan, batch)

			mu.Lock()
			defer mu.Unlock()
			usage = usage.Add(batchUsage)
			if err != nil {
				failures++
				f.logger.Warn("traversal.facts", "fact batch evaluation failed, treating as empty", map[string]interface{}{
					"session_id": st.SessionID,
					"error":      err.Error(),
				})
				return nil
			}
			if result.Annotation != "" {
				if merged.annotations != "" {
					merged.annotations += "\n"
				}
				merged.annotations += result.Annotation
			}
			if result.Status != "" {
				merged.statuses = append(merged.statuses, result.Status)
			}
			merged.chunkIDs = append(merged.chunkIDs, result.ChunkIDs...)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return mergedFactResults{}, usage, err
	}
	if failures == batches {
		return mergedFactResults{}, usage, fmt.Errorf("all %d fact batches failed to evaluate", batches)
	}
	return merged, usage, nil
}

// survivingChunks deduplicates the scorer's chunk ids, keeps only ids that
// actually back one of the evaluated facts, and drops already-read chunks.
func (f *AtomicFactFilter) survivingChunks(st State, fresh []Fact, proposed []string) []string {
	known := NewStringSet()
	for _, fact := range fresh {
		known[fact.ChunkID] = struct{}{}
	}

	out := make([]string, 0, len(proposed))
	seen := NewStringSet()
	for _, id := range proposed {
		if id == "" || seen.Has(id) {
			continue
		}
		seen[id] = struct{}{}
		if !known.Has(id) {
			f.logger.Warn("traversal.facts", "scorer proposed chunk outside fact set, dropping", map[string]interface{}{
				"chunk_id": id,
			})
			continue
		}
		if st.ProcessedChunks.Has(id) {
			continue
		}
		out = append(out, id)
	}
	return out
}
