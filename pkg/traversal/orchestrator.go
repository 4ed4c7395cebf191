package traversal

import (
	"context"
	"errors"
	"fmt"
)

// ErrDone is returned by Dispatch when the session is already terminal.
var ErrDone = errors.New("traversal: session already reached answer")

// Orchestrator routes a session through the stages one hop at a time.
// Every hop consumes exactly one dispatch: the stage returns an Update,
// the orchestrator merges it and hands back the next State together with
// the progress events the stage produced.
type Orchestrator struct {
	refiner  *QuestionRefiner
	planner  *RationalPlanner
	concepts *KeyConceptSelector
	facts    *AtomicFactFilter
	chunks   *ChunkEvaluator
	vector   *ChunkVectorRetriever
	logger   Logger
}

func NewOrchestrator(
	refiner *QuestionRefiner,
	planner *RationalPlanner,
	concepts *KeyConceptSelector,
	facts *AtomicFactFilter,
	chunks *ChunkEvaluator,
	vector *ChunkVectorRetriever,
	logger Logger,
) *Orchestrator {
	return &Orchestrator{
		refiner:  refiner,
		planner:  planner,
		concepts: concepts,
		facts:    facts,
		chunks:   chunks,
		vector:   vector,
		logger:   logger,
	}
}

// Dispatch executes the stage the state points at and merges its result.
func (o *Orchestrator) Dispatch(ctx context.Context, st State) (State, []Event, error) {
	var (
		update Update
		events []Event
		err    error
	)

	switch st.NextStep {
	case StepQuestionRefine:
		update, events, err = o.refiner.Run(ctx, st)
	case StepRationalPlan:
		update, events, err = o.planner.Run(ctx, st, st.Annotations)
	case StepKeyConcepts, StepNeighbouringNodes:
		update, events, err = o.concepts.Run(ctx, st)
	case StepAtomicFacts:
		update, events, err = o.facts.Run(ctx, st)
	case StepChunks:
		update, events, err = o.chunks.Run(ctx, st)
	case StepChunksVector:
		update, events, err = o.vector.Run(ctx, st)
	case StepAnswer:
		return st, nil, ErrDone
	default:
		return st, nil, fmt.Errorf("traversal: unknown step %q", st.NextStep)
	}
	if err != nil {
		return st, nil, err
	}

	next := st.Apply(update)

	// The vector path is terminal: it appraises into the notebook and
	// never queues follow-up work of its own.
	if st.NextStep == StepChunksVector && next.NextStep == StepChunksVector {
		next.NextStep = StepAnswer
	}

	o.logger.Debug("traversal.orchestrator", "hop dispatched", map[string]interface{}{
		"session_id": next.SessionID,
		"hops":       next.Hops,
		"from":       string(st.NextStep),
		"to":         string(next.NextStep),
	})
	return next, events, nil
}

// Run loops Dispatch until the session reaches answer or hits the hard
// hop ceiling. maxHops <= 0 means no ceiling beyond the guard's own.
// emit may be nil.
func (o *Orchestrator) Run(ctx context.Context, st State, maxHops int, emit func(Event)) (State, error) {
	for !st.Done() {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		if maxHops > 0 && st.Hops >= maxHops {
			o.logger.Warn("traversal.orchestrator", "hard hop ceiling reached, forcing answer", map[string]interface{}{
				"session_id": st.SessionID,
				"hops":       st.Hops,
			})
			st.NextStep = StepAnswer
			break
		}

		next, events, err := o.Dispatch(ctx, st)
		if err != nil {
			return st, err
		}
		if emit != nil {
			for _, ev := range events {
				emit(ev)
			}
		}
		st = next
	}
	return st, nil
}
