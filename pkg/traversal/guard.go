package traversal

// Traversal safety caps. The soft hop limit is a fixed safety margin below
// the caller's configurable hard ceiling; the chunk-level cap bounds how
// often the chunk-expansion loop may re-enter.
const (
	HopSoftLimit  = 15
	ChunkLevelCap = 3
)

// ApproachingHopBudget reports whether the session has consumed enough
// hops that stages must stop expanding and answer with what they have.
func ApproachingHopBudget(s State) bool {
	return s.Hops >= HopSoftLimit
}

// ChunkLoopExhausted reports whether the chunk-expansion loop has
// re-entered more times than allowed.
func ChunkLoopExhausted(s State) bool {
	return s.ChunkLevel > ChunkLevelCap
}

// guardFired is the check every expanding stage runs before queuing more
// work. When it fires the stage forces StepAnswer and clears any queue it
// would otherwise have proposed.
func guardFired(s State) bool {
	return ApproachingHopBudget(s) || ChunkLoopExhausted(s)
}

// forceAnswer returns an update that terminates the session without
// queuing further work, overriding whatever the stage's own scoring would
// have selected.
func forceAnswer(tokens TokenUsage) Update {
	empty := []string{}
	return Update{
		QueuedKeyConcepts: &empty,
		QueuedChunks:      &empty,
		Tokens:            tokens,
		NextStep:          StepAnswer,
	}
}
