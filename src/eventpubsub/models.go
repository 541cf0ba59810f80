package eventpubsub

import (
	"github.com/google/uuid"
)

// GenerationCompleted is published after every optimizer generation.
type GenerationCompleted struct {
	RunID       uuid.UUID
	Generation  int
	Evaluated   int
	CacheHits   int
	BestFitness float64
	BestGraphID string
}

// ChampionFound is published whenever a generation improves on the best
// fitness seen so far in the run.
type ChampionFound struct {
	RunID      uuid.UUID
	Generation int
	GraphID    string
	Fitness    float64
}

// RunTerminated is published exactly once, with the reason the loop
// stopped.
type RunTerminated struct {
	RunID       uuid.UUID
	Reason      string
	Generations int
	BestFitness float64
	BestGraphID string
}
