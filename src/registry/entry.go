package registry

// Entry is the registry's record of one evaluated graph: the best fitness
// across all of its evaluations, how many evaluations there were and the
// last generation that touched it.
type Entry struct {
	GraphID        string  `json:"graphId"`
	BestFitness    float64 `json:"bestFitness"`
	EvalCount      int     `json:"evalCount"`
	LastGeneration int     `json:"lastGeneration"`
}

// Store persists entries behind the in-memory registry. Implementations
// must be safe for concurrent use; the registry calls Put under its shard
// lock so per-identity writes arrive in merge order.
type Store interface {
	Get(id string) (Entry, bool, error)
	Put(entry Entry) error
	List() ([]Entry, error)
}
