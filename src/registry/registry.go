package registry

import (
	"fmt"
	"sort"
	"sync"
)

// power of 2 so the shard index is a mask, not a modulo
const numShards = 128

// Registry is the content-addressed record of every evaluated graph. The
// map is sharded across mutexes so concurrent recordings for different
// identities never contend; recordings for the same identity serialize on
// one shard lock.
type Registry struct {
	capacity int
	store    Store

	shards [numShards]shard
}

type shard struct {
	mutex sync.Mutex
	items map[string]Entry
}

// NewRegistry builds a registry bounded to capacity entries; capacity 0
// means unbounded. A nil store keeps the registry in-memory only.
func NewRegistry(capacity int, store Store) (*Registry, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("capacity must not be negative, got %d", capacity)
	}

	registry := &Registry{
		capacity: capacity,
		store:    store,
	}

	for i := range registry.shards {
		registry.shards[i].items = make(map[string]Entry, 64)
	}

	return registry, nil
}

// fnv1aHash spreads identities across shards, fast with good distribution.
func fnv1aHash(s string) uint32 {
	hash := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}

	return hash
}

func (r *Registry) shardFor(id string) *shard {
	return &r.shards[fnv1aHash(id)&(numShards-1)]
}

// Lookup returns the entry for a graph identity. A miss is an ordinary
// state, not an error.
func (r *Registry) Lookup(id string) (Entry, bool) {
	s := r.shardFor(id)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, found := s.items[id]
	return entry, found
}

// Record merges one evaluation into the graph's entry: best fitness is the
// max seen so far, the evaluation count grows by exactly one per call and
// the generation high-water mark advances. Merge and write-through happen
// under the shard lock, so a concurrent lookup sees a complete pre- or
// post-merge entry.
func (r *Registry) Record(id string, fitness float64, generation int) (Entry, error) {
	entry, inserted, err := r.merge(id, fitness, generation)
	if err != nil {
		return entry, err
	}

	if inserted {
		r.enforceCapacity()
	}

	return entry, nil
}

func (r *Registry) merge(id string, fitness float64, generation int) (Entry, bool, error) {
	s := r.shardFor(id)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, found := s.items[id]
	if !found {
		entry = Entry{
			GraphID:        id,
			BestFitness:    fitness,
			EvalCount:      1,
			LastGeneration: generation,
		}
	} else {
		if fitness > entry.BestFitness {
			entry.BestFitness = fitness
		}

		entry.EvalCount++

		if generation > entry.LastGeneration {
			entry.LastGeneration = generation
		}
	}

	s.items[id] = entry

	if r.store != nil {
		if err := r.store.Put(entry); err != nil {
			return entry, !found, fmt.Errorf("failed to persist registry entry: %w", err)
		}
	}

	return entry, !found, nil
}

func (r *Registry) Len() int {
	total := 0

	for i := range r.shards {
		s := &r.shards[i]
		s.mutex.Lock()
		total += len(s.items)
		s.mutex.Unlock()
	}

	return total
}

// Best returns the entry with the highest fitness; ties break toward the
// lexicographically lower identity so the answer is reproducible.
func (r *Registry) Best() (Entry, bool) {
	var best Entry
	found := false

	for i := range r.shards {
		s := &r.shards[i]
		s.mutex.Lock()
		for _, entry := range s.items {
			if !found || entry.BestFitness > best.BestFitness ||
				(entry.BestFitness == best.BestFitness && entry.GraphID < best.GraphID) {
				best = entry
				found = true
			}
		}
		s.mutex.Unlock()
	}

	return best, found
}

// Entries snapshots the registry sorted by identity, so two snapshots of
// the same contents compare equal.
func (r *Registry) Entries() []Entry {
	r.lockAll()
	defer r.unlockAll()

	return r.collectLocked()
}

// Restore hydrates the registry from its store, returning the number of
// entries loaded. Entries beyond capacity are evicted immediately.
func (r *Registry) Restore() (int, error) {
	if r.store == nil {
		return 0, nil
	}

	entries, err := r.store.List()
	if err != nil {
		return 0, fmt.Errorf("failed to list registry store: %w", err)
	}

	for _, entry := range entries {
		s := r.shardFor(entry.GraphID)
		s.mutex.Lock()
		s.items[entry.GraphID] = entry
		s.mutex.Unlock()
	}

	r.enforceCapacity()

	return len(entries), nil
}

// enforceCapacity drops the weakest entries once the registry outgrows its
// bound. Rank is the sum of the fitness rank and the recency rank, both
// ascending, so entries that are weak and stale go first. The best entry
// is never dropped.
func (r *Registry) enforceCapacity() {
	if r.capacity <= 0 {
		return
	}

	r.lockAll()
	defer r.unlockAll()

	entries := r.collectLocked()

	excess := len(entries) - r.capacity
	if excess <= 0 {
		return
	}

	for _, id := range rankForEviction(entries) {
		if excess == 0 {
			break
		}

		delete(r.shardFor(id).items, id)
		excess--
	}
}

func (r *Registry) lockAll() {
	for i := range r.shards {
		r.shards[i].mutex.Lock()
	}
}

func (r *Registry) unlockAll() {
	for i := range r.shards {
		r.shards[i].mutex.Unlock()
	}
}

func (r *Registry) collectLocked() []Entry {
	entries := make([]Entry, 0, 256)

	for i := range r.shards {
		for _, entry := range r.shards[i].items {
			entries = append(entries, entry)
		}
	}

	sort.Slice(entries, func(a, b int) bool {
		return entries[a].GraphID < entries[b].GraphID
	})

	return entries
}

// rankForEviction orders candidate identities weakest first. The entry
// with the highest fitness is excluded outright. Input must be sorted by
// identity so equal ranks resolve the same way every run.
func rankForEviction(entries []Entry) []string {
	if len(entries) == 0 {
		return nil
	}

	best := 0
	for i := 1; i < len(entries); i++ {
		if entries[i].BestFitness > entries[best].BestFitness {
			best = i
		}
	}

	fitnessRank := rankBy(entries, func(a, b Entry) bool {
		return a.BestFitness < b.BestFitness
	})

	generationRank := rankBy(entries, func(a, b Entry) bool {
		return a.LastGeneration < b.LastGeneration
	})

	order := make([]int, 0, len(entries)-1)
	for i := range entries {
		if i != best {
			order = append(order, i)
		}
	}

	sort.SliceStable(order, func(a, b int) bool {
		combinedA := fitnessRank[order[a]] + generationRank[order[a]]
		combinedB := fitnessRank[order[b]] + generationRank[order[b]]

		if combinedA != combinedB {
			return combinedA < combinedB
		}

		return entries[order[a]].GraphID < entries[order[b]].GraphID
	})

	ids := make([]string, 0, len(order))
	for _, idx := range order {
		ids = append(ids, entries[idx].GraphID)
	}

	return ids
}

func rankBy(entries []Entry, less func(a, b Entry) bool) []int {
	indexes := make([]int, len(entries))
	for i := range indexes {
		indexes[i] = i
	}

	sort.SliceStable(indexes, func(a, b int) bool {
		return less(entries[indexes[a]], entries[indexes[b]])
	})

	ranks := make([]int, len(entries))
	for rank, idx := range indexes {
		ranks[idx] = rank
	}

	return ranks
}
