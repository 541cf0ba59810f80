package registry

import (
	"sort"
	"sync"
)

// MemoryStore keeps entries in a plain map. Useful for tests and for runs
// that do not need persistence but want the write-through path exercised.
type MemoryStore struct {
	mutex   sync.RWMutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]Entry),
	}
}

func (s *MemoryStore) Get(id string) (Entry, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entry, found := s.entries[id]
	return entry, found, nil
}

func (s *MemoryStore) Put(entry Entry) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries[entry.GraphID] = entry
	return nil
}

func (s *MemoryStore) List() ([]Entry, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entries := make([]Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(a, b int) bool {
		return entries[a].GraphID < entries[b].GraphID
	})

	return entries, nil
}
