package registry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
)

// FileStore journals entries to a JSON-lines file: every Put appends one
// line, and reopening replays the journal with the last line per identity
// winning. Malformed lines are skipped rather than failing the load, so a
// torn final write does not lose the run's history.
type FileStore struct {
	path    string
	file    *os.File
	mutex   sync.Mutex
	entries map[string]Entry
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create registry store directory: %w", err)
	}

	entries := replayJournal(path)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry journal: %w", err)
	}

	log.Debugf("registry journal ready: %s (%d entries)", path, len(entries))

	return &FileStore{
		path:    path,
		file:    file,
		entries: entries,
	}, nil
}

func replayJournal(path string) map[string]Entry {
	entries := make(map[string]Entry)

	file, err := os.Open(path)
	if err != nil {
		return entries
	}

	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			log.Warnf("skipping malformed registry journal line: %v", err)
			continue
		}

		entries[entry.GraphID] = entry
	}

	return entries
}

func (s *FileStore) Get(id string) (Entry, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, found := s.entries[id]
	return entry, found, nil
}

func (s *FileStore) Put(entry Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal registry entry: %w", err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, err := s.file.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("failed to append registry journal: %w", err)
	}

	s.entries[entry.GraphID] = entry
	return nil
}

func (s *FileStore) List() ([]Entry, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entries := make([]Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(a, b int) bool {
		return entries[a].GraphID < entries[b].GraphID
	})

	return entries, nil
}

func (s *FileStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.file.Close()
}
