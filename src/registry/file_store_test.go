package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	t.Run("round trip through the journal", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "registry.jsonl")

		store, err := NewFileStore(path)
		require.NoError(t, err)

		require.NoError(t, store.Put(Entry{GraphID: "g1", BestFitness: 1.5, EvalCount: 1, LastGeneration: 0}))
		require.NoError(t, store.Put(Entry{GraphID: "g2", BestFitness: 0.5, EvalCount: 1, LastGeneration: 0}))
		require.NoError(t, store.Put(Entry{GraphID: "g1", BestFitness: 2.5, EvalCount: 2, LastGeneration: 1}))

		entries, err := store.List()
		require.NoError(t, err)
		require.Len(t, entries, 2)
		require.Equal(t, "g1", entries[0].GraphID)
		require.Equal(t, 2.5, entries[0].BestFitness)

		require.NoError(t, store.Close())

		reopened, err := NewFileStore(path)
		require.NoError(t, err)
		defer reopened.Close()

		entry, found, err := reopened.Get("g1")
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, 2.5, entry.BestFitness)
		require.Equal(t, 2, entry.EvalCount)
	})

	t.Run("malformed lines are skipped on replay", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "registry.jsonl")

		content := `{"graphId":"g1","bestFitness":1,"evalCount":1,"lastGeneration":0}
not json at all
{"graphId":"g2","bestFitness":2,"evalCount":1,"lastGeneration":0}
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		store, err := NewFileStore(path)
		require.NoError(t, err)
		defer store.Close()

		entries, err := store.List()
		require.NoError(t, err)
		require.Len(t, entries, 2)
	})

	t.Run("missing file starts empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fresh", "registry.jsonl")

		store, err := NewFileStore(path)
		require.NoError(t, err)
		defer store.Close()

		entries, err := store.List()
		require.NoError(t, err)
		require.Empty(t, entries)
	})
}
