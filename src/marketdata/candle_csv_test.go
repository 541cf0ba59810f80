package marketdata

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCandleCSV(t *testing.T) {
	start := time.Date(2021, 1, 4, 9, 30, 0, 0, time.UTC)

	t.Run("round trips bars through a file", func(t *testing.T) {
		outFile := filepath.Join(t.TempDir(), "AAPL_1m.csv")
		candles := makeCandles(start, time.Minute, 100, 101.5, 102.25)

		require.NoError(t, SaveCandlesCSV(outFile, candles))

		loaded, err := LoadCandlesCSV(outFile)
		require.NoError(t, err)
		require.Equal(t, candles, loaded)
	})

	t.Run("fails on a missing file", func(t *testing.T) {
		_, err := LoadCandlesCSV(filepath.Join(t.TempDir(), "missing.csv"))
		require.Error(t, err)
	})

	t.Run("parses date only timestamps", func(t *testing.T) {
		dto := &CandleDTO{Timestamp: "2021-01-04", Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100}

		c, err := dto.ToModel()
		require.NoError(t, err)
		require.Equal(t, time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC), c.Timestamp)
	})

	t.Run("rejects malformed timestamps", func(t *testing.T) {
		dto := &CandleDTO{Timestamp: "Jan 4th"}

		_, err := dto.ToModel()
		require.Error(t, err)
	})
}

func TestCSVFeed(t *testing.T) {
	start := time.Date(2021, 1, 4, 9, 30, 0, 0, time.UTC)

	dir := t.TempDir()
	candles := makeCandles(start, time.Minute, 100, 101, 102, 103)
	require.NoError(t, SaveCandlesCSV(filepath.Join(dir, "AAPL_1m.csv"), candles))

	feed := NewCSVFeed(dir)

	t.Run("fetches all bars with open range", func(t *testing.T) {
		got, err := feed.Fetch(context.Background(), "AAPL", time.Minute, time.Time{}, time.Time{})
		require.NoError(t, err)
		require.Len(t, got, 4)
	})

	t.Run("filters to the requested range", func(t *testing.T) {
		got, err := feed.Fetch(context.Background(), "AAPL", time.Minute, start.Add(time.Minute), start.Add(3*time.Minute))
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.Equal(t, 101.0, got[0].Close)
		require.Equal(t, 102.0, got[1].Close)
	})

	t.Run("fails for an unknown symbol", func(t *testing.T) {
		_, err := feed.Fetch(context.Background(), "MSFT", time.Minute, time.Time{}, time.Time{})
		require.Error(t, err)
	})
}
