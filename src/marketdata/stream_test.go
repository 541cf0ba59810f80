package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStreamBuffer(t *testing.T) {
	start := time.Date(2021, 1, 4, 9, 30, 0, 0, time.UTC)

	t.Run("appends ordered bars", func(t *testing.T) {
		buffer := NewStreamBuffer("AAPL", time.Minute)

		require.NoError(t, buffer.Append(makeCandles(start, time.Minute, 100, 101)...))
		require.Equal(t, 2, buffer.Len())

		require.NoError(t, buffer.Append(Candle{
			Timestamp: start.Add(2 * time.Minute),
			Open:      101,
			High:      102,
			Low:       101,
			Close:     102,
			Volume:    500,
		}))
		require.Equal(t, 3, buffer.Len())
	})

	t.Run("rejects bars not after the last bar", func(t *testing.T) {
		buffer := NewStreamBuffer("AAPL", time.Minute)

		require.NoError(t, buffer.Append(makeCandles(start, time.Minute, 100, 101)...))

		err := buffer.Append(Candle{Timestamp: start, Open: 100, High: 100, Low: 100, Close: 100})
		require.ErrorIs(t, err, ErrDataIntegrity)
		require.Equal(t, 2, buffer.Len())
	})

	t.Run("snapshot is isolated from later appends", func(t *testing.T) {
		buffer := NewStreamBuffer("AAPL", time.Minute)
		require.NoError(t, buffer.Append(makeCandles(start, time.Minute, 100, 101, 102)...))

		snapshot, err := buffer.Snapshot()
		require.NoError(t, err)
		require.Equal(t, 3, snapshot.Len())

		require.NoError(t, buffer.Append(Candle{
			Timestamp: start.Add(3 * time.Minute),
			Open:      102,
			High:      103,
			Low:       102,
			Close:     103,
		}))

		require.Equal(t, 3, snapshot.Len())
		require.Equal(t, 4, buffer.Len())
	})

	t.Run("snapshot of empty buffer fails", func(t *testing.T) {
		buffer := NewStreamBuffer("AAPL", time.Minute)

		_, err := buffer.Snapshot()
		require.ErrorIs(t, err, ErrDataIntegrity)
	})
}
