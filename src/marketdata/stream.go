package marketdata

import (
	"fmt"
	"sync"
	"time"
)

// StreamBuffer accumulates bars arriving from a live append stream. The
// simulation layer never reads the buffer directly: callers materialize an
// immutable snapshot first, so a simulation can never observe a moving series.
type StreamBuffer struct {
	symbol       string
	timeframe    time.Duration
	gapTolerance int
	candles      []Candle
	mutex        sync.Mutex
}

func NewStreamBuffer(symbol string, timeframe time.Duration) *StreamBuffer {
	return &StreamBuffer{
		symbol:       symbol,
		timeframe:    timeframe,
		gapTolerance: DefaultGapTolerance,
	}
}

func (b *StreamBuffer) Symbol() string {
	return b.symbol
}

func (b *StreamBuffer) Len() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return len(b.candles)
}

func (b *StreamBuffer) Append(bars ...Candle) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for i, bar := range bars {
		if err := validateBar(bar); err != nil {
			return fmt.Errorf("%w: bar[%d]: %v", ErrDataIntegrity, i, err)
		}

		if len(b.candles) > 0 && !bar.Timestamp.After(b.candles[len(b.candles)-1].Timestamp) {
			return fmt.Errorf("%w: new bar[%d] is not after the last bar", ErrDataIntegrity, i)
		}

		b.candles = append(b.candles, bar)
	}

	return nil
}

// Snapshot materializes the buffered bars into an immutable series. Later
// appends never affect a snapshot already taken.
func (b *StreamBuffer) Snapshot() (*CandleSeries, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return NewCandleSeriesWithTolerance(b.symbol, b.timeframe, b.candles, b.gapTolerance)
}
