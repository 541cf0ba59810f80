package marketdata

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"time"
)

// DefaultGapTolerance is the number of missing intervals permitted between
// two consecutive bars before construction fails.
const DefaultGapTolerance = 3

// CandleSeries is an immutable, time-ordered set of OHLCV bars for one
// (symbol, timeframe) pair. All integrity checks happen at construction;
// readers never re-validate.
type CandleSeries struct {
	symbol    string
	timeframe time.Duration
	candles   []Candle
	identity  string
}

func NewCandleSeries(symbol string, timeframe time.Duration, candles []Candle) (*CandleSeries, error) {
	return NewCandleSeriesWithTolerance(symbol, timeframe, candles, DefaultGapTolerance)
}

func NewCandleSeriesWithTolerance(symbol string, timeframe time.Duration, candles []Candle, gapTolerance int) (*CandleSeries, error) {
	if timeframe <= 0 {
		return nil, fmt.Errorf("%w: timeframe must be positive, got %s", ErrDataIntegrity, timeframe)
	}

	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: empty series for %s", ErrDataIntegrity, symbol)
	}

	if gapTolerance < 0 {
		gapTolerance = DefaultGapTolerance
	}

	maxDelta := timeframe * time.Duration(gapTolerance+1)

	for i, c := range candles {
		if err := validateBar(c); err != nil {
			return nil, fmt.Errorf("%w: bar[%d]: %v", ErrDataIntegrity, i, err)
		}

		if i == 0 {
			continue
		}

		prev := candles[i-1].Timestamp
		if !candles[i].Timestamp.After(prev) {
			return nil, fmt.Errorf("%w: bar[%d] is not after the previous bar (%s -> %s)", ErrDataIntegrity, i, prev, candles[i].Timestamp)
		}

		if delta := candles[i].Timestamp.Sub(prev); delta > maxDelta {
			return nil, fmt.Errorf("%w: bar[%d] gap of %s exceeds tolerance of %s", ErrDataIntegrity, i, delta, maxDelta)
		}
	}

	// copy so the caller's slice can never mutate the series
	owned := make([]Candle, len(candles))
	copy(owned, candles)

	return &CandleSeries{
		symbol:    symbol,
		timeframe: timeframe,
		candles:   owned,
		identity:  computeSeriesIdentity(symbol, timeframe, owned),
	}, nil
}

func validateBar(c Candle) error {
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite value")
		}
	}

	if c.High < c.Low {
		return fmt.Errorf("high %.6f below low %.6f", c.High, c.Low)
	}

	if c.Timestamp.IsZero() {
		return fmt.Errorf("zero timestamp")
	}

	return nil
}

func computeSeriesIdentity(symbol string, timeframe time.Duration, candles []Candle) string {
	h := sha256.New()

	fmt.Fprintf(h, "%s|%d|%d\n", symbol, timeframe, len(candles))

	buf := make([]byte, 0, 128)
	for _, c := range candles {
		buf = buf[:0]
		buf = strconv.AppendInt(buf, c.Timestamp.UnixMilli(), 10)
		for _, v := range []float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
			buf = append(buf, '|')
			buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
		}
		buf = append(buf, '\n')
		h.Write(buf)
	}

	return hex.EncodeToString(h.Sum(nil))
}

func (s *CandleSeries) Symbol() string {
	return s.symbol
}

func (s *CandleSeries) Timeframe() time.Duration {
	return s.timeframe
}

func (s *CandleSeries) Len() int {
	return len(s.candles)
}

func (s *CandleSeries) At(i int) Candle {
	return s.candles[i]
}

func (s *CandleSeries) Timestamp(i int) time.Time {
	return s.candles[i].Timestamp
}

func (s *CandleSeries) Open(i int) float64 {
	return s.candles[i].Open
}

func (s *CandleSeries) High(i int) float64 {
	return s.candles[i].High
}

func (s *CandleSeries) Low(i int) float64 {
	return s.candles[i].Low
}

func (s *CandleSeries) Close(i int) float64 {
	return s.candles[i].Close
}

func (s *CandleSeries) Volume(i int) float64 {
	return s.candles[i].Volume
}

func (s *CandleSeries) First() Candle {
	return s.candles[0]
}

func (s *CandleSeries) Last() Candle {
	return s.candles[len(s.candles)-1]
}

// Identity is a stable content hash over symbol, timeframe and every bar.
// Two series built independently from the same bars share an identity.
func (s *CandleSeries) Identity() string {
	return s.identity
}

// HasWindow reports whether length bars ending at index end (inclusive) are
// available. Insufficient history is an ordinary state, not an error: every
// series starts with indices that cannot cover a full lookback.
func (s *CandleSeries) HasWindow(end, length int) bool {
	if length < 1 || end < 0 || end >= len(s.candles) {
		return false
	}

	return end-length+1 >= 0
}

func (s *CandleSeries) WindowAt(end, length int) (Window, bool) {
	if !s.HasWindow(end, length) {
		return Window{}, false
	}

	return Window{series: s, end: end, length: length}, true
}

// Slice returns a new immutable series over [from, to). The backing bars are
// shared; a sub-series of a valid series needs no re-validation.
func (s *CandleSeries) Slice(from, to int) (*CandleSeries, error) {
	if from < 0 || to > len(s.candles) || from >= to {
		return nil, fmt.Errorf("invalid slice bounds [%d, %d) for series of %d bars", from, to, len(s.candles))
	}

	sub := s.candles[from:to:to]

	return &CandleSeries{
		symbol:    s.symbol,
		timeframe: s.timeframe,
		candles:   sub,
		identity:  computeSeriesIdentity(s.symbol, s.timeframe, sub),
	}, nil
}

// Window is a read-only view of length bars ending at a fixed index. Index 0
// within the window is the oldest bar, Len()-1 the most recent.
type Window struct {
	series *CandleSeries
	end    int
	length int
}

func (w Window) Len() int {
	return w.length
}

func (w Window) At(i int) Candle {
	return w.series.candles[w.end-w.length+1+i]
}

func (w Window) Last() Candle {
	return w.series.candles[w.end]
}

func (w Window) Close(i int) float64 {
	return w.At(i).Close
}

func (w Window) Open(i int) float64 {
	return w.At(i).Open
}

func (w Window) High(i int) float64 {
	return w.At(i).High
}

func (w Window) Low(i int) float64 {
	return w.At(i).Low
}

// Closes copies the window's close prices, oldest first.
func (w Window) Closes() []float64 {
	out := make([]float64, w.length)
	for i := 0; i < w.length; i++ {
		out[i] = w.At(i).Close
	}

	return out
}
