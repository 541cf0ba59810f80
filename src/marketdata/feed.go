package marketdata

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/strategy-lab/src/utils"
)

// Feed supplies raw bars for a (symbol, timeframe) pair. Implementations
// return bars inside [from, to), oldest first; series construction performs
// all integrity checks.
type Feed interface {
	Fetch(ctx context.Context, symbol string, timeframe time.Duration, from, to time.Time) ([]Candle, error)
}

// FetchSeries pulls bars from a feed and materializes the immutable series
// the simulation layer consumes.
func FetchSeries(ctx context.Context, feed Feed, symbol string, timeframe time.Duration, from, to time.Time) (*CandleSeries, error) {
	candles, err := feed.Fetch(ctx, symbol, timeframe, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candles for %s: %w", symbol, err)
	}

	series, err := NewCandleSeries(symbol, timeframe, candles)
	if err != nil {
		return nil, fmt.Errorf("failed to build series for %s: %w", symbol, err)
	}

	return series, nil
}

// CSVFeed serves bars from csv files laid out as <dir>/<SYMBOL>_<timeframe>.csv,
// e.g. data/AAPL_15m.csv.
type CSVFeed struct {
	dir string
}

func NewCSVFeed(dir string) *CSVFeed {
	return &CSVFeed{dir: dir}
}

func (f *CSVFeed) FilePath(symbol string, timeframe time.Duration) string {
	return filepath.Join(f.dir, fmt.Sprintf("%s_%s.csv", symbol, utils.FormatTimeframe(timeframe)))
}

func (f *CSVFeed) Fetch(ctx context.Context, symbol string, timeframe time.Duration, from, to time.Time) ([]Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inFile := f.FilePath(symbol, timeframe)

	candles, err := LoadCandlesCSV(inFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load candles from %s: %v", inFile, err)
	}

	var filtered []Candle
	for _, c := range candles {
		if !from.IsZero() && c.Timestamp.Before(from) {
			continue
		}

		if !to.IsZero() && !c.Timestamp.Before(to) {
			continue
		}

		filtered = append(filtered, c)
	}

	if len(filtered) == 0 {
		log.Warnf("no candles found for %s between %s and %s in %s", symbol, from, to, inFile)
	}

	return filtered, nil
}
