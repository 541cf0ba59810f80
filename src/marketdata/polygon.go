package marketdata

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	log "github.com/sirupsen/logrus"
)

// PolygonFeed fetches historical aggregate bars from the polygon.io REST api.
type PolygonFeed struct {
	Client *polygon.Client
}

func NewPolygonFeed(apiKey string) *PolygonFeed {
	return &PolygonFeed{
		Client: polygon.New(apiKey),
	}
}

func polygonTimespan(timeframe time.Duration) (int, models.Timespan, error) {
	day := 24 * time.Hour

	switch {
	case timeframe >= day && timeframe%day == 0:
		return int(timeframe / day), models.Day, nil
	case timeframe >= time.Hour && timeframe%time.Hour == 0:
		return int(timeframe / time.Hour), models.Hour, nil
	case timeframe >= time.Minute && timeframe%time.Minute == 0:
		return int(timeframe / time.Minute), models.Minute, nil
	default:
		return 0, "", fmt.Errorf("unsupported polygon timespan conversion: %v", timeframe)
	}
}

func (f *PolygonFeed) Fetch(ctx context.Context, symbol string, timeframe time.Duration, from, to time.Time) ([]Candle, error) {
	multiplier, timespan, err := polygonTimespan(timeframe)
	if err != nil {
		return nil, err
	}

	log.Debugf("fetching polygon aggregate bars for symbol %s", symbol)

	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(from),
		To:         models.Millis(to),
	}.WithOrder(models.Asc).WithAdjusted(true)

	iter := f.Client.ListAggs(ctx, params)

	var candles []Candle
	for iter.Next() {
		item := iter.Item()

		candles = append(candles, Candle{
			Timestamp: time.Time(item.Timestamp).UTC(),
			Open:      item.Open,
			High:      item.High,
			Low:       item.Low,
			Close:     item.Close,
			Volume:    item.Volume,
		})
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to fetch polygon aggregates for %s: %w", symbol, err)
	}

	return candles, nil
}
