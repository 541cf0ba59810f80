package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jiaming2012/strategy-lab/src/marketdata"
)

func flatCandles(closes ...float64) []marketdata.Candle {
	candles := make([]marketdata.Candle, 0, len(closes))
	for _, c := range closes {
		candles = append(candles, marketdata.Candle{High: c, Low: c, Close: c})
	}

	return candles
}

func TestBollingerBands(t *testing.T) {
	candles := flatCandles(
		90.70, 92.90, 92.98, 91.80, 92.66, 92.68, 92.30, 92.77, 92.54, 92.95,
		93.20, 91.07, 89.83, 89.74, 90.40, 90.74, 88.02, 88.09, 88.84, 90.78,
		90.54, 91.39, 90.65,
	)

	t.Run("calculate bands", func(t *testing.T) {
		var bandsStats BollingerBandsStats
		bollinger := NewBollingerBands(20, 2.0)
		for _, c := range candles {
			_, _stats, err := bollinger.Update(c)
			assert.NoError(t, err)
			bandsStats = _stats
		}

		assert.Equal(t, 91.0, math.Floor(bandsStats.MovingAverage*10)/10)
		assert.Equal(t, 94.1, math.Floor(bandsStats.Upper*10)/10)
		assert.Equal(t, 87.9, math.Floor(bandsStats.Lower*10)/10)
	})

	t.Run("not ready while warming up", func(t *testing.T) {
		bollinger := NewBollingerBands(20, 2.0)
		for _, c := range candles[:19] {
			ready, _, err := bollinger.Update(c)
			assert.NoError(t, err)
			assert.False(t, ready)
		}
	})
}
