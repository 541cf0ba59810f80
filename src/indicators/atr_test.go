package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jiaming2012/strategy-lab/src/marketdata"
)

func TestAtr(t *testing.T) {
	t.Run("first value averages true ranges", func(t *testing.T) {
		atr := NewAtr(3)

		_, ready := atr.Update(marketdata.Candle{High: 12, Low: 10, Close: 11})
		assert.False(t, ready)

		// gap up: true range extends to the previous close
		_, ready = atr.Update(marketdata.Candle{High: 15, Low: 13, Close: 14})
		assert.False(t, ready)

		val, ready := atr.Update(marketdata.Candle{High: 14, Low: 12, Close: 13})
		assert.True(t, ready)

		// ranges: 2, max(2, |15-11|, |13-11|)=4, max(2, |14-14|, |12-14|)=2
		assert.InDelta(t, 8.0/3.0, val, 1e-9)
	})

	t.Run("wilder smoothing after priming", func(t *testing.T) {
		atr := NewAtr(2)
		atr.Update(marketdata.Candle{High: 11, Low: 9, Close: 10})
		prev, ready := atr.Update(marketdata.Candle{High: 11, Low: 9, Close: 10})
		assert.True(t, ready)
		assert.Equal(t, 2.0, prev)

		// tr = 4, atr = (2*1 + 4) / 2 = 3
		val, ready := atr.Update(marketdata.Candle{High: 12, Low: 8, Close: 10})
		assert.True(t, ready)
		assert.Equal(t, 3.0, val)
	})
}
