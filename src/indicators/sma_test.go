package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSma(t *testing.T) {
	t.Run("not ready until period values", func(t *testing.T) {
		sma := NewSma(3)

		_, ready := sma.Update(1)
		assert.False(t, ready)

		_, ready = sma.Update(2)
		assert.False(t, ready)

		val, ready := sma.Update(3)
		assert.True(t, ready)
		assert.Equal(t, 2.0, val)
	})

	t.Run("slides the window", func(t *testing.T) {
		sma := NewSma(3)
		sma.Update(1)
		sma.Update(2)
		sma.Update(3)

		val, ready := sma.Update(4)
		assert.True(t, ready)
		assert.Equal(t, 3.0, val)

		val, ready = sma.Update(10)
		assert.True(t, ready)
		assert.InDelta(t, 17.0/3.0, val, 1e-9)
	})
}

func TestEma(t *testing.T) {
	t.Run("seeds with a simple average", func(t *testing.T) {
		ema := NewEma(3)

		_, ready := ema.Update(2)
		assert.False(t, ready)

		_, ready = ema.Update(4)
		assert.False(t, ready)

		val, ready := ema.Update(6)
		assert.True(t, ready)
		assert.Equal(t, 4.0, val)
	})

	t.Run("applies the smoothing factor", func(t *testing.T) {
		ema := NewEma(3)
		ema.Update(2)
		ema.Update(4)
		ema.Update(6)

		// alpha = 0.5 for period 3
		val, ready := ema.Update(8)
		assert.True(t, ready)
		assert.Equal(t, 6.0, val)

		val, _ = ema.Update(6)
		assert.Equal(t, 6.0, val)
	})
}

func TestRollingExtreme(t *testing.T) {
	t.Run("highest over the window", func(t *testing.T) {
		highest := NewRollingHighest(3)
		highest.Update(5)
		highest.Update(9)

		val, ready := highest.Update(4)
		assert.True(t, ready)
		assert.Equal(t, 9.0, val)

		val, _ = highest.Update(2)
		assert.Equal(t, 9.0, val)

		val, _ = highest.Update(3)
		assert.Equal(t, 4.0, val)
	})

	t.Run("lowest over the window", func(t *testing.T) {
		lowest := NewRollingLowest(2)
		lowest.Update(5)

		val, ready := lowest.Update(7)
		assert.True(t, ready)
		assert.Equal(t, 5.0, val)

		val, _ = lowest.Update(6)
		assert.Equal(t, 6.0, val)
	})

	t.Run("not ready while warming up", func(t *testing.T) {
		highest := NewRollingHighest(4)
		for i := 0; i < 3; i++ {
			_, ready := highest.Update(float64(i))
			assert.False(t, ready)
		}
	})
}

func TestAverage(t *testing.T) {
	t.Run("average of empty slice is zero", func(t *testing.T) {
		assert.Equal(t, 0.0, average(nil))
	})

	t.Run("average", func(t *testing.T) {
		assert.True(t, math.Abs(average([]float64{1, 2, 3})-2.0) < 1e-9)
	})
}
