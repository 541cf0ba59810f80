package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateDrift(t *testing.T) {
	t.Run("same seed produces identical bars", func(t *testing.T) {
		cfg := SyntheticConfig{Bars: 200, DriftPerBar: 0.5, Noise: 2.0, Seed: 42}

		a := GenerateDrift(cfg)
		b := GenerateDrift(cfg)
		require.Equal(t, a, b)
	})

	t.Run("different seeds differ", func(t *testing.T) {
		a := GenerateDrift(SyntheticConfig{Bars: 200, DriftPerBar: 0.5, Noise: 2.0, Seed: 1})
		b := GenerateDrift(SyntheticConfig{Bars: 200, DriftPerBar: 0.5, Noise: 2.0, Seed: 2})
		require.NotEqual(t, a, b)
	})

	t.Run("zero noise yields an exact drift", func(t *testing.T) {
		candles := GenerateDrift(SyntheticConfig{Bars: 10, InitialPrice: 100, DriftPerBar: 1})

		require.Len(t, candles, 10)
		require.Equal(t, 101.0, candles[0].Close)
		require.Equal(t, 110.0, candles[9].Close)
	})

	t.Run("bars form a valid series", func(t *testing.T) {
		candles := GenerateDrift(SyntheticConfig{Bars: 500, DriftPerBar: 0.25, Noise: 1.5, Seed: 7})

		series, err := NewCandleSeries("SYN", time.Hour, candles)
		require.NoError(t, err)
		require.Equal(t, 500, series.Len())
	})
}

func TestGenerateRangeJump(t *testing.T) {
	t.Run("same seed produces identical bars", func(t *testing.T) {
		cfg := SyntheticConfig{Bars: 300, Seed: 42}

		a := GenerateRangeJump(cfg)
		b := GenerateRangeJump(cfg)
		require.Equal(t, a, b)
	})

	t.Run("bars form a valid series", func(t *testing.T) {
		candles := GenerateRangeJump(SyntheticConfig{Bars: 300, Seed: 42})

		series, err := NewCandleSeries("SYN", time.Hour, candles)
		require.NoError(t, err)
		require.Equal(t, 300, series.Len())
	})
}
