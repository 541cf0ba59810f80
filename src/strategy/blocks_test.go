package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/strategy-lab/src/marketdata"
)

func windowOf(t *testing.T, closes ...float64) marketdata.Window {
	t.Helper()

	start := time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)
	candles := make([]marketdata.Candle, 0, len(closes))
	prev := closes[0]

	for i, c := range closes {
		hi, lo := prev, c
		if lo > hi {
			hi, lo = lo, hi
		}

		candles = append(candles, marketdata.Candle{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Open:      prev,
			High:      hi,
			Low:       lo,
			Close:     c,
			Volume:    1000,
		})
		prev = c
	}

	series, err := marketdata.NewCandleSeries("TEST", time.Hour, candles)
	require.NoError(t, err)

	w, ok := series.WindowAt(series.Len()-1, series.Len())
	require.True(t, ok)

	return w
}

func TestNewBlockSpec(t *testing.T) {
	t.Run("unknown type", func(t *testing.T) {
		_, err := NewBlockSpec(KindSignal, "astrology", nil)
		require.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("kind mismatch", func(t *testing.T) {
		_, err := NewBlockSpec(KindSizing, "sma_cross", nil)
		require.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("cross parameter constraint", func(t *testing.T) {
		_, err := NewBlockSpec(KindSignal, "sma_cross", map[string]float64{"fast": 50, "slow": 10})
		require.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("canonical spec fills defaults", func(t *testing.T) {
		spec, err := NewBlockSpec(KindSignal, "momentum", nil)
		require.NoError(t, err)
		require.Equal(t, KindSignal, spec.Kind)
		require.Equal(t, 20.0, spec.Params["lookback"])
		require.Equal(t, 20.0, spec.Params["scale"])
	})

	t.Run("catalog lists types per kind", func(t *testing.T) {
		require.Contains(t, BlockTypes(KindSignal), "sma_cross")
		require.Contains(t, BlockTypes(KindSizing), "fixed_fraction")
		require.Contains(t, BlockTypes(KindRisk), "stop_loss")
		require.NotContains(t, BlockTypes(KindRisk), "sma_cross")
	})
}

func TestConstBlock(t *testing.T) {
	block := newConstBlock(map[string]float64{"level": 0.4})

	w := windowOf(t, 100, 101, 102)
	require.Equal(t, 0.4, block.Evaluate(w))
	require.Equal(t, 0.4, block.Evaluate(w))
}

func TestSmaCrossBlock(t *testing.T) {
	t.Run("long when fast above slow", func(t *testing.T) {
		block := newSmaCrossBlock(map[string]float64{"fast": 2, "slow": 4})

		// rising closes: fast average leads
		w := windowOf(t, 100, 101, 102, 103)
		require.Equal(t, 1.0, block.Evaluate(w))
	})

	t.Run("short when fast below slow", func(t *testing.T) {
		block := newSmaCrossBlock(map[string]float64{"fast": 2, "slow": 4})

		w := windowOf(t, 103, 102, 101, 100)
		require.Equal(t, -1.0, block.Evaluate(w))
	})
}

func TestEmaCrossBlock(t *testing.T) {
	t.Run("long when fast above slow", func(t *testing.T) {
		block := newEmaCrossBlock(map[string]float64{"fast": 2, "slow": 4})

		w := windowOf(t, 100, 101, 102, 103)
		require.Equal(t, 1.0, block.Evaluate(w))
	})

	t.Run("short when fast below slow", func(t *testing.T) {
		block := newEmaCrossBlock(map[string]float64{"fast": 2, "slow": 4})

		w := windowOf(t, 103, 102, 101, 100)
		require.Equal(t, -1.0, block.Evaluate(w))
	})

	t.Run("rejects fast at or above slow", func(t *testing.T) {
		_, err := NewBlockSpec(KindSignal, "ema_cross", map[string]float64{"fast": 26, "slow": 12})
		require.ErrorIs(t, err, ErrInvalidParameter)
	})
}

func TestMomentumBlock(t *testing.T) {
	t.Run("positive momentum clamps to one", func(t *testing.T) {
		block := newMomentumBlock(map[string]float64{"lookback": 2, "scale": 20})

		// 10% move over the lookback saturates at scale 20
		w := windowOf(t, 100, 105, 110)
		require.Equal(t, 1.0, block.Evaluate(w))
	})

	t.Run("small move scales linearly", func(t *testing.T) {
		block := newMomentumBlock(map[string]float64{"lookback": 2, "scale": 10})

		w := windowOf(t, 100, 100.5, 101)
		require.InDelta(t, 0.1, block.Evaluate(w), 1e-9)
	})

	t.Run("uses the window tail when the window is longer", func(t *testing.T) {
		block := newMomentumBlock(map[string]float64{"lookback": 2, "scale": 10})

		w := windowOf(t, 50, 60, 100, 100.5, 101)
		require.InDelta(t, 0.1, block.Evaluate(w), 1e-9)
	})
}

func TestRsiReversionBlock(t *testing.T) {
	t.Run("straight gains read overbought and short", func(t *testing.T) {
		block := newRsiReversionBlock(map[string]float64{"lookback": 2})

		w := windowOf(t, 10, 11, 15)
		strength := block.Evaluate(w)
		require.Less(t, strength, 0.0)
	})

	t.Run("straight losses read oversold and long", func(t *testing.T) {
		block := newRsiReversionBlock(map[string]float64{"lookback": 2})

		w := windowOf(t, 15, 11, 10)
		strength := block.Evaluate(w)
		require.Greater(t, strength, 0.0)
	})
}

func TestChannelBreakoutBlock(t *testing.T) {
	t.Run("breakout above the prior channel", func(t *testing.T) {
		block := newChannelBreakoutBlock(map[string]float64{"lookback": 3})

		w := windowOf(t, 100, 101, 100, 108)
		require.Equal(t, 1.0, block.Evaluate(w))
	})

	t.Run("breakdown below the prior channel", func(t *testing.T) {
		block := newChannelBreakoutBlock(map[string]float64{"lookback": 3})

		w := windowOf(t, 100, 101, 100, 92)
		require.Equal(t, -1.0, block.Evaluate(w))
	})

	t.Run("inside the channel is flat", func(t *testing.T) {
		block := newChannelBreakoutBlock(map[string]float64{"lookback": 3})

		w := windowOf(t, 100, 104, 96, 100)
		require.Equal(t, 0.0, block.Evaluate(w))
	})
}

func TestFixedFractionBlock(t *testing.T) {
	block := newFixedFractionBlock(map[string]float64{"fraction": 0.5})

	w := windowOf(t, 100, 101)
	st := PositionState{Cash: 10000, LastPrice: 101}

	require.Equal(t, 0.5, block.Evaluate(1, st, w))
	require.Equal(t, -0.25, block.Evaluate(-0.5, st, w))
	require.Equal(t, 0.0, block.Evaluate(0, st, w))
}

func TestVolTargetBlock(t *testing.T) {
	t.Run("quiet series runs at the cap", func(t *testing.T) {
		block := newVolTargetBlock(map[string]float64{"lookback": 5, "target_vol": 0.05, "cap": 2})

		w := windowOf(t, 100, 100, 100, 100, 100, 100)
		require.Equal(t, 2.0, block.Evaluate(1, PositionState{}, w))
	})

	t.Run("volatile series scales down", func(t *testing.T) {
		block := newVolTargetBlock(map[string]float64{"lookback": 5, "target_vol": 0.001, "cap": 2})

		w := windowOf(t, 100, 110, 95, 112, 90, 115)
		leverage := block.Evaluate(1, PositionState{}, w)
		require.Greater(t, leverage, 0.0)
		require.Less(t, leverage, 0.1)
	})
}

func TestExposureCapBlock(t *testing.T) {
	block := newExposureCapBlock(map[string]float64{"cap": 1.5})

	w := windowOf(t, 100, 101)
	st := PositionState{}

	require.Equal(t, 1.5, block.Evaluate(3, st, w))
	require.Equal(t, -1.5, block.Evaluate(-2, st, w))
	require.Equal(t, 0.75, block.Evaluate(0.75, st, w))
}

func TestStopLossBlock(t *testing.T) {
	block := newStopLossBlock(map[string]float64{"stop_pct": 0.05})
	w := windowOf(t, 100, 101)

	t.Run("flat book passes through", func(t *testing.T) {
		require.Equal(t, 1.0, block.Evaluate(1, PositionState{Cash: 1000}, w))
	})

	t.Run("long inside the stop passes through", func(t *testing.T) {
		st := PositionState{Cash: 0, Units: 10, LastPrice: 98, EntryPrice: 100}
		require.Equal(t, 1.0, block.Evaluate(1, st, w))
	})

	t.Run("long beyond the stop flattens", func(t *testing.T) {
		st := PositionState{Cash: 0, Units: 10, LastPrice: 90, EntryPrice: 100}
		require.Equal(t, 0.0, block.Evaluate(1, st, w))
	})

	t.Run("short beyond the stop flattens", func(t *testing.T) {
		st := PositionState{Cash: 2000, Units: -10, LastPrice: 110, EntryPrice: 100}
		require.Equal(t, 0.0, block.Evaluate(-1, st, w))
	})
}

func TestAtrStopBlock(t *testing.T) {
	// ATR(2) over these closes is 1.5, so mult 2 stops 3.0 from entry
	params := map[string]float64{"lookback": 2, "mult": 2}

	t.Run("flat book passes through", func(t *testing.T) {
		block := newAtrStopBlock(params)
		require.Equal(t, 1.0, block.Evaluate(1, PositionState{Cash: 1000}, windowOf(t, 100, 102, 104)))
	})

	t.Run("long inside the stop passes through", func(t *testing.T) {
		block := newAtrStopBlock(params)
		st := PositionState{Units: 10, LastPrice: 103, EntryPrice: 105}
		require.Equal(t, 1.0, block.Evaluate(1, st, windowOf(t, 100, 102, 104)))
	})

	t.Run("long beyond the stop flattens", func(t *testing.T) {
		block := newAtrStopBlock(params)
		st := PositionState{Units: 10, LastPrice: 101, EntryPrice: 105}
		require.Equal(t, 0.0, block.Evaluate(1, st, windowOf(t, 100, 102, 104)))
	})

	t.Run("short beyond the stop flattens", func(t *testing.T) {
		block := newAtrStopBlock(params)
		st := PositionState{Cash: 2000, Units: -10, LastPrice: 104, EntryPrice: 100}
		require.Equal(t, 0.0, block.Evaluate(-1, st, windowOf(t, 100, 102, 104)))
	})

	t.Run("rejects out of range lookback", func(t *testing.T) {
		_, err := NewBlockSpec(KindRisk, "atr_stop", map[string]float64{"lookback": 300, "mult": 3})
		require.ErrorIs(t, err, ErrInvalidParameter)
	})
}

func TestDrawdownGuardBlock(t *testing.T) {
	block := newDrawdownGuardBlock(map[string]float64{"max_dd": 0.2})
	w := windowOf(t, 100, 101)

	t.Run("shallow drawdown passes through", func(t *testing.T) {
		st := PositionState{Cash: 9000, PeakEquity: 10000}
		require.Equal(t, 1.0, block.Evaluate(1, st, w))
	})

	t.Run("deep drawdown flattens", func(t *testing.T) {
		st := PositionState{Cash: 7000, PeakEquity: 10000}
		require.Equal(t, 0.0, block.Evaluate(1, st, w))
	})
}
