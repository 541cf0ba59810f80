package backtest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/strategy-lab/src/marketdata"
	"github.com/jiaming2012/strategy-lab/src/strategy"
)

func mustSpec(t *testing.T, kind strategy.Kind, blockType string, params map[string]float64) strategy.BlockSpec {
	t.Helper()

	spec, err := strategy.NewBlockSpec(kind, blockType, params)
	require.NoError(t, err)

	return spec
}

func constGraph(t *testing.T, level float64) *strategy.Graph {
	t.Helper()

	graph, err := strategy.Compose(
		[]strategy.BlockSpec{mustSpec(t, strategy.KindSignal, "const", map[string]float64{"level": level})},
		mustSpec(t, strategy.KindSizing, "fixed_fraction", map[string]float64{"fraction": 1}),
		mustSpec(t, strategy.KindRisk, "exposure_cap", map[string]float64{"cap": 1}),
		"",
	)
	require.NoError(t, err)

	return graph
}

func driftSeries(t *testing.T, cfg marketdata.SyntheticConfig) *marketdata.CandleSeries {
	t.Helper()

	candles := marketdata.GenerateDrift(cfg)

	series, err := marketdata.NewCandleSeries("SYN", time.Hour, candles)
	require.NoError(t, err)

	return series
}

func frictionless(t *testing.T, maxLeverage float64) *ExecutionModel {
	t.Helper()

	model, err := NewExecutionModel(ExecutionConfig{MaxLeverage: maxLeverage})
	require.NoError(t, err)

	return model
}

func TestRunValidation(t *testing.T) {
	series := driftSeries(t, marketdata.SyntheticConfig{Bars: 100, InitialPrice: 100, DriftPerBar: 0.1})

	t.Run("rejects non positive capital", func(t *testing.T) {
		_, err := Run(series, constGraph(t, 1), frictionless(t, 1), 0)
		require.Error(t, err)
	})

	t.Run("returns ErrInsufficientData before simulating", func(t *testing.T) {
		graph, err := strategy.Compose(
			[]strategy.BlockSpec{mustSpec(t, strategy.KindSignal, "sma_cross", map[string]float64{"fast": 10, "slow": 50})},
			mustSpec(t, strategy.KindSizing, "fixed_fraction", map[string]float64{"fraction": 1}),
			mustSpec(t, strategy.KindRisk, "exposure_cap", map[string]float64{"cap": 1}),
			"",
		)
		require.NoError(t, err)

		short := driftSeries(t, marketdata.SyntheticConfig{Bars: 30, InitialPrice: 100, DriftPerBar: 0.1})

		result, runErr := Run(short, graph, frictionless(t, 1), 10000)
		require.Error(t, runErr)
		require.True(t, errors.Is(runErr, ErrInsufficientData))
		require.Nil(t, result)
	})
}

func TestRunFlatWhenSignalIsZero(t *testing.T) {
	series := driftSeries(t, marketdata.SyntheticConfig{Bars: 120, InitialPrice: 100, DriftPerBar: 0.5})

	result, err := Run(series, constGraph(t, 0), frictionless(t, 1), 10000)
	require.NoError(t, err)

	require.Len(t, result.EquityCurve, series.Len())
	for _, point := range result.EquityCurve {
		require.Equal(t, 10000.0, point.Equity)
	}

	require.Empty(t, result.Ledger)
	require.Equal(t, 0, result.Diagnostics.Trades)
	require.Equal(t, 0.0, result.Diagnostics.MaxDrawdown)
	require.Equal(t, 0.0, result.Diagnostics.TotalReturn)
	require.Equal(t, 0.0, result.Diagnostics.Turnover)
}

func TestRunCapturesDrift(t *testing.T) {
	series := driftSeries(t, marketdata.SyntheticConfig{Bars: 1000, InitialPrice: 100, DriftPerBar: 0.1})

	capital := 10000.0

	result, err := Run(series, constGraph(t, 1), frictionless(t, 1), capital)
	require.NoError(t, err)

	// fully invested from the second bar on, so the account tracks the
	// close-to-close drift of the series
	expected := capital * series.Close(series.Len()-1) / series.Close(0)
	final := result.EquityCurve[len(result.EquityCurve)-1].Equity

	require.InDelta(t, expected, final, 1e-6)
	require.Equal(t, final, result.Diagnostics.FinalEquity)
	require.InDelta(t, expected/capital-1, result.Diagnostics.TotalReturn, 1e-9)
	require.GreaterOrEqual(t, result.Diagnostics.Trades, 1)
}

func TestRunDrawdownDiagnostics(t *testing.T) {
	series := driftSeries(t, marketdata.SyntheticConfig{Bars: 50, InitialPrice: 200, DriftPerBar: -1})

	result, err := Run(series, constGraph(t, 1), frictionless(t, 1), 10000)
	require.NoError(t, err)

	final := result.Diagnostics.FinalEquity
	require.Less(t, final, 10000.0)
	require.Less(t, result.Diagnostics.TotalReturn, 0.0)
	require.InDelta(t, 1-final/10000, result.Diagnostics.MaxDrawdown, 1e-12)
}

func TestRunRecordsClipping(t *testing.T) {
	series := driftSeries(t, marketdata.SyntheticConfig{Bars: 60, InitialPrice: 100})

	graph, err := strategy.Compose(
		[]strategy.BlockSpec{mustSpec(t, strategy.KindSignal, "const", map[string]float64{"level": 1})},
		mustSpec(t, strategy.KindSizing, "vol_target", map[string]float64{"lookback": 5, "target_vol": 0.01, "cap": 3}),
		mustSpec(t, strategy.KindRisk, "exposure_cap", map[string]float64{"cap": 3}),
		"",
	)
	require.NoError(t, err)

	result, runErr := Run(series, graph, frictionless(t, 1), 10000)
	require.NoError(t, runErr)

	// a quiet series drives vol targeting to its cap, which the account
	// cannot hold at the configured leverage limit
	require.GreaterOrEqual(t, result.Diagnostics.ClippedBars, 1)
	require.Equal(t, 1, result.Diagnostics.Trades)

	first := result.Ledger[0]
	require.True(t, first.Clipped)
	require.Equal(t, 3.0, first.TargetLeverage)
	require.InDelta(t, 100.0, first.Units, 1e-9)
}

func TestRunDeterminism(t *testing.T) {
	series := driftSeries(t, marketdata.SyntheticConfig{
		Bars:         400,
		InitialPrice: 100,
		DriftPerBar:  0.05,
		Noise:        0.8,
		Seed:         42,
	})

	graph, err := strategy.Compose(
		[]strategy.BlockSpec{
			mustSpec(t, strategy.KindSignal, "sma_cross", map[string]float64{"fast": 5, "slow": 20}),
			mustSpec(t, strategy.KindSignal, "momentum", map[string]float64{"lookback": 20, "scale": 10}),
		},
		mustSpec(t, strategy.KindSizing, "vol_target", map[string]float64{"lookback": 10, "target_vol": 0.01, "cap": 2}),
		mustSpec(t, strategy.KindRisk, "drawdown_guard", map[string]float64{"max_dd": 0.3}),
		"mean",
	)
	require.NoError(t, err)

	model, err := NewExecutionModel(ExecutionConfig{CommissionBps: 10, SlippageBps: 5, MaxLeverage: 2})
	require.NoError(t, err)

	first, err := Run(series, graph, model, 25000)
	require.NoError(t, err)

	second, err := Run(series, graph, model, 25000)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestRunIdentities(t *testing.T) {
	series := driftSeries(t, marketdata.SyntheticConfig{Bars: 100, InitialPrice: 100, DriftPerBar: 0.1})
	graph := constGraph(t, 1)

	result, err := Run(series, graph, frictionless(t, 1), 10000)
	require.NoError(t, err)

	require.Equal(t, graph.Identity(), result.GraphID)
	require.Equal(t, series.Identity(), result.SeriesID)
	require.Equal(t, series.Len(), result.Diagnostics.Bars)

	for i, point := range result.EquityCurve {
		require.Equal(t, series.Timestamp(i), point.Timestamp)
	}
}
