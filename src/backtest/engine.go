package backtest

import (
	"fmt"

	"github.com/jiaming2012/strategy-lab/src/marketdata"
	"github.com/jiaming2012/strategy-lab/src/strategy"
)

// Run replays a series through a graph and an execution model in a single
// observably-sequential pass. A target computed from the window ending at
// bar t is executed at bar t+1's open; equity is marked at every close.
//
// The pass is deterministic by construction: fixed iteration order,
// sequential float64 accumulation and no map iteration anywhere in the
// numeric path, so identical inputs reproduce the result bit for bit.
func Run(series *marketdata.CandleSeries, graph *strategy.Graph, exec *ExecutionModel, initialCapital float64) (*SimulationResult, error) {
	if initialCapital <= 0 {
		return nil, fmt.Errorf("initial capital must be positive, got %v", initialCapital)
	}

	minBars := graph.MinBars()
	if series.Len() < minBars+1 {
		return nil, fmt.Errorf("%w: series has %d bars, graph needs %d", ErrInsufficientData, series.Len(), minBars+1)
	}

	run := graph.NewRun()

	st := strategy.PositionState{
		Cash:       initialCapital,
		PeakEquity: initialCapital,
	}

	result := &SimulationResult{
		GraphID:        graph.Identity(),
		SeriesID:       series.Identity(),
		InitialCapital: initialCapital,
		EquityCurve:    make([]EquityPoint, 0, series.Len()),
	}

	var pendingTarget float64
	havePending := false

	peak := initialCapital
	maxDrawdown := 0.0
	turnoverNotional := 0.0
	clippedBars := 0

	for t := 0; t < series.Len(); t++ {
		bar := series.At(t)

		// execute the target decided on the previous bar
		if havePending {
			fill, next := exec.Apply(pendingTarget, st, t, bar)
			st = next
			havePending = false

			if fill.Clipped {
				clippedBars++
			}

			if fill.Units != 0 {
				result.Ledger = append(result.Ledger, fill)
				turnoverNotional += fill.Notional
			}
		}

		// mark to market at the close
		st.LastPrice = bar.Close
		equity := st.Equity()

		if equity > peak {
			peak = equity
		}
		st.PeakEquity = peak

		if peak > 0 {
			if dd := (peak - equity) / peak; dd > maxDrawdown {
				maxDrawdown = dd
			}
		}

		result.EquityCurve = append(result.EquityCurve, EquityPoint{
			Timestamp: bar.Timestamp,
			Equity:    equity,
		})

		// decide the next bar's target once enough history exists
		if t < series.Len()-1 {
			if w, ok := series.WindowAt(t, minBars); ok {
				pendingTarget = run.Step(w, st)
				havePending = true
			}
		}
	}

	finalEquity := result.EquityCurve[len(result.EquityCurve)-1].Equity

	result.Diagnostics = Diagnostics{
		Bars:        series.Len(),
		Trades:      len(result.Ledger),
		ClippedBars: clippedBars,
		MaxDrawdown: maxDrawdown,
		Turnover:    turnoverNotional / initialCapital,
		TotalReturn: finalEquity/initialCapital - 1,
		FinalEquity: finalEquity,
	}

	return result, nil
}
