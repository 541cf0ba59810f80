package reward

import (
	"github.com/jiaming2012/strategy-lab/src/backtest"
)

// CalmarEvaluator scores total return per unit of max drawdown. The
// drawdown denominator makes it prefer strategies that earn without deep
// underwater stretches over ones that earn the same while bleeding.
type CalmarEvaluator struct {
	Epsilon  float64
	Sentinel float64
}

func NewCalmarEvaluator() *CalmarEvaluator {
	return &CalmarEvaluator{
		Epsilon:  DefaultEpsilon,
		Sentinel: DefaultSentinel,
	}
}

func (e *CalmarEvaluator) Score(result *backtest.SimulationResult) float64 {
	drawdown := result.Diagnostics.MaxDrawdown
	if drawdown < e.Epsilon {
		return e.Sentinel
	}

	return result.Diagnostics.TotalReturn / drawdown
}
