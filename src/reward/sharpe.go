package reward

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/jiaming2012/strategy-lab/src/backtest"
)

// SharpeEvaluator scores the annualized mean of per-bar equity returns per
// unit of their volatility.
type SharpeEvaluator struct {
	Epsilon     float64
	Sentinel    float64
	BarsPerYear float64
}

func NewSharpeEvaluator() *SharpeEvaluator {
	return &SharpeEvaluator{
		Epsilon:     DefaultEpsilon,
		Sentinel:    DefaultSentinel,
		BarsPerYear: DefaultBarsPerYear,
	}
}

func (e *SharpeEvaluator) Score(result *backtest.SimulationResult) float64 {
	curve := result.EquityCurve
	if len(curve) < 2 {
		return e.Sentinel
	}

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev <= 0 {
			// the account was ruined; volatility of what follows is meaningless
			return e.Sentinel
		}

		returns = append(returns, curve[i].Equity/prev-1)
	}

	mean, err := stats.Mean(returns)
	if err != nil {
		return e.Sentinel
	}

	stdDev, err := stats.StandardDeviation(returns)
	if err != nil {
		return e.Sentinel
	}

	if stdDev < e.Epsilon {
		return e.Sentinel
	}

	return mean / stdDev * math.Sqrt(e.BarsPerYear)
}
