package reward

import (
	"fmt"

	"github.com/jiaming2012/strategy-lab/src/backtest"
)

const (
	NameCalmar = "calmar"
	NameSharpe = "sharpe"

	// DefaultEpsilon is the floor under the risk term below which a score
	// is undefined and the sentinel is returned instead.
	DefaultEpsilon = 1e-9

	// DefaultSentinel is the score of a curve with no measurable risk,
	// which in practice is a strategy that never traded. Neutral, so a
	// flat book ranks above losers and below any real winner.
	DefaultSentinel = 0.0

	DefaultBarsPerYear = 252.0
)

// Evaluator reduces a simulation result to a scalar fitness. Score is a
// pure function of the result: no external state, no randomness.
type Evaluator interface {
	Score(result *backtest.SimulationResult) float64
}

// ForName builds the evaluator a config names. The empty string selects
// the default calmar evaluator.
func ForName(name string) (Evaluator, error) {
	switch name {
	case "", NameCalmar:
		return NewCalmarEvaluator(), nil
	case NameSharpe:
		return NewSharpeEvaluator(), nil
	default:
		return nil, fmt.Errorf("unknown evaluator %q", name)
	}
}

func Names() []string {
	return []string{NameCalmar, NameSharpe}
}
