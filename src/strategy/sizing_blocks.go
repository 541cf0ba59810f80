package strategy

import (
	"github.com/montanaflynn/stats"

	"github.com/jiaming2012/strategy-lab/src/marketdata"
)

type fixedFractionBlock struct {
	fraction float64
}

func newFixedFractionBlock(p map[string]float64) SizingBlock {
	return &fixedFractionBlock{fraction: p["fraction"]}
}

func (b *fixedFractionBlock) Evaluate(strength float64, st PositionState, w marketdata.Window) float64 {
	return strength * b.fraction
}

// volTargetBlock scales exposure so the position's per-bar volatility
// approaches target_vol, capped at cap.
type volTargetBlock struct {
	lookback  int
	targetVol float64
	cap       float64
}

func newVolTargetBlock(p map[string]float64) SizingBlock {
	return &volTargetBlock{
		lookback:  int(p["lookback"]),
		targetVol: p["target_vol"],
		cap:       p["cap"],
	}
}

func (b *volTargetBlock) Evaluate(strength float64, st PositionState, w marketdata.Window) float64 {
	returns := make([]float64, 0, b.lookback)
	base := w.Len() - 1 - b.lookback

	for i := base + 1; i < w.Len(); i++ {
		prev := w.Close(i - 1)
		if prev == 0 {
			return 0
		}

		returns = append(returns, w.Close(i)/prev-1)
	}

	vol, err := stats.StandardDeviation(returns)
	if err != nil {
		return 0
	}

	leverage := b.cap
	if vol > 1e-12 {
		leverage = b.targetVol / vol
		if leverage > b.cap {
			leverage = b.cap
		}
	}

	return strength * leverage
}
