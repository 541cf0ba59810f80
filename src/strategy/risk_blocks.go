package strategy

import (
	"github.com/jiaming2012/strategy-lab/src/indicators"
	"github.com/jiaming2012/strategy-lab/src/marketdata"
)

type exposureCapBlock struct {
	cap float64
}

func newExposureCapBlock(p map[string]float64) RiskBlock {
	return &exposureCapBlock{cap: p["cap"]}
}

func (b *exposureCapBlock) Evaluate(target float64, st PositionState, w marketdata.Window) float64 {
	if target > b.cap {
		return b.cap
	}

	if target < -b.cap {
		return -b.cap
	}

	return target
}

// stopLossBlock forces a flat target once the open position's loss from its
// entry price exceeds stop_pct.
type stopLossBlock struct {
	stopPct float64
}

func newStopLossBlock(p map[string]float64) RiskBlock {
	return &stopLossBlock{stopPct: p["stop_pct"]}
}

func (b *stopLossBlock) Evaluate(target float64, st PositionState, w marketdata.Window) float64 {
	if st.Units == 0 || st.EntryPrice == 0 {
		return target
	}

	move := (st.LastPrice - st.EntryPrice) / st.EntryPrice
	if st.Units < 0 {
		move = -move
	}

	if move < -b.stopPct {
		return 0
	}

	return target
}

// atrStopBlock forces a flat target once the open position has moved against
// its entry by more than mult average true ranges.
type atrStopBlock struct {
	feeder
	mult float64
	atr  *indicators.Atr
}

func newAtrStopBlock(p map[string]float64) RiskBlock {
	return &atrStopBlock{mult: p["mult"], atr: indicators.NewAtr(int(p["lookback"]))}
}

func (b *atrStopBlock) Evaluate(target float64, st PositionState, w marketdata.Window) float64 {
	var atrVal float64
	var ok bool
	b.each(w, func(c marketdata.Candle) {
		atrVal, ok = b.atr.Update(c)
	})

	if !ok || st.Units == 0 || st.EntryPrice == 0 {
		return target
	}

	move := st.LastPrice - st.EntryPrice
	if st.Units < 0 {
		move = -move
	}

	if move < -b.mult*atrVal {
		return 0
	}

	return target
}

// drawdownGuardBlock flattens the book while equity sits more than max_dd
// below its running peak.
type drawdownGuardBlock struct {
	maxDD float64
}

func newDrawdownGuardBlock(p map[string]float64) RiskBlock {
	return &drawdownGuardBlock{maxDD: p["max_dd"]}
}

func (b *drawdownGuardBlock) Evaluate(target float64, st PositionState, w marketdata.Window) float64 {
	if st.PeakEquity <= 0 {
		return target
	}

	if st.Equity() < st.PeakEquity*(1-b.maxDD) {
		return 0
	}

	return target
}
