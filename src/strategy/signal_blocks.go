package strategy

import (
	"github.com/jiaming2012/strategy-lab/src/indicators"
	"github.com/jiaming2012/strategy-lab/src/marketdata"
)

func clampStrength(v float64) float64 {
	if v > 1 {
		return 1
	}

	if v < -1 {
		return -1
	}

	return v
}

// feeder pushes window bars into a block's streaming accumulators exactly
// once each: the full window on the first call, the newest bar afterwards.
// Correct as long as consecutive windows advance one bar at a time, which
// the simulation loop guarantees.
type feeder struct {
	primed bool
}

func (f *feeder) each(w marketdata.Window, fn func(c marketdata.Candle)) {
	if !f.primed {
		for i := 0; i < w.Len(); i++ {
			fn(w.At(i))
		}
		f.primed = true
		return
	}

	fn(w.Last())
}

type constBlock struct {
	level float64
}

func newConstBlock(p map[string]float64) SignalBlock {
	return &constBlock{level: p["level"]}
}

func (b *constBlock) Evaluate(w marketdata.Window) float64 {
	return b.level
}

type smaCrossBlock struct {
	feeder
	fast *indicators.Sma
	slow *indicators.Sma
}

func newSmaCrossBlock(p map[string]float64) SignalBlock {
	return &smaCrossBlock{
		fast: indicators.NewSma(int(p["fast"])),
		slow: indicators.NewSma(int(p["slow"])),
	}
}

func (b *smaCrossBlock) Evaluate(w marketdata.Window) float64 {
	var fastVal, slowVal float64
	var fastOK, slowOK bool

	b.each(w, func(c marketdata.Candle) {
		fastVal, fastOK = b.fast.Update(c.Close)
		slowVal, slowOK = b.slow.Update(c.Close)
	})

	if !fastOK || !slowOK {
		return 0
	}

	if fastVal > slowVal {
		return 1
	}

	if fastVal < slowVal {
		return -1
	}

	return 0
}

type emaCrossBlock struct {
	feeder
	fast *indicators.Ema
	slow *indicators.Ema
}

func newEmaCrossBlock(p map[string]float64) SignalBlock {
	return &emaCrossBlock{
		fast: indicators.NewEma(int(p["fast"])),
		slow: indicators.NewEma(int(p["slow"])),
	}
}

func (b *emaCrossBlock) Evaluate(w marketdata.Window) float64 {
	var fastVal, slowVal float64
	var fastOK, slowOK bool

	b.each(w, func(c marketdata.Candle) {
		fastVal, fastOK = b.fast.Update(c.Close)
		slowVal, slowOK = b.slow.Update(c.Close)
	})

	if !fastOK || !slowOK {
		return 0
	}

	if fastVal > slowVal {
		return 1
	}

	if fastVal < slowVal {
		return -1
	}

	return 0
}

type momentumBlock struct {
	lookback int
	scale    float64
}

func newMomentumBlock(p map[string]float64) SignalBlock {
	return &momentumBlock{
		lookback: int(p["lookback"]),
		scale:    p["scale"],
	}
}

func (b *momentumBlock) Evaluate(w marketdata.Window) float64 {
	base := w.Close(w.Len() - 1 - b.lookback)
	if base == 0 {
		return 0
	}

	ret := w.Last().Close/base - 1

	return clampStrength(ret * b.scale)
}

type rsiReversionBlock struct {
	feeder
	rsi *indicators.Rsi
}

func newRsiReversionBlock(p map[string]float64) SignalBlock {
	return &rsiReversionBlock{rsi: indicators.NewRsi(int(p["lookback"]))}
}

func (b *rsiReversionBlock) Evaluate(w marketdata.Window) float64 {
	var val float64
	var ok bool

	b.each(w, func(c marketdata.Candle) {
		val, ok = b.rsi.Update(c.Close)
	})

	if !ok {
		return 0
	}

	// overbought shorts, oversold longs
	return clampStrength((50 - val) / 50)
}

type channelBreakoutBlock struct {
	highest *indicators.RollingExtreme
	lowest  *indicators.RollingExtreme
	primed  bool
}

func newChannelBreakoutBlock(p map[string]float64) SignalBlock {
	lookback := int(p["lookback"])

	return &channelBreakoutBlock{
		highest: indicators.NewRollingHighest(lookback),
		lowest:  indicators.NewRollingLowest(lookback),
	}
}

func (b *channelBreakoutBlock) Evaluate(w marketdata.Window) float64 {
	if !b.primed {
		// exclude the newest bar so the channel is the prior range
		for i := 0; i < w.Len()-1; i++ {
			b.highest.Update(w.High(i))
			b.lowest.Update(w.Low(i))
		}
		b.primed = true
	}

	hi, hiOK := b.highest.Value()
	lo, loOK := b.lowest.Value()

	last := w.Last()
	b.highest.Update(last.High)
	b.lowest.Update(last.Low)

	if !hiOK || !loOK {
		return 0
	}

	if last.Close > hi {
		return 1
	}

	if last.Close < lo {
		return -1
	}

	return 0
}

type bollingerReversionBlock struct {
	feeder
	bands *indicators.BollingerBands
}

func newBollingerReversionBlock(p map[string]float64) SignalBlock {
	return &bollingerReversionBlock{
		bands: indicators.NewBollingerBands(int(p["lookback"]), p["num_std"]),
	}
}

func (b *bollingerReversionBlock) Evaluate(w marketdata.Window) float64 {
	var ready bool
	var bands indicators.BollingerBandsStats

	b.each(w, func(c marketdata.Candle) {
		ready, bands, _ = b.bands.Update(c)
	})

	if !ready {
		return 0
	}

	halfWidth := (bands.Upper - bands.Lower) / 2
	if halfWidth <= 0 {
		return 0
	}

	// below the band pulls long, above pulls short
	return clampStrength((bands.MovingAverage - w.Last().Close) / halfWidth)
}
