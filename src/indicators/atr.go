package indicators

import (
	"math"

	"github.com/jiaming2012/strategy-lab/src/marketdata"
)

// Atr is Wilder's average true range. The first value is a simple average of
// the first Period true ranges; later values use Wilder smoothing.
type Atr struct {
	Period    int
	prevClose *float64
	prevAtr   *float64
	ranges    []float64
}

func NewAtr(period int) *Atr {
	return &Atr{Period: period}
}

func trueRange(c marketdata.Candle, prevClose *float64) float64 {
	tr := c.High - c.Low
	if prevClose != nil {
		tr = math.Max(tr, math.Abs(c.High-*prevClose))
		tr = math.Max(tr, math.Abs(c.Low-*prevClose))
	}

	return tr
}

func (a *Atr) Update(c marketdata.Candle) (float64, bool) {
	tr := trueRange(c, a.prevClose)

	close := c.Close
	a.prevClose = &close

	if a.prevAtr == nil {
		a.ranges = append(a.ranges, tr)
		if len(a.ranges) < a.Period {
			return 0, false
		}

		atr := average(a.ranges)
		a.prevAtr = &atr
		a.ranges = nil

		return atr, true
	}

	atr := ((*a.prevAtr)*(float64(a.Period)-1.0) + tr) / float64(a.Period)
	a.prevAtr = &atr

	return atr, true
}
