package indicators

import (
	"math"
)

// Rsi implements Wilder's relative strength index over close prices.
type Rsi struct {
	Period      int
	prevAvgGain *float64
	prevAvgLoss *float64
	closes      []float64
}

func NewRsi(period int) *Rsi {
	return &Rsi{Period: period}
}

func (r *Rsi) deriveRS() float64 {
	if r.prevAvgGain != nil {
		curPrice := r.closes[len(r.closes)-1]
		prevPrice := r.closes[len(r.closes)-2]
		delta := curPrice - prevPrice

		var deltaGain, deltaLoss float64
		if delta > 0 {
			deltaGain = delta
			deltaLoss = 0.0
		} else {
			deltaGain = 0.0
			deltaLoss = math.Abs(delta)
		}

		avgGain := ((*r.prevAvgGain)*(float64(r.Period)-1.0) + deltaGain) / float64(r.Period)
		avgLoss := ((*r.prevAvgLoss)*(float64(r.Period)-1.0) + deltaLoss) / float64(r.Period)

		r.prevAvgGain = &avgGain
		r.prevAvgLoss = &avgLoss

		if avgLoss == 0 {
			return 100
		}

		return avgGain / avgLoss
	}

	gains := make([]float64, len(r.closes))
	losses := make([]float64, len(r.closes))

	prevPrice := r.closes[0]
	for i, price := range r.closes {
		delta := price - prevPrice
		if delta > 0 {
			gains[i] = delta
			losses[i] = 0
		} else {
			gains[i] = 0
			losses[i] = math.Abs(delta)
		}

		prevPrice = price
	}

	avgGain := average(gains[1:])
	avgLoss := average(losses[1:])
	r.prevAvgGain = &avgGain
	r.prevAvgLoss = &avgLoss

	if avgLoss == 0 {
		return 100
	}

	return avgGain / avgLoss
}

func (r *Rsi) Update(close float64) (float64, bool) {
	if len(r.closes) < r.Period {
		r.closes = append(r.closes, close)
		return 0, false
	}

	r.closes = append(r.closes, close)

	rs := r.deriveRS()

	r.closes = r.closes[1:]

	if rs == 0 {
		return 0, true
	}

	return 100 - (100 / (1 + rs)), true
}
