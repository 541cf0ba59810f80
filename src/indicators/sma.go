package indicators

type Sma struct {
	Period int
	values []float64
}

func NewSma(period int) *Sma {
	return &Sma{Period: period}
}

func (s *Sma) Update(value float64) (float64, bool) {
	if len(s.values) < s.Period {
		s.values = append(s.values, value)
	} else {
		s.values = append(s.values[1:], value)
	}

	if len(s.values) < s.Period {
		return 0, false
	}

	return average(s.values), true
}

// Ema seeds from a simple average of the first Period values, then applies
// the standard 2/(n+1) smoothing.
type Ema struct {
	Period int
	alpha  float64
	value  float64
	seed   []float64
	primed bool
}

func NewEma(period int) *Ema {
	return &Ema{
		Period: period,
		alpha:  2.0 / (float64(period) + 1.0),
	}
}

func (e *Ema) Update(value float64) (float64, bool) {
	if !e.primed {
		e.seed = append(e.seed, value)
		if len(e.seed) < e.Period {
			return 0, false
		}

		e.value = average(e.seed)
		e.seed = nil
		e.primed = true

		return e.value, true
	}

	e.value = e.alpha*value + (1.0-e.alpha)*e.value

	return e.value, true
}
