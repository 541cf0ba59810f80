package indicators

// RollingExtreme tracks the highest or lowest value over a sliding window.
type RollingExtreme struct {
	Period  int
	highest bool
	values  []float64
}

func NewRollingHighest(period int) *RollingExtreme {
	return &RollingExtreme{Period: period, highest: true}
}

func NewRollingLowest(period int) *RollingExtreme {
	return &RollingExtreme{Period: period}
}

func (r *RollingExtreme) Update(value float64) (float64, bool) {
	if len(r.values) < r.Period {
		r.values = append(r.values, value)
	} else {
		r.values = append(r.values[1:], value)
	}

	return r.Value()
}

// Value reads the current extreme without feeding a new value. Breakout
// rules use it to compare a bar against the window that excludes the bar.
func (r *RollingExtreme) Value() (float64, bool) {
	if len(r.values) < r.Period {
		return 0, false
	}

	extreme := r.values[0]
	for _, v := range r.values[1:] {
		if r.highest && v > extreme {
			extreme = v
		} else if !r.highest && v < extreme {
			extreme = v
		}
	}

	return extreme, true
}
