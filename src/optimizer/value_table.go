package optimizer

// valueTable keeps a running value estimate per structure family, the
// fingerprint of a graph with its parameters ignored. Families that keep
// producing fit members accumulate reputation, which biases parent
// selection while exploration is high.
type valueTable struct {
	learningRate float64
	discount     float64
	values       map[string]float64
}

func newValueTable(learningRate, discount float64) *valueTable {
	return &valueTable{
		learningRate: learningRate,
		discount:     discount,
		values:       make(map[string]float64),
	}
}

func (vt *valueTable) update(family string, fitness float64) {
	value := vt.values[family]
	vt.values[family] = value + vt.learningRate*(fitness-value)
}

func (vt *valueTable) value(family string) float64 {
	return vt.values[family]
}

// decay fades every family's reputation once per generation. Entries are
// independent, so map iteration order does not affect the outcome.
func (vt *valueTable) decay() {
	for family, value := range vt.values {
		vt.values[family] = value * vt.discount
	}
}
