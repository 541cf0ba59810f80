// Package indicators provides streaming accumulators for the rolling
// numerics strategy blocks consume. Each accumulator owns its buffer and is
// reset by constructing a new instance; Update returns false until enough
// bars have been seen.
package indicators

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}
