package strategy

import (
	"fmt"
	"math"
	"sort"
)

// A Reducer combines the strengths of a graph's signal blocks, in declared
// order, into one value in [-1, +1].
type Reducer func(strengths []float64) float64

const DefaultReducer = "mean"

var reducerCatalog = map[string]Reducer{
	// equal-weighted average, clipped to range
	"mean": func(strengths []float64) float64 {
		sum := 0.0
		for _, s := range strengths {
			sum += s
		}

		return clampStrength(sum / float64(len(strengths)))
	},

	// net fraction of blocks voting long vs short
	"vote": func(strengths []float64) float64 {
		votes := 0
		for _, s := range strengths {
			if s > 0 {
				votes++
			} else if s < 0 {
				votes--
			}
		}

		return float64(votes) / float64(len(strengths))
	},

	// the single signal with the largest magnitude; earlier blocks win ties
	"strongest": func(strengths []float64) float64 {
		best := strengths[0]
		for _, s := range strengths[1:] {
			if math.Abs(s) > math.Abs(best) {
				best = s
			}
		}

		return clampStrength(best)
	},
}

func reducerFor(name string) (Reducer, error) {
	if name == "" {
		name = DefaultReducer
	}

	r, ok := reducerCatalog[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown reducer %q", ErrGraphStructure, name)
	}

	return r, nil
}

// ReducerNames lists the available reducers, sorted.
func ReducerNames() []string {
	names := make([]string, 0, len(reducerCatalog))
	for name := range reducerCatalog {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
