package optimizer

import (
	"fmt"
	"math/rand"

	"github.com/jiaming2012/strategy-lab/src/strategy"
)

const (
	maxSeedAttempts   = 50
	maxMutateAttempts = 20

	// gaussian mutation step as a fraction of the declared range
	mutationSigma = 0.1
)

func pick(rng *rand.Rand, names []string) string {
	return names[rng.Intn(len(names))]
}

// drawSpec draws one block with every parameter uniform in its declared
// range.
func drawSpec(rng *rand.Rand, kind strategy.Kind, blockType string) (strategy.BlockSpec, error) {
	specs, ok := strategy.ParamSpecs(blockType)
	if !ok {
		return strategy.BlockSpec{}, fmt.Errorf("unknown block type %q", blockType)
	}

	params := make(map[string]float64, len(specs))
	for _, ps := range specs {
		params[ps.Name] = ps.Clamp(ps.Min + rng.Float64()*(ps.Max-ps.Min))
	}

	return strategy.NewBlockSpec(kind, blockType, params)
}

// randomGraph draws a graph uniformly from the block catalog: one or two
// signal blocks, one sizing block, one risk block, a random reducer.
// Draws that fail cross-parameter checks are retried.
func randomGraph(rng *rand.Rand) (*strategy.Graph, error) {
	signalTypes := strategy.BlockTypes(strategy.KindSignal)
	sizingTypes := strategy.BlockTypes(strategy.KindSizing)
	riskTypes := strategy.BlockTypes(strategy.KindRisk)
	reducers := strategy.ReducerNames()

	for attempt := 0; attempt < maxSeedAttempts; attempt++ {
		signalCount := 1 + rng.Intn(2)

		signals := make([]strategy.BlockSpec, 0, signalCount)
		valid := true

		for i := 0; i < signalCount; i++ {
			spec, err := drawSpec(rng, strategy.KindSignal, pick(rng, signalTypes))
			if err != nil {
				valid = false
				break
			}

			signals = append(signals, spec)
		}

		if !valid {
			continue
		}

		sizing, err := drawSpec(rng, strategy.KindSizing, pick(rng, sizingTypes))
		if err != nil {
			continue
		}

		risk, err := drawSpec(rng, strategy.KindRisk, pick(rng, riskTypes))
		if err != nil {
			continue
		}

		graph, err := strategy.Compose(signals, sizing, risk, pick(rng, reducers))
		if err != nil {
			continue
		}

		return graph, nil
	}

	return nil, fmt.Errorf("failed to draw a valid graph after %d attempts", maxSeedAttempts)
}

func drawValue(rng *rand.Rand, ps strategy.ParamSpec, current, explorationRate float64) float64 {
	if rng.Float64() < explorationRate {
		return ps.Clamp(ps.Min + rng.Float64()*(ps.Max-ps.Min))
	}

	sigma := (ps.Max - ps.Min) * mutationSigma
	return ps.Clamp(current + rng.NormFloat64()*sigma)
}

// mutateSpec perturbs the parameters of one block. Each parameter flips
// with probability one half; a flipped value is drawn uniformly from the
// full range with probability explorationRate, otherwise gaussian near the
// current value. At least one parameter is always redrawn.
func mutateSpec(rng *rand.Rand, spec strategy.BlockSpec, explorationRate float64) (strategy.BlockSpec, error) {
	specs, ok := strategy.ParamSpecs(spec.Type)
	if !ok {
		return strategy.BlockSpec{}, fmt.Errorf("unknown block type %q", spec.Type)
	}

	if len(specs) == 0 {
		return spec, nil
	}

	params := make(map[string]float64, len(spec.Params))
	for name, value := range spec.Params {
		params[name] = value
	}

	changed := false
	for _, ps := range specs {
		if rng.Float64() >= 0.5 {
			continue
		}

		params[ps.Name] = drawValue(rng, ps, params[ps.Name], explorationRate)
		changed = true
	}

	if !changed {
		ps := specs[rng.Intn(len(specs))]
		params[ps.Name] = drawValue(rng, ps, params[ps.Name], explorationRate)
	}

	return strategy.NewBlockSpec(spec.Kind, spec.Type, params)
}

// mutateGraph perturbs one block of the parent and recomposes. Invalid
// children are discarded and redrawn; if every retry fails the parent
// itself is returned.
func mutateGraph(rng *rand.Rand, parent *strategy.Graph, explorationRate float64) *strategy.Graph {
	for attempt := 0; attempt < maxMutateAttempts; attempt++ {
		signals := parent.Signals()
		sizing := parent.Sizing()
		risk := parent.Risk()

		target := rng.Intn(len(signals) + 2)

		var err error
		switch {
		case target < len(signals):
			signals[target], err = mutateSpec(rng, signals[target], explorationRate)
		case target == len(signals):
			sizing, err = mutateSpec(rng, sizing, explorationRate)
		default:
			risk, err = mutateSpec(rng, risk, explorationRate)
		}

		if err != nil {
			continue
		}

		child, err := strategy.Compose(signals, sizing, risk, parent.Reducer())
		if err != nil {
			continue
		}

		return child
	}

	return parent
}

// crossoverGraphs mixes two parents stage by stage with coin flips. An
// invalid child falls back to the first parent.
func crossoverGraphs(rng *rand.Rand, a, b *strategy.Graph) *strategy.Graph {
	signals := a.Signals()
	if rng.Float64() < 0.5 {
		signals = b.Signals()
	}

	sizing := a.Sizing()
	if rng.Float64() < 0.5 {
		sizing = b.Sizing()
	}

	risk := a.Risk()
	if rng.Float64() < 0.5 {
		risk = b.Risk()
	}

	reducer := a.Reducer()
	if rng.Float64() < 0.5 {
		reducer = b.Reducer()
	}

	child, err := strategy.Compose(signals, sizing, risk, reducer)
	if err != nil {
		return a
	}

	return child
}

// tournamentSelect returns the best of size uniform draws from the pool.
func tournamentSelect(rng *rand.Rand, pool []candidate, size int, score func(candidate) float64) candidate {
	best := pool[rng.Intn(len(pool))]

	for i := 1; i < size; i++ {
		challenger := pool[rng.Intn(len(pool))]
		if score(challenger) > score(best) {
			best = challenger
		}
	}

	return best
}
