package strategy

import (
	"fmt"
	"math"
	"sort"
)

// ParamSpec declares one named numeric parameter of a block type: its
// bounds, its default and whether values are rounded to integers. Bounds are
// enforced once, when a block spec is validated; evaluation never re-checks.
type ParamSpec struct {
	Name    string
	Min     float64
	Max     float64
	Default float64
	Integer bool
}

func (p ParamSpec) contains(v float64) bool {
	return v >= p.Min && v <= p.Max
}

// Clamp pulls a proposed value back inside the declared bounds, rounding
// integer parameters. Mutation operators use it to keep perturbations legal.
func (p ParamSpec) Clamp(v float64) float64 {
	if p.Integer {
		v = math.Round(v)
	}

	if v < p.Min {
		return p.Min
	}

	if v > p.Max {
		return p.Max
	}

	return v
}

// canonicalizeParams fills defaults, rounds integer parameters and bounds
// checks every value against the declared schema. Unknown names are
// rejected: the parameter shape of a block type is fixed.
func canonicalizeParams(blockType string, specs []ParamSpec, params map[string]float64) (map[string]float64, error) {
	known := make(map[string]ParamSpec, len(specs))
	for _, spec := range specs {
		known[spec.Name] = spec
	}

	for name := range params {
		if _, ok := known[name]; !ok {
			return nil, fmt.Errorf("%w: %s has no parameter %q", ErrInvalidParameter, blockType, name)
		}
	}

	out := make(map[string]float64, len(specs))
	for _, spec := range specs {
		v, ok := params[spec.Name]
		if !ok {
			v = spec.Default
		}

		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %s.%s is not finite", ErrInvalidParameter, blockType, spec.Name)
		}

		if spec.Integer {
			v = math.Round(v)
		}

		if !spec.contains(v) {
			return nil, fmt.Errorf("%w: %s.%s = %v out of bounds [%v, %v]", ErrInvalidParameter, blockType, spec.Name, v, spec.Min, spec.Max)
		}

		out[spec.Name] = v
	}

	return out, nil
}

func sortedParamNames(params map[string]float64) []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
