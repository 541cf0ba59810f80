package strategy

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jiaming2012/strategy-lab/src/marketdata"
)

type Kind string

const (
	KindSignal Kind = "signal"
	KindSizing Kind = "sizing"
	KindRisk   Kind = "risk"
)

// SignalBlock maps a rolling window to a direction/strength in [-1, +1].
type SignalBlock interface {
	Evaluate(w marketdata.Window) float64
}

// SizingBlock maps a combined signal strength and the account state to a
// target leverage (signed fraction of equity).
type SizingBlock interface {
	Evaluate(strength float64, st PositionState, w marketdata.Window) float64
}

// RiskBlock adjusts or overrides the proposed target, e.g. forcing an exit.
type RiskBlock interface {
	Evaluate(target float64, st PositionState, w marketdata.Window) float64
}

// BlockSpec is the serializable description of one block instance: its
// stage, its type name and its parameter values. Specs returned by
// NewBlockSpec are canonical (defaults filled, integers rounded) and have
// passed bounds validation.
type BlockSpec struct {
	Kind   Kind               `yaml:"kind" json:"kind"`
	Type   string             `yaml:"type" json:"type"`
	Params map[string]float64 `yaml:"params,omitempty" json:"params,omitempty"`
}

type blockDef struct {
	kind       Kind
	params     []ParamSpec
	minBars    func(p map[string]float64) int
	crossCheck func(p map[string]float64) error
	newSignal  func(p map[string]float64) SignalBlock
	newSizing  func(p map[string]float64) SizingBlock
	newRisk    func(p map[string]float64) RiskBlock
}

var blockCatalog = map[string]blockDef{
	"const": {
		kind: KindSignal,
		params: []ParamSpec{
			{Name: "level", Min: -1, Max: 1, Default: 0},
		},
		minBars:   func(p map[string]float64) int { return 1 },
		newSignal: newConstBlock,
	},
	"sma_cross": {
		kind: KindSignal,
		params: []ParamSpec{
			{Name: "fast", Min: 2, Max: 200, Default: 10, Integer: true},
			{Name: "slow", Min: 3, Max: 500, Default: 50, Integer: true},
		},
		minBars:    func(p map[string]float64) int { return int(p["slow"]) },
		crossCheck: checkFastSlow,
		newSignal:  newSmaCrossBlock,
	},
	"ema_cross": {
		kind: KindSignal,
		params: []ParamSpec{
			{Name: "fast", Min: 2, Max: 200, Default: 12, Integer: true},
			{Name: "slow", Min: 3, Max: 500, Default: 26, Integer: true},
		},
		minBars:    func(p map[string]float64) int { return int(p["slow"]) },
		crossCheck: checkFastSlow,
		newSignal:  newEmaCrossBlock,
	},
	"momentum": {
		kind: KindSignal,
		params: []ParamSpec{
			{Name: "lookback", Min: 2, Max: 500, Default: 20, Integer: true},
			{Name: "scale", Min: 1, Max: 100, Default: 20},
		},
		minBars:   func(p map[string]float64) int { return int(p["lookback"]) + 1 },
		newSignal: newMomentumBlock,
	},
	"rsi_reversion": {
		kind: KindSignal,
		params: []ParamSpec{
			{Name: "lookback", Min: 2, Max: 100, Default: 14, Integer: true},
		},
		minBars:   func(p map[string]float64) int { return int(p["lookback"]) + 1 },
		newSignal: newRsiReversionBlock,
	},
	"channel_breakout": {
		kind: KindSignal,
		params: []ParamSpec{
			{Name: "lookback", Min: 2, Max: 500, Default: 55, Integer: true},
		},
		minBars:   func(p map[string]float64) int { return int(p["lookback"]) + 1 },
		newSignal: newChannelBreakoutBlock,
	},
	"bollinger_reversion": {
		kind: KindSignal,
		params: []ParamSpec{
			{Name: "lookback", Min: 5, Max: 100, Default: 20, Integer: true},
			{Name: "num_std", Min: 0.5, Max: 4, Default: 2},
		},
		minBars:   func(p map[string]float64) int { return int(p["lookback"]) + 1 },
		newSignal: newBollingerReversionBlock,
	},
	"fixed_fraction": {
		kind: KindSizing,
		params: []ParamSpec{
			{Name: "fraction", Min: 0, Max: 1, Default: 1},
		},
		minBars:   func(p map[string]float64) int { return 1 },
		newSizing: newFixedFractionBlock,
	},
	"vol_target": {
		kind: KindSizing,
		params: []ParamSpec{
			{Name: "lookback", Min: 5, Max: 200, Default: 20, Integer: true},
			{Name: "target_vol", Min: 0.0001, Max: 0.1, Default: 0.01},
			{Name: "cap", Min: 0.1, Max: 3, Default: 1},
		},
		minBars:   func(p map[string]float64) int { return int(p["lookback"]) + 1 },
		newSizing: newVolTargetBlock,
	},
	"exposure_cap": {
		kind: KindRisk,
		params: []ParamSpec{
			{Name: "cap", Min: 0, Max: 3, Default: 1},
		},
		minBars: func(p map[string]float64) int { return 1 },
		newRisk: newExposureCapBlock,
	},
	"stop_loss": {
		kind: KindRisk,
		params: []ParamSpec{
			{Name: "stop_pct", Min: 0.005, Max: 0.5, Default: 0.05},
		},
		minBars: func(p map[string]float64) int { return 1 },
		newRisk: newStopLossBlock,
	},
	"atr_stop": {
		kind: KindRisk,
		params: []ParamSpec{
			{Name: "lookback", Min: 2, Max: 200, Default: 14, Integer: true},
			{Name: "mult", Min: 0.5, Max: 10, Default: 3},
		},
		minBars: func(p map[string]float64) int { return int(p["lookback"]) },
		newRisk: newAtrStopBlock,
	},
	"drawdown_guard": {
		kind: KindRisk,
		params: []ParamSpec{
			{Name: "max_dd", Min: 0.05, Max: 0.9, Default: 0.25},
		},
		minBars: func(p map[string]float64) int { return 1 },
		newRisk: newDrawdownGuardBlock,
	},
}

func checkFastSlow(p map[string]float64) error {
	if p["fast"] >= p["slow"] {
		return fmt.Errorf("%w: fast period %v must be below slow period %v", ErrInvalidParameter, p["fast"], p["slow"])
	}

	return nil
}

// NewBlockSpec validates a proposed block against the catalog and returns
// its canonical spec. This is the single validation point for parameters.
func NewBlockSpec(kind Kind, blockType string, params map[string]float64) (BlockSpec, error) {
	def, ok := blockCatalog[blockType]
	if !ok {
		return BlockSpec{}, fmt.Errorf("%w: unknown block type %q", ErrInvalidParameter, blockType)
	}

	if def.kind != kind {
		return BlockSpec{}, fmt.Errorf("%w: block type %q is a %s block, not %s", ErrInvalidParameter, blockType, def.kind, kind)
	}

	canonical, err := canonicalizeParams(blockType, def.params, params)
	if err != nil {
		return BlockSpec{}, err
	}

	if def.crossCheck != nil {
		if err := def.crossCheck(canonical); err != nil {
			return BlockSpec{}, err
		}
	}

	return BlockSpec{Kind: kind, Type: blockType, Params: canonical}, nil
}

// BlockTypes lists the catalog's type names for one kind, sorted for
// deterministic iteration.
func BlockTypes(kind Kind) []string {
	var names []string
	for name, def := range blockCatalog {
		if def.kind == kind {
			names = append(names, name)
		}
	}

	sort.Strings(names)

	return names
}

// ParamSpecs returns the declared parameter schema of a block type.
func ParamSpecs(blockType string) ([]ParamSpec, bool) {
	def, ok := blockCatalog[blockType]
	if !ok {
		return nil, false
	}

	out := make([]ParamSpec, len(def.params))
	copy(out, def.params)

	return out, true
}

func minBarsFor(spec BlockSpec) int {
	def, ok := blockCatalog[spec.Type]
	if !ok {
		return 1
	}

	return def.minBars(spec.Params)
}

// canonicalString renders a validated spec into the stable text form hashed
// into graph identities: type{name=value,...} with names sorted.
func (s BlockSpec) canonicalString() string {
	var b strings.Builder
	b.WriteString(s.Type)
	b.WriteByte('{')

	for i, name := range sortedParamNames(s.Params) {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(s.Params[name], 'g', -1, 64))
	}

	b.WriteByte('}')

	return b.String()
}
