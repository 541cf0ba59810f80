package strategy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/jiaming2012/strategy-lab/src/marketdata"
)

// Graph is an immutable, staged composition of blocks: one or more signal
// blocks whose strengths are combined by a reducer, feeding exactly one
// sizing block, feeding exactly one risk block. Mutation always builds new
// graphs; a composed graph never changes.
type Graph struct {
	reducer  string
	signals  []BlockSpec
	sizing   BlockSpec
	risk     BlockSpec
	identity string
	family   string
	minBars  int
}

// Compose validates the staged structure and every block spec. Structural
// violations (no signals, a block in the wrong stage, an unknown reducer)
// fail with ErrGraphStructure; out-of-bounds parameters fail with
// ErrInvalidParameter. This is the only validation point: stepping never
// re-checks.
func Compose(signals []BlockSpec, sizing BlockSpec, risk BlockSpec, reducer string) (*Graph, error) {
	if len(signals) == 0 {
		return nil, fmt.Errorf("%w: at least one signal block is required", ErrGraphStructure)
	}

	if reducer == "" {
		reducer = DefaultReducer
	}

	if _, err := reducerFor(reducer); err != nil {
		return nil, err
	}

	canonicalSignals := make([]BlockSpec, 0, len(signals))
	for i, spec := range signals {
		if spec.Kind != KindSignal {
			return nil, fmt.Errorf("%w: signal stage block[%d] has kind %q", ErrGraphStructure, i, spec.Kind)
		}

		canonical, err := NewBlockSpec(KindSignal, spec.Type, spec.Params)
		if err != nil {
			return nil, err
		}

		canonicalSignals = append(canonicalSignals, canonical)
	}

	if sizing.Kind != KindSizing {
		return nil, fmt.Errorf("%w: sizing stage block has kind %q", ErrGraphStructure, sizing.Kind)
	}

	canonicalSizing, err := NewBlockSpec(KindSizing, sizing.Type, sizing.Params)
	if err != nil {
		return nil, err
	}

	if risk.Kind != KindRisk {
		return nil, fmt.Errorf("%w: risk stage block has kind %q", ErrGraphStructure, risk.Kind)
	}

	canonicalRisk, err := NewBlockSpec(KindRisk, risk.Type, risk.Params)
	if err != nil {
		return nil, err
	}

	g := &Graph{
		reducer: reducer,
		signals: canonicalSignals,
		sizing:  canonicalSizing,
		risk:    canonicalRisk,
	}

	g.identity = computeGraphIdentity(g)
	g.family = computeGraphFamily(g)
	g.minBars = computeMinBars(g)

	return g, nil
}

func computeGraphIdentity(g *Graph) string {
	var b strings.Builder

	fmt.Fprintf(&b, "reducer=%s\n", g.reducer)
	for i, spec := range g.signals {
		fmt.Fprintf(&b, "signal[%d]=%s\n", i, spec.canonicalString())
	}
	fmt.Fprintf(&b, "sizing=%s\n", g.sizing.canonicalString())
	fmt.Fprintf(&b, "risk=%s\n", g.risk.canonicalString())

	sum := sha256.Sum256([]byte(b.String()))

	return hex.EncodeToString(sum[:])
}

func computeGraphFamily(g *Graph) string {
	parts := make([]string, 0, len(g.signals)+3)
	parts = append(parts, g.reducer)
	for _, spec := range g.signals {
		parts = append(parts, spec.Type)
	}
	parts = append(parts, g.sizing.Type, g.risk.Type)

	return strings.Join(parts, "|")
}

func computeMinBars(g *Graph) int {
	minBars := 1
	for _, spec := range g.signals {
		if mb := minBarsFor(spec); mb > minBars {
			minBars = mb
		}
	}

	if mb := minBarsFor(g.sizing); mb > minBars {
		minBars = mb
	}

	if mb := minBarsFor(g.risk); mb > minBars {
		minBars = mb
	}

	return minBars
}

// Identity is the stable content hash over the reducer, the ordered signal
// specs and the sizing/risk specs. Equal compositions built independently
// hash identically; changing any parameter changes the hash.
func (g *Graph) Identity() string {
	return g.identity
}

// Family is the structure-only fingerprint: block types and reducer with
// parameters ignored. Graphs that differ only in parameter values share a
// family.
func (g *Graph) Family() string {
	return g.family
}

// MinBars is the minimum series length required before the graph can
// produce its first target.
func (g *Graph) MinBars() int {
	return g.minBars
}

func (g *Graph) Reducer() string {
	return g.reducer
}

func (g *Graph) Signals() []BlockSpec {
	out := make([]BlockSpec, len(g.signals))
	for i, spec := range g.signals {
		out[i] = cloneSpec(spec)
	}

	return out
}

func (g *Graph) Sizing() BlockSpec {
	return cloneSpec(g.sizing)
}

func (g *Graph) Risk() BlockSpec {
	return cloneSpec(g.risk)
}

func (g *Graph) String() string {
	return fmt.Sprintf("%s (%s)", g.family, g.identity[:12])
}

func cloneSpec(spec BlockSpec) BlockSpec {
	params := make(map[string]float64, len(spec.Params))
	for name, v := range spec.Params {
		params[name] = v
	}

	return BlockSpec{Kind: spec.Kind, Type: spec.Type, Params: params}
}

// GraphRun holds the live block instances for one simulation. Each run gets
// fresh instances, so block-local buffers never leak between simulations.
type GraphRun struct {
	signals   []SignalBlock
	sizing    SizingBlock
	risk      RiskBlock
	reduce    Reducer
	strengths []float64
}

func (g *Graph) NewRun() *GraphRun {
	signals := make([]SignalBlock, len(g.signals))
	for i, spec := range g.signals {
		signals[i] = blockCatalog[spec.Type].newSignal(spec.Params)
	}

	reduce, _ := reducerFor(g.reducer)

	return &GraphRun{
		signals:   signals,
		sizing:    blockCatalog[g.sizing.Type].newSizing(g.sizing.Params),
		risk:      blockCatalog[g.risk.Type].newRisk(g.risk.Params),
		reduce:    reduce,
		strengths: make([]float64, len(g.signals)),
	}
}

// Step evaluates the staged pipeline for one bar: signal strengths in
// declared order, reduced to one strength, sized into a target leverage,
// then adjusted by the risk stage.
func (r *GraphRun) Step(w marketdata.Window, st PositionState) float64 {
	for i, block := range r.signals {
		r.strengths[i] = block.Evaluate(w)
	}

	combined := r.reduce(r.strengths)
	target := r.sizing.Evaluate(combined, st, w)

	return r.risk.Evaluate(target, st, w)
}
