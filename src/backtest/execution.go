package backtest

import (
	"fmt"
	"math"
	"time"

	"github.com/jiaming2012/strategy-lab/src/marketdata"
	"github.com/jiaming2012/strategy-lab/src/strategy"
)

// ExecutionConfig carries the friction and limit settings of the simulated
// account. Rates are in basis points of notional.
type ExecutionConfig struct {
	CommissionBps float64 `yaml:"commissionBps" json:"commissionBps"`
	SlippageBps   float64 `yaml:"slippageBps" json:"slippageBps"`
	MaxLeverage   float64 `yaml:"maxLeverage" json:"maxLeverage"`
}

// Fill is one executed rebalance: the units traded, the price after
// slippage and the costs charged.
type Fill struct {
	Timestamp      time.Time `json:"timestamp"`
	BarIndex       int       `json:"barIndex"`
	Price          float64   `json:"price"`
	Units          float64   `json:"units"`
	Notional       float64   `json:"notional"`
	Commission     float64   `json:"commission"`
	Slippage       float64   `json:"slippage"`
	TargetLeverage float64   `json:"targetLeverage"`
	Clipped        bool      `json:"clipped"`
}

type ExecutionModel struct {
	cfg ExecutionConfig
}

func NewExecutionModel(cfg ExecutionConfig) (*ExecutionModel, error) {
	if cfg.CommissionBps < 0 {
		return nil, fmt.Errorf("commission bps must not be negative, got %v", cfg.CommissionBps)
	}

	if cfg.SlippageBps < 0 {
		return nil, fmt.Errorf("slippage bps must not be negative, got %v", cfg.SlippageBps)
	}

	if cfg.MaxLeverage <= 0 {
		return nil, fmt.Errorf("max leverage must be positive, got %v", cfg.MaxLeverage)
	}

	return &ExecutionModel{cfg: cfg}, nil
}

func (m *ExecutionModel) Config() ExecutionConfig {
	return m.cfg
}

// Apply rebalances the account toward the target leverage at the bar's open
// price. Targets beyond the leverage limit are clipped, never rejected: the
// clip is recorded on the fill so diagnostics can count it. Slippage moves
// the fill price against the trader in proportion to the traded leverage
// delta; commission is charged on the notional traded.
func (m *ExecutionModel) Apply(target float64, st strategy.PositionState, barIndex int, bar marketdata.Candle) (Fill, strategy.PositionState) {
	price := bar.Open

	clipped := false
	requested := target
	if target > m.cfg.MaxLeverage {
		target = m.cfg.MaxLeverage
		clipped = true
	} else if target < -m.cfg.MaxLeverage {
		target = -m.cfg.MaxLeverage
		clipped = true
	}

	st.LastPrice = price
	equity := st.Equity()

	var desiredUnits float64
	if equity > 0 && price > 0 {
		desiredUnits = target * equity / price
	}

	delta := desiredUnits - st.Units
	if delta == 0 {
		fill := Fill{Timestamp: bar.Timestamp, BarIndex: barIndex, Price: price, TargetLeverage: requested, Clipped: clipped}
		return fill, st
	}

	// slippage offset scales with the leverage actually traded
	leverageDelta := 0.0
	if equity > 0 {
		leverageDelta = math.Abs(delta * price / equity)
	}

	offset := price * (m.cfg.SlippageBps / 1e4) * leverageDelta
	fillPrice := price + offset
	if delta < 0 {
		fillPrice = price - offset
	}

	notional := math.Abs(delta) * fillPrice
	commission := (m.cfg.CommissionBps / 1e4) * notional
	slippageCost := math.Abs(delta) * offset

	st.Cash -= delta*fillPrice + commission
	st.Units = desiredUnits
	st.EntryPrice = nextEntryPrice(st.EntryPrice, st.Units, delta, fillPrice)

	return Fill{
		Timestamp:      bar.Timestamp,
		BarIndex:       barIndex,
		Price:          fillPrice,
		Units:          delta,
		Notional:       notional,
		Commission:     commission,
		Slippage:       slippageCost,
		TargetLeverage: requested,
		Clipped:        clipped,
	}, st
}

// nextEntryPrice tracks the average entry of the open position: reset on a
// flat book or a direction flip, volume-weighted when adding, unchanged
// when reducing.
func nextEntryPrice(entry, unitsAfter, delta, fillPrice float64) float64 {
	if unitsAfter == 0 {
		return 0
	}

	unitsBefore := unitsAfter - delta

	if unitsBefore == 0 || unitsBefore*unitsAfter < 0 {
		return fillPrice
	}

	if math.Abs(unitsAfter) < math.Abs(unitsBefore) {
		return entry
	}

	added := math.Abs(delta)
	held := math.Abs(unitsBefore)

	return (entry*held + fillPrice*added) / (held + added)
}
