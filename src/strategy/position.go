package strategy

// PositionState is the account snapshot sizing and risk blocks read: cash,
// open units, the latest mark price and the bookkeeping risk blocks need
// (average entry price, peak equity so far). The execution layer owns the
// updates; blocks only read.
type PositionState struct {
	Cash       float64
	Units      float64
	LastPrice  float64
	EntryPrice float64
	PeakEquity float64
}

func (st PositionState) Equity() float64 {
	return st.Cash + st.Units*st.LastPrice
}

// Leverage is the signed position notional as a fraction of equity.
func (st PositionState) Leverage() float64 {
	equity := st.Equity()
	if equity <= 0 {
		return 0
	}

	return st.Units * st.LastPrice / equity
}
