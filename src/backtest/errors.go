package backtest

import "fmt"

var (
	ErrInsufficientData = fmt.Errorf("insufficient data for the graph's lookback")
)
