package backtest

import (
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"
)

type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Equity    float64   `json:"equity"`
}

// Diagnostics are the auxiliary measures attached to every simulation:
// enough for an evaluator to build a risk-adjusted score without walking
// the curve again.
type Diagnostics struct {
	Bars        int     `json:"bars"`
	Trades      int     `json:"trades"`
	ClippedBars int     `json:"clippedBars"`
	MaxDrawdown float64 `json:"maxDrawdown"`
	Turnover    float64 `json:"turnover"`
	TotalReturn float64 `json:"totalReturn"`
	FinalEquity float64 `json:"finalEquity"`
}

// SimulationResult binds one graph identity to one series identity.
// Re-running the same pair reproduces it bit for bit.
type SimulationResult struct {
	GraphID        string        `json:"graphId"`
	SeriesID       string        `json:"seriesId"`
	InitialCapital float64       `json:"initialCapital"`
	EquityCurve    []EquityPoint `json:"equityCurve"`
	Ledger         []Fill        `json:"ledger"`
	Diagnostics    Diagnostics   `json:"diagnostics"`
	Fitness        float64       `json:"fitness"`
}

type fillDTO struct {
	Timestamp      string  `csv:"time"`
	BarIndex       int     `csv:"bar"`
	Price          float64 `csv:"price"`
	Units          float64 `csv:"units"`
	Notional       float64 `csv:"notional"`
	Commission     float64 `csv:"commission"`
	Slippage       float64 `csv:"slippage"`
	TargetLeverage float64 `csv:"target_leverage"`
	Clipped        bool    `csv:"clipped"`
}

// SaveLedgerCSV exports the trade ledger for spreadsheet review.
func SaveLedgerCSV(outFile string, ledger []Fill) error {
	file, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("error creating csv file: %v", err)
	}

	defer file.Close()

	dtos := make([]*fillDTO, 0, len(ledger))
	for _, fill := range ledger {
		dtos = append(dtos, &fillDTO{
			Timestamp:      fill.Timestamp.UTC().Format(time.RFC3339),
			BarIndex:       fill.BarIndex,
			Price:          fill.Price,
			Units:          fill.Units,
			Notional:       fill.Notional,
			Commission:     fill.Commission,
			Slippage:       fill.Slippage,
			TargetLeverage: fill.TargetLeverage,
			Clipped:        fill.Clipped,
		})
	}

	if err := gocsv.MarshalFile(&dtos, file); err != nil {
		return fmt.Errorf("error marshalling ledger csv %s: %v", outFile, err)
	}

	return nil
}
