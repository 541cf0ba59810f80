package main

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jiaming2012/strategy-lab/src/marketdata"
	"github.com/jiaming2012/strategy-lab/src/utils"
)

type RunArgs struct {
	OutFile       string
	Symbol        string
	Timeframe     string
	Start         string
	Bars          int
	InitialPrice  float64
	Seed          int64
	Regime        string
	DriftPerBar   float64
	Noise         float64
	RangeWidth    float64
	JumpSize      float64
	JumpEvery     int
	ProbabilityUp float64
}

type RunResult struct {
	Bars int
}

var runCmd = &cobra.Command{
	Use:   "go run src/cmd/generate_candles/main.go --out data/SYN_1h.csv --bars 2000 --regime range_jump",
	Short: "Generate seeded synthetic ohlcv candles",
	Run: func(cmd *cobra.Command, args []string) {
		runArgs := RunArgs{}
		var err error

		if runArgs.OutFile, err = cmd.Flags().GetString("out"); err != nil {
			log.Fatalf("error getting out: %v", err)
		}

		if runArgs.Symbol, err = cmd.Flags().GetString("symbol"); err != nil {
			log.Fatalf("error getting symbol: %v", err)
		}

		if runArgs.Timeframe, err = cmd.Flags().GetString("timeframe"); err != nil {
			log.Fatalf("error getting timeframe: %v", err)
		}

		if runArgs.Start, err = cmd.Flags().GetString("start"); err != nil {
			log.Fatalf("error getting start: %v", err)
		}

		if runArgs.Bars, err = cmd.Flags().GetInt("bars"); err != nil {
			log.Fatalf("error getting bars: %v", err)
		}

		if runArgs.InitialPrice, err = cmd.Flags().GetFloat64("initialPrice"); err != nil {
			log.Fatalf("error getting initialPrice: %v", err)
		}

		if runArgs.Seed, err = cmd.Flags().GetInt64("seed"); err != nil {
			log.Fatalf("error getting seed: %v", err)
		}

		if runArgs.Regime, err = cmd.Flags().GetString("regime"); err != nil {
			log.Fatalf("error getting regime: %v", err)
		}

		if runArgs.DriftPerBar, err = cmd.Flags().GetFloat64("drift"); err != nil {
			log.Fatalf("error getting drift: %v", err)
		}

		if runArgs.Noise, err = cmd.Flags().GetFloat64("noise"); err != nil {
			log.Fatalf("error getting noise: %v", err)
		}

		if runArgs.RangeWidth, err = cmd.Flags().GetFloat64("rangeWidth"); err != nil {
			log.Fatalf("error getting rangeWidth: %v", err)
		}

		if runArgs.JumpSize, err = cmd.Flags().GetFloat64("jumpSize"); err != nil {
			log.Fatalf("error getting jumpSize: %v", err)
		}

		if runArgs.JumpEvery, err = cmd.Flags().GetInt("jumpEvery"); err != nil {
			log.Fatalf("error getting jumpEvery: %v", err)
		}

		if runArgs.ProbabilityUp, err = cmd.Flags().GetFloat64("probabilityUp"); err != nil {
			log.Fatalf("error getting probabilityUp: %v", err)
		}

		result, err := Run(runArgs)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		log.Infof("wrote %d candles to %s", result.Bars, runArgs.OutFile)
	},
}

func Run(args RunArgs) (RunResult, error) {
	timeframe, err := utils.ParseTimeframe(args.Timeframe)
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to parse timeframe: %v", err)
	}

	var start time.Time
	if args.Start != "" {
		start, err = time.Parse("2006-01-02", args.Start)
		if err != nil {
			return RunResult{}, fmt.Errorf("failed to parse start: %v", err)
		}
	}

	cfg := marketdata.SyntheticConfig{
		Symbol:        args.Symbol,
		Timeframe:     timeframe,
		Start:         start,
		Bars:          args.Bars,
		InitialPrice:  args.InitialPrice,
		Seed:          args.Seed,
		DriftPerBar:   args.DriftPerBar,
		Noise:         args.Noise,
		RangeWidth:    args.RangeWidth,
		JumpSize:      args.JumpSize,
		JumpEvery:     args.JumpEvery,
		ProbabilityUp: args.ProbabilityUp,
	}

	var candles []marketdata.Candle

	switch args.Regime {
	case "drift", "":
		candles = marketdata.GenerateDrift(cfg)
	case "range_jump":
		candles = marketdata.GenerateRangeJump(cfg)
	default:
		return RunResult{}, fmt.Errorf("unknown regime %q", args.Regime)
	}

	if err := marketdata.SaveCandlesCSV(args.OutFile, candles); err != nil {
		return RunResult{}, err
	}

	return RunResult{Bars: len(candles)}, nil
}

func main() {
	runCmd.PersistentFlags().String("out", "", "The csv file to write the candles to.")
	runCmd.PersistentFlags().String("symbol", "SYN", "Symbol label for the generated series.")
	runCmd.PersistentFlags().String("timeframe", "1h", "Bar timeframe, e.g. 15m, 1h, 1d.")
	runCmd.PersistentFlags().String("start", "", "Timestamp of the first bar, e.g. 2020-01-01.")
	runCmd.PersistentFlags().Int("bars", 1000, "Number of bars to generate.")
	runCmd.PersistentFlags().Float64("initialPrice", 1000, "Price of the first bar.")
	runCmd.PersistentFlags().Int64("seed", 0, "Seed for the generator; equal seeds reproduce the series.")
	runCmd.PersistentFlags().String("regime", "drift", "Price regime: drift or range_jump.")
	runCmd.PersistentFlags().Float64("drift", 0.5, "Close-to-close drift per bar (drift regime).")
	runCmd.PersistentFlags().Float64("noise", 1.0, "Gaussian noise magnitude around the drift path.")
	runCmd.PersistentFlags().Float64("rangeWidth", 200, "Width of the trading band (range_jump regime).")
	runCmd.PersistentFlags().Float64("jumpSize", 200, "Band displacement on a jump (range_jump regime).")
	runCmd.PersistentFlags().Int("jumpEvery", 24, "Bars between jumps (range_jump regime).")
	runCmd.PersistentFlags().Float64("probabilityUp", 0.60, "Probability a jump moves the band up.")

	runCmd.MarkPersistentFlagRequired("out")

	runCmd.Execute()
}
