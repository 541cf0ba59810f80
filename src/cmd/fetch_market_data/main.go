package main

import (
	"context"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jiaming2012/strategy-lab/src/marketdata"
	"github.com/jiaming2012/strategy-lab/src/utils"
)

type RunArgs struct {
	Symbol    string
	Timeframe string
	From      string
	To        string
	OutDir    string
}

type RunResult struct {
	OutFile string
	Bars    int
}

var runCmd = &cobra.Command{
	Use:   "go run src/cmd/fetch_market_data/main.go --symbol COIN --timeframe 15m --from 2024-01-01 --to 2024-06-01",
	Short: "Fetch aggregate bars from polygon.io and write them as a candle csv",
	Run: func(cmd *cobra.Command, args []string) {
		runArgs := RunArgs{}
		var err error

		if runArgs.Symbol, err = cmd.Flags().GetString("symbol"); err != nil {
			log.Fatalf("error getting symbol: %v", err)
		}

		if runArgs.Timeframe, err = cmd.Flags().GetString("timeframe"); err != nil {
			log.Fatalf("error getting timeframe: %v", err)
		}

		if runArgs.From, err = cmd.Flags().GetString("from"); err != nil {
			log.Fatalf("error getting from: %v", err)
		}

		if runArgs.To, err = cmd.Flags().GetString("to"); err != nil {
			log.Fatalf("error getting to: %v", err)
		}

		if runArgs.OutDir, err = cmd.Flags().GetString("outDir"); err != nil {
			log.Fatalf("error getting outDir: %v", err)
		}

		result, err := Run(runArgs)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		log.Infof("wrote %d candles to %s", result.Bars, result.OutFile)
	},
}

func Run(args RunArgs) (RunResult, error) {
	if err := utils.InitEnvironmentVariables(); err != nil {
		log.Debugf("skipping env file: %v", err)
	}

	apiKey := os.Getenv("POLYGON_API_KEY")
	if apiKey == "" {
		return RunResult{}, fmt.Errorf("missing POLYGON_API_KEY environment variable")
	}

	timeframe, err := utils.ParseTimeframe(args.Timeframe)
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to parse timeframe: %v", err)
	}

	from, err := time.Parse("2006-01-02", args.From)
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to parse from: %v", err)
	}

	to := time.Now().UTC()
	if args.To != "" {
		to, err = time.Parse("2006-01-02", args.To)
		if err != nil {
			return RunResult{}, fmt.Errorf("failed to parse to: %v", err)
		}
	}

	feed := marketdata.NewPolygonFeed(apiKey)

	candles, err := feed.Fetch(context.Background(), args.Symbol, timeframe, from, to)
	if err != nil {
		return RunResult{}, err
	}

	if len(candles) == 0 {
		return RunResult{}, fmt.Errorf("no candles returned for %s between %s and %s", args.Symbol, args.From, args.To)
	}

	if err := os.MkdirAll(args.OutDir, 0755); err != nil {
		return RunResult{}, fmt.Errorf("failed to create out dir %s: %w", args.OutDir, err)
	}

	// written where the csv feed expects to find it
	outFile := marketdata.NewCSVFeed(args.OutDir).FilePath(args.Symbol, timeframe)

	if err := marketdata.SaveCandlesCSV(outFile, candles); err != nil {
		return RunResult{}, err
	}

	return RunResult{OutFile: outFile, Bars: len(candles)}, nil
}

func main() {
	runCmd.PersistentFlags().String("symbol", "", "Ticker symbol to fetch.")
	runCmd.PersistentFlags().String("timeframe", "1h", "Bar timeframe, e.g. 15m, 1h, 1d.")
	runCmd.PersistentFlags().String("from", "", "Start date, e.g. 2024-01-01.")
	runCmd.PersistentFlags().String("to", "", "End date, exclusive; defaults to now.")
	runCmd.PersistentFlags().String("outDir", "data", "The directory to write the candle csv to.")

	runCmd.MarkPersistentFlagRequired("symbol")
	runCmd.MarkPersistentFlagRequired("from")

	runCmd.Execute()
}
