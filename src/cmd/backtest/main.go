package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jiaming2012/strategy-lab/src/backtest"
	"github.com/jiaming2012/strategy-lab/src/marketdata"
	"github.com/jiaming2012/strategy-lab/src/reward"
	"github.com/jiaming2012/strategy-lab/src/strategy"
	"github.com/jiaming2012/strategy-lab/src/utils"
)

type RunArgs struct {
	GraphInFile   string
	CandlesInFile string
	Symbol        string
	Timeframe     string
	Capital       float64
	CommissionBps float64
	SlippageBps   float64
	MaxLeverage   float64
	Evaluator     string
	OutDir        string
}

type RunResult struct {
	Fitness       float64
	LedgerOutFile string
}

var runCmd = &cobra.Command{
	Use:   "go run src/cmd/backtest/main.go --graph graph.yaml --candles data/COIN_1h.csv",
	Short: "Simulate one strategy graph over a candle csv",
	Run: func(cmd *cobra.Command, args []string) {
		runArgs := RunArgs{}
		var err error

		if runArgs.GraphInFile, err = cmd.Flags().GetString("graph"); err != nil {
			log.Fatalf("error getting graph: %v", err)
		}

		if runArgs.CandlesInFile, err = cmd.Flags().GetString("candles"); err != nil {
			log.Fatalf("error getting candles: %v", err)
		}

		if runArgs.Symbol, err = cmd.Flags().GetString("symbol"); err != nil {
			log.Fatalf("error getting symbol: %v", err)
		}

		if runArgs.Timeframe, err = cmd.Flags().GetString("timeframe"); err != nil {
			log.Fatalf("error getting timeframe: %v", err)
		}

		if runArgs.Capital, err = cmd.Flags().GetFloat64("capital"); err != nil {
			log.Fatalf("error getting capital: %v", err)
		}

		if runArgs.CommissionBps, err = cmd.Flags().GetFloat64("commissionBps"); err != nil {
			log.Fatalf("error getting commissionBps: %v", err)
		}

		if runArgs.SlippageBps, err = cmd.Flags().GetFloat64("slippageBps"); err != nil {
			log.Fatalf("error getting slippageBps: %v", err)
		}

		if runArgs.MaxLeverage, err = cmd.Flags().GetFloat64("maxLeverage"); err != nil {
			log.Fatalf("error getting maxLeverage: %v", err)
		}

		if runArgs.Evaluator, err = cmd.Flags().GetString("evaluator"); err != nil {
			log.Fatalf("error getting evaluator: %v", err)
		}

		if runArgs.OutDir, err = cmd.Flags().GetString("outDir"); err != nil {
			log.Fatalf("error getting outDir: %v", err)
		}

		result, err := Run(runArgs)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		if result.LedgerOutFile != "" {
			log.Infof("ledger written to %s", result.LedgerOutFile)
		}
	},
}

func summarize(graph *strategy.Graph, result *backtest.SimulationResult, evaluatorName string) string {
	display := &strings.Builder{}
	p := message.NewPrinter(language.English)

	display.WriteString(fmt.Sprintf("Backtest of %s\n", graph))

	table := tablewriter.NewWriter(display)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetColumnSeparator("")

	d := result.Diagnostics

	table.Append([]string{"Bars", p.Sprintf("%d", d.Bars)})
	table.Append([]string{"Trades", p.Sprintf("%d", d.Trades)})
	table.Append([]string{"Clipped Bars", p.Sprintf("%d", d.ClippedBars)})
	table.Append([]string{"Final Equity", fmt.Sprintf("$%s", p.Sprintf("%.2f", d.FinalEquity))})
	table.Append([]string{"Total Return", fmt.Sprintf("%.2f%%", d.TotalReturn*100)})
	table.Append([]string{"Max Drawdown", fmt.Sprintf("%.2f%%", d.MaxDrawdown*100)})
	table.Append([]string{"Turnover", fmt.Sprintf("%.2fx", d.Turnover)})
	table.Append([]string{fmt.Sprintf("Fitness (%s)", evaluatorName), fmt.Sprintf("%.4f", result.Fitness)})

	table.Render()

	return display.String()
}

func Run(args RunArgs) (RunResult, error) {
	timeframe, err := utils.ParseTimeframe(args.Timeframe)
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to parse timeframe: %v", err)
	}

	candles, err := marketdata.LoadCandlesCSV(args.CandlesInFile)
	if err != nil {
		return RunResult{}, err
	}

	series, err := marketdata.NewCandleSeries(args.Symbol, timeframe, candles)
	if err != nil {
		return RunResult{}, err
	}

	graph, err := strategy.LoadGraphYAML(args.GraphInFile)
	if err != nil {
		return RunResult{}, err
	}

	exec, err := backtest.NewExecutionModel(backtest.ExecutionConfig{
		CommissionBps: args.CommissionBps,
		SlippageBps:   args.SlippageBps,
		MaxLeverage:   args.MaxLeverage,
	})
	if err != nil {
		return RunResult{}, err
	}

	result, err := backtest.Run(series, graph, exec, args.Capital)
	if err != nil {
		return RunResult{}, err
	}

	evaluator, err := reward.ForName(args.Evaluator)
	if err != nil {
		return RunResult{}, err
	}

	result.Fitness = evaluator.Score(result)

	evaluatorName := args.Evaluator
	if evaluatorName == "" {
		evaluatorName = reward.NameCalmar
	}

	fmt.Println(summarize(graph, result, evaluatorName))

	runResult := RunResult{Fitness: result.Fitness}

	if args.OutDir != "" {
		if err := os.MkdirAll(args.OutDir, 0755); err != nil {
			return RunResult{}, fmt.Errorf("failed to create out dir %s: %w", args.OutDir, err)
		}

		runResult.LedgerOutFile = filepath.Join(args.OutDir, "ledger.csv")

		if err := backtest.SaveLedgerCSV(runResult.LedgerOutFile, result.Ledger); err != nil {
			return RunResult{}, err
		}
	}

	return runResult, nil
}

func main() {
	runCmd.PersistentFlags().String("graph", "", "Path to the strategy graph yaml.")
	runCmd.PersistentFlags().String("candles", "", "Path to the candle csv file.")
	runCmd.PersistentFlags().String("symbol", "SYM", "Symbol label for the series.")
	runCmd.PersistentFlags().String("timeframe", "1h", "Timeframe of the candle csv, e.g. 15m, 1h, 1d.")
	runCmd.PersistentFlags().Float64("capital", 10000, "Initial account capital.")
	runCmd.PersistentFlags().Float64("commissionBps", 0, "Commission per trade, in basis points of notional.")
	runCmd.PersistentFlags().Float64("slippageBps", 0, "Slippage per unit of leverage traded, in basis points.")
	runCmd.PersistentFlags().Float64("maxLeverage", 1, "Leverage limit of the simulated account.")
	runCmd.PersistentFlags().String("evaluator", "", "Fitness evaluator: calmar or sharpe.")
	runCmd.PersistentFlags().String("outDir", "", "The directory to write the ledger csv to.")

	runCmd.MarkPersistentFlagRequired("graph")
	runCmd.MarkPersistentFlagRequired("candles")

	runCmd.Execute()
}
