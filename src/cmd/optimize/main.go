package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jiaming2012/strategy-lab/src/backtest"
	"github.com/jiaming2012/strategy-lab/src/eventpubsub"
	"github.com/jiaming2012/strategy-lab/src/marketdata"
	"github.com/jiaming2012/strategy-lab/src/optimizer"
	"github.com/jiaming2012/strategy-lab/src/registry"
	"github.com/jiaming2012/strategy-lab/src/reward"
	"github.com/jiaming2012/strategy-lab/src/strategy"
	"github.com/jiaming2012/strategy-lab/src/utils"
)

type DataConfigYAML struct {
	Source       string  `yaml:"source"`
	Dir          string  `yaml:"dir"`
	From         string  `yaml:"from"`
	To           string  `yaml:"to"`
	Bars         int     `yaml:"bars"`
	InitialPrice float64 `yaml:"initialPrice"`
	DriftPerBar  float64 `yaml:"driftPerBar"`
	Noise        float64 `yaml:"noise"`
	Seed         int64   `yaml:"seed"`
}

type RegistryConfigYAML struct {
	Capacity int    `yaml:"capacity"`
	Store    string `yaml:"store"`
	Path     string `yaml:"path"`
}

type RunConfigYAML struct {
	Symbol         string                   `yaml:"symbol"`
	Timeframe      string                   `yaml:"timeframe"`
	InitialCapital float64                  `yaml:"initialCapital"`
	Evaluator      string                   `yaml:"evaluator"`
	Data           DataConfigYAML           `yaml:"data"`
	Execution      backtest.ExecutionConfig `yaml:"execution"`
	Registry       RegistryConfigYAML       `yaml:"registry"`
	Optimizer      optimizer.Config         `yaml:"optimizer"`
}

type RunArgs struct {
	ConfigInFile string
	OutDir       string
}

type RunResult struct {
	ReportOutFile string
	GraphOutFile  string
}

var runCmd = &cobra.Command{
	Use:   "go run src/cmd/optimize/main.go --config optimize.yaml --outDir results",
	Short: "Search strategy-graph space against one candle series",
	Run: func(cmd *cobra.Command, args []string) {
		configInFile, err := cmd.Flags().GetString("config")
		if err != nil {
			log.Fatalf("error getting config: %v", err)
		}

		outDir, err := cmd.Flags().GetString("outDir")
		if err != nil {
			log.Fatalf("error getting outDir: %v", err)
		}

		result, err := Run(RunArgs{
			ConfigInFile: configInFile,
			OutDir:       outDir,
		})

		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		log.Infof("report written to %s", result.ReportOutFile)

		if result.GraphOutFile != "" {
			log.Infof("best graph written to %s", result.GraphOutFile)
		}
	},
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	return time.Parse("2006-01-02", value)
}

func loadSeries(ctx context.Context, cfg RunConfigYAML, timeframe time.Duration) (*marketdata.CandleSeries, error) {
	from, err := parseDate(cfg.Data.From)
	if err != nil {
		return nil, fmt.Errorf("failed to parse data.from: %v", err)
	}

	to, err := parseDate(cfg.Data.To)
	if err != nil {
		return nil, fmt.Errorf("failed to parse data.to: %v", err)
	}

	switch cfg.Data.Source {
	case "csv", "":
		feed := marketdata.NewCSVFeed(cfg.Data.Dir)
		return marketdata.FetchSeries(ctx, feed, cfg.Symbol, timeframe, from, to)

	case "polygon":
		apiKey := os.Getenv("POLYGON_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("missing POLYGON_API_KEY environment variable")
		}

		feed := marketdata.NewPolygonFeed(apiKey)
		return marketdata.FetchSeries(ctx, feed, cfg.Symbol, timeframe, from, to)

	case "synthetic":
		candles := marketdata.GenerateDrift(marketdata.SyntheticConfig{
			Symbol:       cfg.Symbol,
			Timeframe:    timeframe,
			Bars:         cfg.Data.Bars,
			InitialPrice: cfg.Data.InitialPrice,
			DriftPerBar:  cfg.Data.DriftPerBar,
			Noise:        cfg.Data.Noise,
			Seed:         cfg.Data.Seed,
		})

		return marketdata.NewCandleSeries(cfg.Symbol, timeframe, candles)

	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.Data.Source)
	}
}

func openRegistry(cfg RegistryConfigYAML) (*registry.Registry, func(), error) {
	noop := func() {}

	switch cfg.Store {
	case "memory", "":
		reg, err := registry.NewRegistry(cfg.Capacity, nil)
		if err != nil {
			return nil, noop, err
		}

		return reg, noop, nil

	case "file":
		store, err := registry.NewFileStore(cfg.Path)
		if err != nil {
			return nil, noop, err
		}

		reg, err := registry.NewRegistry(cfg.Capacity, store)
		if err != nil {
			store.Close()
			return nil, noop, err
		}

		return reg, func() { store.Close() }, nil

	case "postgres":
		url := os.Getenv("DATABASE_URL")
		if url == "" {
			return nil, noop, fmt.Errorf("missing DATABASE_URL environment variable")
		}

		store, err := registry.NewGormStoreWithUrl(url)
		if err != nil {
			return nil, noop, err
		}

		reg, err := registry.NewRegistry(cfg.Capacity, store)
		if err != nil {
			return nil, noop, err
		}

		return reg, noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown registry store %q", cfg.Store)
	}
}

func Run(args RunArgs) (RunResult, error) {
	if err := utils.InitEnvironmentVariables(); err != nil {
		log.Debugf("skipping env file: %v", err)
	}

	data, err := os.ReadFile(args.ConfigInFile)
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to read config: %v", err)
	}

	var cfg RunConfigYAML
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return RunResult{}, fmt.Errorf("failed to unmarshal config %s: %v", args.ConfigInFile, err)
	}

	timeframe, err := utils.ParseTimeframe(cfg.Timeframe)
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to parse timeframe: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	signal.Notify(stop, syscall.SIGTERM)

	go func() {
		<-stop
		log.Warn("interrupt received, stopping after the current generation")
		cancel()
	}()

	series, err := loadSeries(ctx, cfg, timeframe)
	if err != nil {
		return RunResult{}, err
	}

	exec, err := backtest.NewExecutionModel(cfg.Execution)
	if err != nil {
		return RunResult{}, err
	}

	evaluator, err := reward.ForName(cfg.Evaluator)
	if err != nil {
		return RunResult{}, err
	}

	reg, closeStore, err := openRegistry(cfg.Registry)
	if err != nil {
		return RunResult{}, err
	}
	defer closeStore()

	restored, err := reg.Restore()
	if err != nil {
		return RunResult{}, err
	}

	if restored > 0 {
		log.Infof("restored %d registry entries", restored)
	}

	if err := eventpubsub.Subscribe("optimize", eventpubsub.GenerationCompletedEvent, func(event eventpubsub.GenerationCompleted) {
		log.WithFields(log.Fields{
			"generation":  event.Generation,
			"evaluated":   event.Evaluated,
			"cacheHits":   event.CacheHits,
			"bestFitness": event.BestFitness,
		}).Info("generation completed")
	}); err != nil {
		return RunResult{}, err
	}

	opt, err := optimizer.NewOptimizer(cfg.Optimizer, series, exec, cfg.InitialCapital, evaluator, reg)
	if err != nil {
		return RunResult{}, err
	}

	report, err := opt.Run(ctx)
	if err != nil {
		return RunResult{}, err
	}

	eventpubsub.WaitAsync()

	fmt.Println(report.String())

	if err := os.MkdirAll(args.OutDir, 0755); err != nil {
		return RunResult{}, fmt.Errorf("failed to create out dir %s: %w", args.OutDir, err)
	}

	result := RunResult{
		ReportOutFile: filepath.Join(args.OutDir, "report.json"),
	}

	if err := optimizer.SaveReportJSON(result.ReportOutFile, report); err != nil {
		return RunResult{}, err
	}

	if graph, found := opt.GraphByID(report.Best.GraphID); found {
		result.GraphOutFile = filepath.Join(args.OutDir, "best_graph.yaml")

		if err := strategy.SaveGraphYAML(result.GraphOutFile, graph); err != nil {
			return RunResult{}, err
		}
	}

	return result, nil
}

func main() {
	runCmd.PersistentFlags().String("config", "", "Path to the optimizer run config yaml.")
	runCmd.PersistentFlags().String("outDir", "", "The directory to write the output to.")

	runCmd.MarkPersistentFlagRequired("config")
	runCmd.MarkPersistentFlagRequired("outDir")

	runCmd.Execute()
}
