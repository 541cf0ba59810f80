package optimizer

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/strategy-lab/src/backtest"
	"github.com/jiaming2012/strategy-lab/src/eventpubsub"
	"github.com/jiaming2012/strategy-lab/src/marketdata"
	"github.com/jiaming2012/strategy-lab/src/registry"
	"github.com/jiaming2012/strategy-lab/src/reward"
	"github.com/jiaming2012/strategy-lab/src/strategy"
	"github.com/jiaming2012/strategy-lab/src/utils"
)

// State names the phase the search loop is in.
type State string

const (
	StateSeeding    State = "SEEDING"
	StateEvaluating State = "EVALUATING"
	StateSelecting  State = "SELECTING"
	StateMutating   State = "MUTATING"
	StateTerminated State = "TERMINATED"
)

type candidate struct {
	graph   *strategy.Graph
	fitness float64
	cached  bool
}

// Optimizer searches strategy-graph space against one candle series. All
// randomness flows from the configured seed through a single rng, and
// evaluation results fold back in population order, so two runs with the
// same inputs find the same best identity regardless of worker count.
type Optimizer struct {
	cfg       Config
	series    *marketdata.CandleSeries
	exec      *backtest.ExecutionModel
	capital   float64
	evaluator reward.Evaluator
	registry  *registry.Registry

	rng         *rand.Rand
	values      *valueTable
	exploration float64
	state       State

	// graphs this run has seen, so leaderboard rows can carry specs
	archive map[string]*strategy.Graph

	evaluations int
	cacheHits   int
}

func NewOptimizer(cfg Config, series *marketdata.CandleSeries, exec *backtest.ExecutionModel, initialCapital float64, evaluator reward.Evaluator, reg *registry.Registry) (*Optimizer, error) {
	cfg = cfg.withDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if series == nil {
		return nil, fmt.Errorf("series must not be nil")
	}

	if exec == nil {
		return nil, fmt.Errorf("execution model must not be nil")
	}

	if initialCapital <= 0 {
		return nil, fmt.Errorf("initial capital must be positive, got %v", initialCapital)
	}

	if evaluator == nil {
		return nil, fmt.Errorf("evaluator must not be nil")
	}

	if reg == nil {
		return nil, fmt.Errorf("registry must not be nil")
	}

	return &Optimizer{
		cfg:         cfg,
		series:      series,
		exec:        exec,
		capital:     initialCapital,
		evaluator:   evaluator,
		registry:    reg,
		rng:         rand.New(rand.NewSource(cfg.Seed)),
		values:      newValueTable(cfg.LearningRate, cfg.DiscountFactor),
		exploration: cfg.ExplorationRate,
		state:       StateSeeding,
		archive:     make(map[string]*strategy.Graph),
	}, nil
}

func (o *Optimizer) State() State {
	return o.state
}

// GraphByID returns a graph this run evaluated, by identity.
func (o *Optimizer) GraphByID(id string) (*strategy.Graph, bool) {
	graph, found := o.archive[id]
	return graph, found
}

func (o *Optimizer) setState(state State) {
	o.state = state
	log.Debugf("optimizer state: %s", state)
}

// Run drives the loop until the generation budget, a fitness plateau or
// context cancellation. Cancellation is checked at phase boundaries only;
// in-flight simulations always complete.
func (o *Optimizer) Run(ctx context.Context) (*Report, error) {
	runID := uuid.New()

	configHash, err := utils.HashStruct(o.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to hash config: %v", err)
	}

	log.WithFields(log.Fields{
		"runId":       runID,
		"symbol":      o.series.Symbol(),
		"bars":        o.series.Len(),
		"population":  o.cfg.PopulationSize,
		"generations": o.cfg.Generations,
		"seed":        o.cfg.Seed,
	}).Info("optimizer run starting")

	o.setState(StateSeeding)

	population, err := o.seedPopulation()
	if err != nil {
		return nil, err
	}

	reason := ReasonBudget
	completed := 0

	var history []float64
	bestFitness := math.Inf(-1)
	haveBest := false

	for generation := 1; generation <= o.cfg.Generations; generation++ {
		if ctx.Err() != nil {
			reason = ReasonCancelled
			break
		}

		o.setState(StateEvaluating)

		evaluated, err := o.evaluatePopulation(population, generation)
		if err != nil {
			return nil, err
		}

		completed = generation

		o.setState(StateSelecting)

		ranked := rankCandidates(evaluated)

		genBest := ranked[0]
		if !haveBest || genBest.fitness > bestFitness {
			bestFitness = genBest.fitness
			haveBest = true

			eventpubsub.Publish("optimizer", eventpubsub.ChampionFoundEvent, eventpubsub.ChampionFound{
				RunID:      runID,
				Generation: generation,
				GraphID:    genBest.graph.Identity(),
				Fitness:    bestFitness,
			})

			log.WithFields(log.Fields{
				"generation": generation,
				"fitness":    bestFitness,
				"graph":      genBest.graph.String(),
			}).Info("new champion")
		}

		history = append(history, bestFitness)

		eventpubsub.Publish("optimizer", eventpubsub.GenerationCompletedEvent, eventpubsub.GenerationCompleted{
			RunID:       runID,
			Generation:  generation,
			Evaluated:   len(evaluated),
			CacheHits:   o.cacheHits,
			BestFitness: bestFitness,
			BestGraphID: genBest.graph.Identity(),
		})

		o.values.decay()

		if plateaued(history, o.cfg.PlateauWindow, o.cfg.PlateauEpsilon) {
			reason = ReasonPlateau
			break
		}

		if generation == o.cfg.Generations {
			break
		}

		if ctx.Err() != nil {
			reason = ReasonCancelled
			break
		}

		o.setState(StateMutating)

		population = o.nextGeneration(ranked)
		o.exploration *= o.cfg.ExplorationDecay
	}

	o.setState(StateTerminated)

	report := o.buildReport(runID, configHash, reason, completed)

	eventpubsub.Publish("optimizer", eventpubsub.RunTerminatedEvent, eventpubsub.RunTerminated{
		RunID:       runID,
		Reason:      reason,
		Generations: completed,
		BestFitness: report.Best.Fitness,
		BestGraphID: report.Best.GraphID,
	})

	log.WithFields(log.Fields{
		"reason":      reason,
		"generations": completed,
		"evaluations": o.evaluations,
		"cacheHits":   o.cacheHits,
		"bestFitness": report.Best.Fitness,
	}).Info("optimizer run terminated")

	return report, nil
}

func (o *Optimizer) seedPopulation() ([]*strategy.Graph, error) {
	population := make([]*strategy.Graph, 0, o.cfg.PopulationSize)

	for len(population) < o.cfg.PopulationSize {
		graph, err := randomGraph(o.rng)
		if err != nil {
			return nil, fmt.Errorf("failed to seed population: %v", err)
		}

		population = append(population, graph)
	}

	log.Debugf("seeded %d graphs", len(population))

	return population, nil
}

// evaluatePopulation scores every graph. Registry hits return without
// re-simulation; misses run concurrently on a semaphore-bounded pool and
// fold back in population order. A storage failure surfaces; a candidate
// failure does not.
func (o *Optimizer) evaluatePopulation(population []*strategy.Graph, generation int) ([]candidate, error) {
	results := make([]candidate, len(population))

	type job struct {
		idx   int
		graph *strategy.Graph
	}

	var jobs []job

	for i, graph := range population {
		o.archive[graph.Identity()] = graph

		if entry, found := o.registry.Lookup(graph.Identity()); found {
			results[i] = candidate{graph: graph, fitness: entry.BestFitness, cached: true}
			o.cacheHits++
			continue
		}

		jobs = append(jobs, job{idx: i, graph: graph})
	}

	semaphore := make(chan struct{}, o.cfg.Workers)
	var wg sync.WaitGroup

	for _, j := range jobs {
		wg.Add(1)

		go func(idx int, graph *strategy.Graph) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			results[idx] = candidate{graph: graph, fitness: o.evaluateGraph(graph)}
		}(j.idx, j.graph)
	}

	wg.Wait()

	for i := range results {
		if !results[i].cached {
			o.evaluations++

			if _, err := o.registry.Record(results[i].graph.Identity(), results[i].fitness, generation); err != nil {
				return nil, err
			}
		}

		// cached scores reinforce their family the same as fresh ones,
		// so a warm registry does not change how the search unfolds
		if results[i].fitness > WorstFitness/2 {
			o.values.update(results[i].graph.Family(), results[i].fitness)
		}
	}

	return results, nil
}

// evaluateGraph runs one simulation and scores it. Failures of a single
// candidate are contained as worst-case fitness, never an abort.
func (o *Optimizer) evaluateGraph(graph *strategy.Graph) float64 {
	result, err := backtest.Run(o.series, graph, o.exec, o.capital)
	if err != nil {
		log.Debugf("candidate %s scored worst case: %v", graph, err)
		return WorstFitness
	}

	fitness := o.evaluator.Score(result)
	if math.IsNaN(fitness) || math.IsInf(fitness, 0) {
		return WorstFitness
	}

	result.Fitness = fitness

	return fitness
}

// rankCandidates orders by fitness descending with identity as the
// tie-break, so equal fitness ranks the same way on every run.
func rankCandidates(candidates []candidate) []candidate {
	ranked := make([]candidate, len(candidates))
	copy(ranked, candidates)

	sort.SliceStable(ranked, func(a, b int) bool {
		if ranked[a].fitness != ranked[b].fitness {
			return ranked[a].fitness > ranked[b].fitness
		}

		return ranked[a].graph.Identity() < ranked[b].graph.Identity()
	})

	return ranked
}

// nextGeneration keeps the elite unchanged and breeds the rest from
// tournament-selected parents. Tournament scores blend own fitness with
// family reputation, weighted by the current exploration rate.
func (o *Optimizer) nextGeneration(ranked []candidate) []*strategy.Graph {
	eliteCount := int(o.cfg.EliteFraction * float64(o.cfg.PopulationSize))
	if eliteCount < 2 {
		eliteCount = 2
	}

	if eliteCount > len(ranked) {
		eliteCount = len(ranked)
	}

	elite := ranked[:eliteCount]

	population := make([]*strategy.Graph, 0, o.cfg.PopulationSize)
	for _, c := range elite {
		population = append(population, c.graph)
	}

	score := func(c candidate) float64 {
		return c.fitness + o.exploration*o.values.value(c.graph.Family())
	}

	for len(population) < o.cfg.PopulationSize {
		parent := tournamentSelect(o.rng, elite, o.cfg.TournamentSize, score)

		child := parent.graph
		if o.rng.Float64() < o.cfg.CrossoverRate {
			mate := tournamentSelect(o.rng, elite, o.cfg.TournamentSize, score)
			child = crossoverGraphs(o.rng, child, mate.graph)
		}

		population = append(population, mutateGraph(o.rng, child, o.exploration))
	}

	return population
}

// plateaued reports whether the best fitness improved by more than epsilon
// over the trailing window of generations.
func plateaued(history []float64, window int, epsilon float64) bool {
	if window <= 0 || len(history) <= window {
		return false
	}

	latest := history[len(history)-1]
	anchor := history[len(history)-1-window]

	return latest-anchor <= epsilon
}

func (o *Optimizer) buildReport(runID uuid.UUID, configHash, reason string, generations int) *Report {
	entries := o.registry.Entries()

	sort.SliceStable(entries, func(a, b int) bool {
		if entries[a].BestFitness != entries[b].BestFitness {
			return entries[a].BestFitness > entries[b].BestFitness
		}

		return entries[a].GraphID < entries[b].GraphID
	})

	size := leaderboardSize
	if size > len(entries) {
		size = len(entries)
	}

	leaderboard := make([]LeaderboardEntry, 0, size)
	for i := 0; i < size; i++ {
		leaderboard = append(leaderboard, o.leaderboardEntry(i+1, entries[i]))
	}

	report := &Report{
		RunID:       runID,
		ConfigHash:  configHash,
		Reason:      reason,
		Generations: generations,
		Evaluations: o.evaluations,
		CacheHits:   o.cacheHits,
		Leaderboard: leaderboard,
	}

	if len(leaderboard) > 0 {
		report.Best = leaderboard[0]
	}

	return report
}

func (o *Optimizer) leaderboardEntry(rank int, entry registry.Entry) LeaderboardEntry {
	row := LeaderboardEntry{
		Rank:      rank,
		GraphID:   entry.GraphID,
		Fitness:   entry.BestFitness,
		EvalCount: entry.EvalCount,
	}

	if graph, found := o.archive[entry.GraphID]; found {
		spec := graph.Spec()
		row.Spec = &spec
	}

	return row
}
