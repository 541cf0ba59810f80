package optimizer

import (
	"fmt"
)

// WorstFitness is the score assigned to candidates whose construction or
// simulation failed. Low enough that no real strategy scores below it,
// high enough that float arithmetic on it stays finite.
const WorstFitness = -1e30

// Config drives the search loop. Every knob is explicit: nothing changes
// its own value at runtime except the exploration rate, and that only
// through the configured decay.
type Config struct {
	PopulationSize   int     `yaml:"populationSize" json:"populationSize"`
	Generations      int     `yaml:"generations" json:"generations"`
	EliteFraction    float64 `yaml:"eliteFraction" json:"eliteFraction"`
	TournamentSize   int     `yaml:"tournamentSize" json:"tournamentSize"`
	CrossoverRate    float64 `yaml:"crossoverRate" json:"crossoverRate"`
	ExplorationRate  float64 `yaml:"explorationRate" json:"explorationRate"`
	ExplorationDecay float64 `yaml:"explorationDecay" json:"explorationDecay"`
	LearningRate     float64 `yaml:"learningRate" json:"learningRate"`
	DiscountFactor   float64 `yaml:"discountFactor" json:"discountFactor"`
	PlateauWindow    int     `yaml:"plateauWindow" json:"plateauWindow"`
	PlateauEpsilon   float64 `yaml:"plateauEpsilon" json:"plateauEpsilon"`
	Workers          int     `yaml:"workers" json:"workers"`
	Seed             int64   `yaml:"seed" json:"seed"`
}

func (cfg Config) withDefaults() Config {
	if cfg.PopulationSize == 0 {
		cfg.PopulationSize = 48
	}

	if cfg.Generations == 0 {
		cfg.Generations = 30
	}

	if cfg.EliteFraction == 0 {
		cfg.EliteFraction = 0.25
	}

	if cfg.TournamentSize == 0 {
		cfg.TournamentSize = 4
	}

	if cfg.CrossoverRate == 0 {
		cfg.CrossoverRate = 0.5
	}

	if cfg.ExplorationRate == 0 {
		cfg.ExplorationRate = 0.3
	}

	if cfg.ExplorationDecay == 0 {
		cfg.ExplorationDecay = 0.95
	}

	if cfg.LearningRate == 0 {
		cfg.LearningRate = 0.2
	}

	if cfg.DiscountFactor == 0 {
		cfg.DiscountFactor = 0.99
	}

	if cfg.PlateauWindow == 0 {
		cfg.PlateauWindow = 8
	}

	if cfg.PlateauEpsilon == 0 {
		cfg.PlateauEpsilon = 1e-6
	}

	if cfg.Workers == 0 {
		cfg.Workers = 4
	}

	return cfg
}

func (cfg Config) validate() error {
	if cfg.PopulationSize < 2 {
		return fmt.Errorf("population size must be at least 2, got %d", cfg.PopulationSize)
	}

	if cfg.Generations < 1 {
		return fmt.Errorf("generations must be at least 1, got %d", cfg.Generations)
	}

	if cfg.EliteFraction <= 0 || cfg.EliteFraction > 1 {
		return fmt.Errorf("elite fraction must be in (0, 1], got %v", cfg.EliteFraction)
	}

	if cfg.TournamentSize < 1 {
		return fmt.Errorf("tournament size must be at least 1, got %d", cfg.TournamentSize)
	}

	if cfg.CrossoverRate < 0 || cfg.CrossoverRate > 1 {
		return fmt.Errorf("crossover rate must be in [0, 1], got %v", cfg.CrossoverRate)
	}

	if cfg.ExplorationRate < 0 || cfg.ExplorationRate > 1 {
		return fmt.Errorf("exploration rate must be in [0, 1], got %v", cfg.ExplorationRate)
	}

	if cfg.ExplorationDecay <= 0 || cfg.ExplorationDecay > 1 {
		return fmt.Errorf("exploration decay must be in (0, 1], got %v", cfg.ExplorationDecay)
	}

	if cfg.LearningRate <= 0 || cfg.LearningRate > 1 {
		return fmt.Errorf("learning rate must be in (0, 1], got %v", cfg.LearningRate)
	}

	if cfg.DiscountFactor <= 0 || cfg.DiscountFactor > 1 {
		return fmt.Errorf("discount factor must be in (0, 1], got %v", cfg.DiscountFactor)
	}

	if cfg.PlateauWindow < 0 {
		return fmt.Errorf("plateau window must not be negative, got %d", cfg.PlateauWindow)
	}

	if cfg.PlateauEpsilon < 0 {
		return fmt.Errorf("plateau epsilon must not be negative, got %v", cfg.PlateauEpsilon)
	}

	if cfg.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}

	return nil
}
