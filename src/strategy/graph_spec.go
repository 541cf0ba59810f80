package strategy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// GraphSpec is the serializable form of a graph, used by config files, the
// backtest cmd and optimizer reports.
type GraphSpec struct {
	Reducer string      `yaml:"reducer,omitempty" json:"reducer,omitempty"`
	Signals []BlockSpec `yaml:"signals" json:"signals"`
	Sizing  BlockSpec   `yaml:"sizing" json:"sizing"`
	Risk    BlockSpec   `yaml:"risk" json:"risk"`
}

func (s GraphSpec) Compose() (*Graph, error) {
	return Compose(s.Signals, s.Sizing, s.Risk, s.Reducer)
}

func (g *Graph) Spec() GraphSpec {
	return GraphSpec{
		Reducer: g.reducer,
		Signals: g.Signals(),
		Sizing:  g.Sizing(),
		Risk:    g.Risk(),
	}
}

func LoadGraphYAML(inFile string) (*Graph, error) {
	data, err := os.ReadFile(inFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %v", err)
	}

	var spec GraphSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph file %s: %v", inFile, err)
	}

	graph, err := spec.Compose()
	if err != nil {
		return nil, fmt.Errorf("failed to compose graph from %s: %w", inFile, err)
	}

	return graph, nil
}

func SaveGraphYAML(outFile string, g *Graph) error {
	data, err := yaml.Marshal(g.Spec())
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %v", err)
	}

	if err := os.WriteFile(outFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write graph file %s: %v", outFile, err)
	}

	return nil
}
