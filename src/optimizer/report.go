package optimizer

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jiaming2012/strategy-lab/src/strategy"
)

const (
	ReasonBudget    = "budget"
	ReasonPlateau   = "plateau"
	ReasonCancelled = "cancelled"
)

const leaderboardSize = 10

// LeaderboardEntry is one row of the final ranking. Spec is attached when
// this run evaluated the graph itself; a registry restored from an earlier
// run may hold identities with no spec on hand.
type LeaderboardEntry struct {
	Rank      int                 `json:"rank"`
	GraphID   string              `json:"graphId"`
	Fitness   float64             `json:"fitness"`
	EvalCount int                 `json:"evalCount"`
	Spec      *strategy.GraphSpec `json:"spec,omitempty"`
}

// Report is the terminal summary of one optimizer run.
type Report struct {
	RunID       uuid.UUID          `json:"runId"`
	ConfigHash  string             `json:"configHash"`
	Reason      string             `json:"reason"`
	Generations int                `json:"generations"`
	Evaluations int                `json:"evaluations"`
	CacheHits   int                `json:"cacheHits"`
	Best        LeaderboardEntry   `json:"best"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// String renders the run summary and leaderboard as a terminal table.
func (r *Report) String() string {
	display := &strings.Builder{}
	p := message.NewPrinter(language.English)

	display.WriteString(fmt.Sprintf("Run %s terminated: %s after %d generations (%s simulations, %s cache hits)\n",
		r.RunID, r.Reason, r.Generations, p.Sprintf("%d", r.Evaluations), p.Sprintf("%d", r.CacheHits)))

	table := tablewriter.NewWriter(display)
	table.SetHeader([]string{"Rank", "Fitness", "Evals", "Strategy", "Graph ID"})
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetColumnSeparator("")

	for _, row := range r.Leaderboard {
		table.Append([]string{
			fmt.Sprintf("%d", row.Rank),
			fmt.Sprintf("%.4f", row.Fitness),
			fmt.Sprintf("%d", row.EvalCount),
			row.describe(),
			shortID(row.GraphID),
		})
	}

	table.Render()

	return display.String()
}

func (e LeaderboardEntry) describe() string {
	if e.Spec == nil {
		return "(restored identity)"
	}

	types := make([]string, 0, len(e.Spec.Signals))
	for _, s := range e.Spec.Signals {
		types = append(types, s.Type)
	}

	return fmt.Sprintf("%s / %s / %s", strings.Join(types, "+"), e.Spec.Sizing.Type, e.Spec.Risk.Type)
}

func shortID(id string) string {
	if len(id) <= 12 {
		return id
	}

	return id[:12]
}

func SaveReportJSON(outFile string, report *Report) error {
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %v", err)
	}

	if err := os.WriteFile(outFile, payload, 0644); err != nil {
		return fmt.Errorf("failed to write report %s: %v", outFile, err)
	}

	return nil
}
