package research

import (
	"encoding/json"

	"github.com/hupe1980/researchmesh/search"
)

// DefaultFindings stands in for the findings of a researcher that never
// completed.
const DefaultFindings = "research incomplete"

// DefaultFinalMessage is the supervisor answer when no summary was produced.
const DefaultFinalMessage = "research flow ended"

// Findings is the outcome of one delegated research unit.
type Findings struct {
	Findings  string   `json:"findings"`
	Sources   []string `json:"sources,omitempty"`
	Task      string   `json:"task"`
	StepIndex int      `json:"stepIndex"`
	StepTitle string   `json:"stepTitle,omitempty"`
}

// QueryResult holds the results of one deep-search query.
type QueryResult struct {
	Query   string          `json:"query"`
	Results []search.Result `json:"results,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// toMap converts a struct into its generic JSON object form.
func toMap(v any) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}

	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil || m == nil {
		return map[string]any{}
	}

	return m
}
