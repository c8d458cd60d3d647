package research

import (
	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/state"
)

// State field names.
const (
	FieldMessages           = "messages"
	FieldSupervisorMessages = "supervisor_messages"
	FieldResearchBrief      = "research_brief"
	FieldResearchPlan       = "research_plan"
	FieldResearchFindings   = "research_findings"
	FieldResearchTopic      = "research_topic"
	FieldQueries            = "queries"
	FieldQueryResults       = "query_results"
	FieldWebSearchSummary   = "web_search_summary"
	FieldResearchLoopCount  = "research_loop_count"
)

// Schema declares the state shared by the supervisor and deep-search graphs.
var Schema = state.MustSchema(
	state.MessagesField(FieldMessages),
	state.MessagesField(FieldSupervisorMessages),
	state.ReplaceField(FieldResearchBrief, ""),
	state.ReplaceField(FieldResearchPlan, (*Plan)(nil)),
	state.AppendField(FieldResearchFindings, func() any { return []Findings{} }),
	state.ReplaceField(FieldResearchTopic, ""),
	state.ReplaceField(FieldQueries, []string(nil)),
	state.AppendField(FieldQueryResults, func() any { return []QueryResult{} }),
	state.ReplaceField(FieldWebSearchSummary, ""),
	state.ReplaceField(FieldResearchLoopCount, 0),
)

// Seed builds the initial update for a run from a human request.
func Seed(request string) state.Update {
	return state.Update{FieldMessages: []core.Message{core.NewHumanMessage(request)}}
}

// FinalAnswer returns the last assistant message of the run.
func FinalAnswer(v state.View) string {
	return core.LastAssistantText(state.Value[[]core.Message](v, FieldMessages))
}

// PlanOf returns the plan held in v, or nil.
func PlanOf(v state.View) *Plan {
	return state.Value[*Plan](v, FieldResearchPlan)
}

// FindingsOf returns the accumulated findings held in v.
func FindingsOf(v state.View) []Findings {
	return state.Value[[]Findings](v, FieldResearchFindings)
}
