package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/researchmesh/agent"
	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/graph"
	"github.com/hupe1980/researchmesh/search"
	"github.com/hupe1980/researchmesh/state"
)

type queryOutput struct {
	Query     []string `json:"query" minItems:"1" description:"Search queries"`
	Rationale string   `json:"rationale" description:"Why these queries are relevant"`
}

type reflectionOutput struct {
	IsSufficient    bool     `json:"is_sufficient" description:"Whether the summaries answer the question"`
	KnowledgeGap    string   `json:"knowledge_gap,omitempty" description:"Missing information"`
	FollowUpQueries []string `json:"follow_up_queries,omitempty" description:"Queries addressing the gap"`
	Answer          string   `json:"answer,omitempty" description:"Answer grounded in the summaries"`
}

func (a *Assistant) generateQueryStage(ctx context.Context, view state.View) (graph.Directive, error) {
	topic := Topic(state.Value[[]core.Message](view, FieldMessages))

	system, err := a.prompt(queryWriterPrompt, map[string]any{
		"number_queries": a.opts.InitialQueryCount,
		"research_topic": topic,
	})
	if err != nil {
		return graph.Directive{}, err
	}

	out, err := invoke[queryOutput](ctx, a, system, core.NewHumanMessage(topic))
	if err != nil {
		return graph.Directive{}, err
	}

	queries := compact(out.Query)
	if len(queries) > a.opts.InitialQueryCount {
		queries = queries[:a.opts.InitialQueryCount]
	}

	if len(queries) == 0 {
		queries = []string{strings.TrimSpace(topic)}
	}

	a.opts.Logger.Info("research.queries.generated", "count", len(queries))

	return graph.Goto(StageWebSearch, state.Update{
		FieldResearchTopic: topic,
		FieldQueries:       queries,
	}), nil
}

// webSearchStage runs every pending query concurrently. A failed query is
// recorded with its error and does not fail the stage.
func (a *Assistant) webSearchStage(ctx context.Context, view state.View) (graph.Directive, error) {
	queries := state.Value[[]string](view, FieldQueries)

	outcomes := agent.FanOut(ctx, 0, queries, func(ctx context.Context, _ int, q string) ([]search.Result, error) {
		return a.searcher.Search(ctx, q)
	})

	if err := ctx.Err(); err != nil {
		return graph.Directive{}, err
	}

	results := make([]QueryResult, len(outcomes))
	for i, o := range outcomes {
		results[i] = QueryResult{Query: queries[i], Results: o.Value}
		if o.Err != nil {
			results[i].Error = o.Err.Error()
			a.opts.Logger.Warn("research.search.failed", "query", queries[i], "error", o.Err.Error())
		}
	}

	all := append(append([]QueryResult(nil), state.Value[[]QueryResult](view, FieldQueryResults)...), results...)

	return graph.Goto(StageReflection, state.Update{
		FieldQueryResults:     results,
		FieldWebSearchSummary: Summarize(all),
	}), nil
}

// reflectionStage loops back to web_search with follow-up queries until the
// summaries suffice or the loop cap is reached, then answers.
func (a *Assistant) reflectionStage(ctx context.Context, view state.View) (graph.Directive, error) {
	loops := state.Value[int](view, FieldResearchLoopCount)
	summary := state.Value[string](view, FieldWebSearchSummary)

	system, err := a.prompt(reflectionPrompt, map[string]any{
		"research_topic":      state.Value[string](view, FieldResearchTopic),
		"research_loop_count": loops,
		"max_research_loops":  a.opts.MaxResearchLoops,
		"web_search_summary":  summary,
	})
	if err != nil {
		return graph.Directive{}, err
	}

	out, err := invoke[reflectionOutput](ctx, a, system, core.NewHumanMessage("Reflect on the summaries and answer the research topic."))
	if err != nil {
		return graph.Directive{}, err
	}

	followUps := compact(out.FollowUpQueries)

	if out.IsSufficient || loops >= a.opts.MaxResearchLoops || len(followUps) == 0 {
		answer := out.Answer
		if answer == "" {
			answer = summary
		}
		if answer == "" {
			answer = DefaultFinalMessage
		}

		a.opts.Logger.Info("research.reflection.finished", "loops", loops, "sufficient", out.IsSufficient)

		return graph.Stop(state.Update{FieldMessages: core.NewAssistantMessage(answer)}), nil
	}

	a.opts.Logger.Info("research.reflection.follow_up", "loops", loops+1, "gap", out.KnowledgeGap)

	return graph.Goto(StageWebSearch, state.Update{
		FieldQueries:           followUps,
		FieldResearchLoopCount: loops + 1,
	}), nil
}

// Summarize renders query results as one text block per query.
func Summarize(results []QueryResult) string {
	blocks := make([]string, 0, len(results))

	for _, r := range results {
		body := search.Format(r.Results)
		if r.Error != "" {
			body = "search failed: " + r.Error
		}

		blocks = append(blocks, fmt.Sprintf("Query: %s\n%s", r.Query, body))
	}

	return strings.Join(blocks, "\n\n---\n\n")
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))

	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	return out
}
