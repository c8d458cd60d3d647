package research

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/researchmesh/agent"
	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/search"
	"github.com/hupe1980/researchmesh/tool"
)

// Researcher tool names.
const (
	SearchToolName = "SearchTool"
	ThinkToolName  = "ThinkTool"
)

type searchArgs struct {
	Query string `json:"query" minLength:"1" description:"Search keywords"`
}

type thinkArgs struct {
	Observations string `json:"observations" minLength:"1" description:"Observations and findings so far"`
}

type researcherThought struct {
	Analysis       string `json:"analysis" minLength:"1" description:"Assessment of the research so far"`
	NextAction     string `json:"nextAction" description:"Concrete next research action"`
	ShouldContinue bool   `json:"shouldContinue" description:"Whether more research is needed"`
}

type refinement struct {
	FinalSummary    string   `json:"finalSummary" minLength:"1" description:"Improved research summary"`
	Confidence      float64  `json:"confidence" minimum:"0" maximum:"1" description:"Confidence in the findings"`
	KeyFindings     []string `json:"keyFindings" description:"Key findings backed by evidence"`
	EvidenceQuality string   `json:"evidenceQuality" description:"Assessment of the supporting evidence"`
}

// researchNotice is the budget notice sent to a researcher over its search cap.
func researchNotice(_ string, limit int, completion string) string {
	return fmt.Sprintf("max search limit reached (%d), call %s immediately", limit, completion)
}

// Research runs one researcher loop on task and returns its findings. A loop
// that never completes yields DefaultFindings. Sources are the formatted
// results of every search the researcher ran.
func (a *Assistant) Research(ctx context.Context, task string) (Findings, error) {
	var (
		mu      sync.Mutex
		sources []string
	)

	searchTool := tool.NewTypedTool(SearchToolName, "Search the web for information on a query.",
		func(tc *core.ToolContext, args searchArgs) (any, error) {
			results, err := a.searcher.Search(tc.Context(), args.Query)
			if err != nil {
				return nil, err
			}

			mu.Lock()
			sources = append(sources, search.Sources(results)...)
			mu.Unlock()

			return search.Format(results), nil
		})

	thinkTool := tool.NewTypedTool(ThinkToolName, "Analyze the research so far and decide the next action.",
		func(tc *core.ToolContext, args thinkArgs) (any, error) {
			out, err := invoke[researcherThought](tc.Context(), a, researcherThinkPrompt,
				core.NewHumanMessage("Observations:\n"+args.Observations))
			if err != nil {
				return nil, err
			}

			return map[string]any{
				"analysis":       out.Analysis,
				"nextAction":     out.NextAction,
				"shouldContinue": out.ShouldContinue,
			}, nil
		})

	complete := tool.NewCompletionTool(
		tool.WithCompletionDescription("Call when the research is done. Provide a complete summary of the findings."),
		tool.WithRefiner(func(tc *core.ToolContext, summary string) (map[string]any, error) {
			out, err := invoke[refinement](tc.Context(), a, refinePrompt,
				core.NewHumanMessage("Research summary:\n"+summary))
			if err != nil {
				return nil, err
			}

			return map[string]any{
				"summary":         out.FinalSummary,
				"confidence":      out.Confidence,
				"keyFindings":     out.KeyFindings,
				"evidenceQuality": out.EvidenceQuality,
			}, nil
		}),
	)

	system, err := a.prompt(researcherPrompt, map[string]any{"max_search_calls": a.opts.MaxSearchCalls})
	if err != nil {
		return Findings{}, err
	}

	loop := agent.New(a.model, tool.MustRegistry(searchTool, thinkTool, complete), func(o *agent.Options) {
		o.Name = "researcher"
		o.MaxIterations = a.opts.MaxResearcherIterations
		o.ToolBudgets = map[string]int{SearchToolName: a.opts.MaxSearchCalls}
		o.Instructions = staticInstruction(system)
		o.Logger = a.opts.Logger
		o.BudgetNotice = researchNotice
	})

	res, err := loop.Run(ctx, []core.Message{core.NewHumanMessage(task)})
	if res == nil {
		return Findings{}, err
	}

	findings := Findings{Findings: res.Summary, Task: task}
	if findings.Findings == "" {
		findings.Findings = DefaultFindings
	}

	mu.Lock()
	findings.Sources = append([]string(nil), sources...)
	mu.Unlock()

	a.opts.Logger.Info("research.researcher.finished",
		"stop_reason", string(res.StopReason),
		"iterations", res.Iterations,
		"searches", res.ToolCalls[SearchToolName],
		"sources", len(findings.Sources),
	)

	return findings, err
}
