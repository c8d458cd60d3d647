package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/researchmesh/agent"
	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/graph"
	"github.com/hupe1980/researchmesh/state"
	"github.com/hupe1980/researchmesh/tool"
)

// Supervisor tool names.
const (
	PlanToolName            = "PlanTool"
	ConductResearchToolName = "ConductResearch"
)

// ConductResearch actions.
const (
	ActionResearchCompleted = "research_completed"
	ActionAllStepsCompleted = "all_steps_completed"
	ActionError             = "error"
)

type conductArgs struct {
	Parallel int `json:"parallel,omitempty" minimum:"1" description:"Number of pending steps to research at once"`
}

type supervisorThought struct {
	Analysis       string `json:"analysis" minLength:"1" description:"Assessment of the findings so far"`
	NextTask       string `json:"nextTask" description:"Next research task to delegate"`
	ShouldContinue bool   `json:"shouldContinue" description:"Whether more research should be delegated"`
}

// supervisorTools builds the supervisor registry. The tools read and stage
// into the working store of the supervisor loop.
func (a *Assistant) supervisorTools() *tool.Registry {
	planTool := tool.NewFunctionTool(PlanToolName, "Generate a step-by-step research plan from the research brief.", nil, a.planTool)

	conduct := tool.NewTypedTool(ConductResearchToolName, "Research the next pending plan step with a dedicated researcher.", a.conductResearch)

	think := tool.NewTypedTool(ThinkToolName, "Reflect on the research findings and decide the next task.",
		func(tc *core.ToolContext, args thinkArgs) (any, error) {
			out, err := invoke[supervisorThought](tc.Context(), a, supervisorThinkPrompt,
				core.NewHumanMessage("Research observations:\n"+args.Observations))
			if err != nil {
				return nil, err
			}

			return map[string]any{
				"analysis":       out.Analysis,
				"nextTask":       out.NextTask,
				"shouldContinue": out.ShouldContinue,
			}, nil
		})

	complete := tool.NewCompletionTool(
		tool.WithCompletionDescription("Call when the research is complete. The summary is the final answer to the user."),
	)

	return tool.MustRegistry(planTool, conduct, think, complete)
}

func (a *Assistant) planTool(tc *core.ToolContext, _ map[string]any) (any, error) {
	brief, _ := tc.GetState(FieldResearchBrief)
	text, _ := brief.(string)

	if strings.TrimSpace(text) == "" {
		return map[string]any{"error": "research brief is empty, cannot generate a plan"}, nil
	}

	out, err := invoke[planOutput](tc.Context(), a, planPrompt, core.NewHumanMessage("Research brief:\n"+text))
	if err != nil {
		return nil, err
	}

	plan, err := NewPlan(out.PlanText, out.Steps)
	if err != nil {
		return nil, err
	}

	if err := tc.UpdateState(FieldResearchPlan, plan); err != nil {
		return nil, err
	}

	tc.LogInfo("research.plan.created", "steps", len(plan.Steps))

	return map[string]any{
		"planText":         plan.PlanText,
		"steps":            plan.Steps,
		"currentStepIndex": plan.CurrentStepIndex,
	}, nil
}

// conductResearch delegates pending steps to researchers. Up to
// MaxConcurrentResearchUnits steps run at once; the cursor advances over the
// successful prefix and only that prefix's findings are staged.
func (a *Assistant) conductResearch(tc *core.ToolContext, args conductArgs) (any, error) {
	raw, _ := tc.GetState(FieldResearchPlan)
	plan, _ := raw.(*Plan)

	if plan == nil {
		return map[string]any{"action": ActionError, "error": ErrNoPlan.Error() + ", call " + PlanToolName + " first"}, nil
	}

	if plan.Exhausted() {
		return map[string]any{
			"action":         ActionAllStepsCompleted,
			"message":        ErrPlanExhausted.Error(),
			"completedSteps": len(plan.Steps),
		}, nil
	}

	n := min(max(args.Parallel, 1), a.opts.MaxConcurrentResearchUnits)
	pending := plan.Pending(n)
	start := plan.CurrentStepIndex

	outcomes := agent.FanOut(tc.Context(), n, pending, func(ctx context.Context, i int, step Step) (Findings, error) {
		f, err := a.Research(ctx, plan.Task(start+i))
		f.StepIndex = start + i
		f.StepTitle = step.Title

		return f, err
	})

	var (
		prefix  []Findings
		entries []map[string]any
		inOrder = true
	)

	for _, o := range outcomes {
		idx := start + o.Index

		if o.Err != nil {
			inOrder = false
			entries = append(entries, map[string]any{
				"action":    ActionError,
				"stepIndex": idx,
				"stepTitle": plan.Steps[idx].Title,
				"error":     o.Err.Error(),
			})
			tc.LogWarn("research.step.failed", "step", idx, "error", o.Err.Error())

			continue
		}

		if inOrder {
			prefix = append(prefix, o.Value)
		}

		entries = append(entries, map[string]any{
			"action":    ActionResearchCompleted,
			"stepIndex": idx,
			"stepTitle": o.Value.StepTitle,
			"findings":  o.Value.Findings,
			"sources":   o.Value.Sources,
		})
	}

	if len(prefix) > 0 {
		next := plan.Clone()
		if err := next.AdvanceBy(len(prefix)); err != nil {
			return nil, err
		}

		if err := tc.UpdateState(FieldResearchPlan, next); err != nil {
			return nil, err
		}

		if err := tc.UpdateState(FieldResearchFindings, prefix); err != nil {
			return nil, err
		}

		plan = next
	}

	tc.LogInfo("research.steps.conducted", "requested", len(pending), "completed", len(prefix), "cursor", plan.CurrentStepIndex)

	if len(entries) == 1 {
		entry := entries[0]
		entry["remainingSteps"] = len(plan.Steps) - plan.CurrentStepIndex

		return entry, nil
	}

	action := ActionResearchCompleted
	if len(prefix) == 0 {
		action = ActionError
	}

	return map[string]any{
		"action":         action,
		"results":        entries,
		"remainingSteps": len(plan.Steps) - plan.CurrentStepIndex,
	}, nil
}

// supervisorStage runs the supervisor loop over supervisor_messages on a
// private copy of the state and stops the walk with its answer, its history
// and the plan and findings the tools staged. A cancelled loop still stops
// the walk with what it reached; the caller sees the context error.
func (a *Assistant) supervisorStage(ctx context.Context, view state.View) (graph.Directive, error) {
	history := state.Value[[]core.Message](view, FieldSupervisorMessages)
	if len(history) == 0 {
		brief := state.Value[string](view, FieldResearchBrief)
		if brief == "" {
			brief = Topic(state.Value[[]core.Message](view, FieldMessages))
		}

		history = []core.Message{core.NewHumanMessage(brief)}
	}

	system, err := a.prompt(supervisorPrompt, map[string]any{
		"max_concurrent_research_units": a.opts.MaxConcurrentResearchUnits,
		"max_supervisor_iterations":     a.opts.MaxSupervisorIterations,
	})
	if err != nil {
		return graph.Directive{}, err
	}

	work := state.CopyOf(Schema, view)

	loop := agent.New(a.model, a.supervisorTools(), func(o *agent.Options) {
		o.Name = "supervisor"
		o.MaxIterations = a.opts.MaxSupervisorIterations
		o.Instructions = staticInstruction(system)
		o.Logger = a.opts.Logger
		o.Store = work
	})

	res, err := loop.Run(ctx, history)
	if res == nil {
		return graph.Directive{}, fmt.Errorf("supervisor: %w", err)
	}

	if err != nil {
		a.opts.Logger.Warn("research.supervisor.interrupted", "stop_reason", string(res.StopReason), "error", err.Error())
	}

	answer := res.Summary
	if answer == "" {
		answer = DefaultFinalMessage
	}

	update := state.Update{
		FieldSupervisorMessages: state.Override{Value: res.History},
		FieldMessages:           core.NewAssistantMessage(answer),
		FieldResearchPlan:       PlanOf(work),
	}

	if added := FindingsOf(work)[len(FindingsOf(view)):]; len(added) > 0 {
		update[FieldResearchFindings] = added
	}

	a.opts.Logger.Info("research.supervisor.finished", "stop_reason", string(res.StopReason), "iterations", res.Iterations)

	return graph.Stop(update), nil
}
