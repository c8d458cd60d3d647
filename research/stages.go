package research

import (
	"context"
	"strings"

	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/graph"
	"github.com/hupe1980/researchmesh/state"
)

// Stage names.
const (
	StageClarify       = "clarify_with_user"
	StageBrief         = "write_research_brief"
	StageSupervisor    = "supervisor"
	StageGenerateQuery = "generate_query"
	StageWebSearch     = "web_search"
	StageReflection    = "reflection"
)

type clarification struct {
	NeedClarification bool   `json:"need_clarification" description:"Whether the user must be asked a clarifying question"`
	Question          string `json:"question" description:"Question to ask the user"`
	Verification      string `json:"verification" description:"Message confirming that research will start"`
}

type briefOutput struct {
	ResearchBrief string `json:"research_brief" minLength:"1" description:"Research brief guiding the research"`
}

// Topic renders a conversation as research context: the text of a single
// message, or one "User:" / "Assistant:" line per message.
func Topic(messages []core.Message) string {
	if len(messages) == 1 {
		return messages[0].Text()
	}

	var b strings.Builder

	for _, m := range messages {
		switch m.Role {
		case core.RoleHuman:
			b.WriteString("User: " + m.Text() + "\n")
		case core.RoleAssistant:
			if text := m.Text(); text != "" {
				b.WriteString("Assistant: " + text + "\n")
			}
		}
	}

	return b.String()
}

func (a *Assistant) clarifyStage(ctx context.Context, view state.View) (graph.Directive, error) {
	system, err := a.prompt(clarifyPrompt, nil)
	if err != nil {
		return graph.Directive{}, err
	}

	messages := state.Value[[]core.Message](view, FieldMessages)

	out, err := invoke[clarification](ctx, a, system, messages...)
	if err != nil {
		return graph.Directive{}, err
	}

	if out.NeedClarification {
		a.opts.Logger.Info("research.clarify.question")
		return graph.Stop(state.Update{FieldMessages: core.NewAssistantMessage(out.Question)}), nil
	}

	update := state.Update{}
	if out.Verification != "" {
		update[FieldMessages] = core.NewAssistantMessage(out.Verification)
	}

	return graph.Goto(StageBrief, update), nil
}

func (a *Assistant) briefStage(ctx context.Context, view state.View) (graph.Directive, error) {
	system, err := a.prompt(briefPrompt, nil)
	if err != nil {
		return graph.Directive{}, err
	}

	messages := state.Value[[]core.Message](view, FieldMessages)

	out, err := invoke[briefOutput](ctx, a, system, core.NewHumanMessage(Topic(messages)))
	if err != nil {
		return graph.Directive{}, err
	}

	return graph.Goto(StageSupervisor, state.Update{
		FieldResearchBrief:      out.ResearchBrief,
		FieldSupervisorMessages: state.Override{Value: []core.Message{core.NewHumanMessage(out.ResearchBrief)}},
	}), nil
}
