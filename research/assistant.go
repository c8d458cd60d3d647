package research

import (
	"context"
	"fmt"

	"github.com/hupe1980/researchmesh/agent"
	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/internal/util"
	"github.com/hupe1980/researchmesh/model"
	"github.com/hupe1980/researchmesh/search"
	"github.com/hupe1980/researchmesh/state"
	"github.com/hupe1980/researchmesh/structured"
)

const dateLayout = "Mon Jan 2, 2006"

// Assistant wires a model and a searcher into the supervisor, researcher and
// deep-search roles. It holds no per-run state.
type Assistant struct {
	model    model.Model
	searcher search.Searcher
	opts     Options
}

// New creates an assistant.
func New(m model.Model, s search.Searcher, optFns ...func(o *Options)) *Assistant {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	opts.normalize()

	return &Assistant{model: m, searcher: s, opts: opts}
}

// Options returns the effective options.
func (a *Assistant) Options() Options { return a.opts }

// prompt renders a template with the current date and data.
func (a *Assistant) prompt(text string, data map[string]any) (string, error) {
	values := map[string]any{"date": a.opts.Now().Format(dateLayout)}
	for k, v := range data {
		values[k] = v
	}

	out, err := util.RenderTemplate(text, values)
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	return out, nil
}

// staticInstruction returns an already rendered system prompt.
func staticInstruction(text string) agent.Instruction {
	return agent.NewInstructionFromFunc(func(context.Context, state.View) (string, error) {
		return text, nil
	})
}

// invoke runs a structured call with the assistant's retry policy.
func invoke[T any](ctx context.Context, a *Assistant, system string, messages ...core.Message) (T, error) {
	return structured.Invoke[T](ctx, a.model, messages,
		structured.WithInstructions(system),
		structured.WithRetries(a.opts.StructuredRetries),
		structured.WithLogger(a.opts.Logger),
	)
}
