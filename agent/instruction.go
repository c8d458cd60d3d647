package agent

import (
	"context"

	"github.com/hupe1980/researchmesh/internal/util"
	"github.com/hupe1980/researchmesh/state"
)

// Provider supplies dynamic instruction text at runtime, derived from the
// loop's working state.
type Provider interface {
	Instruction(ctx context.Context, view state.View) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(ctx context.Context, view state.View) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(ctx context.Context, view state.View) (string, error) { return f(ctx, view) }

// Instruction is either a static template or a dynamic provider. Static text
// is rendered as a text/template over the working state snapshot.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static template.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(ctx context.Context, view state.View) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// IsZero reports whether no instruction was configured.
func (i Instruction) IsZero() bool { return i.provider == nil && i.text == "" }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(ctx context.Context, view state.View) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(ctx, view)
	}

	if i.text == "" {
		return "", nil
	}

	return util.RenderTemplate(i.text, snapshotOf(view))
}

func snapshotOf(view state.View) map[string]any {
	if s, ok := view.(interface{ Snapshot() map[string]any }); ok {
		return s.Snapshot()
	}

	return map[string]any{}
}
