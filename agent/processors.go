package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/researchmesh/model"
	"github.com/hupe1980/researchmesh/state"
	"github.com/hupe1980/researchmesh/tool"
)

// RequestProcessor mutates a model request before it is sent. Processors run
// in order on every iteration.
type RequestProcessor interface {
	Name() string
	ProcessRequest(ctx context.Context, req *model.Request, view state.View) error
}

// InstructionsProcessor resolves the loop instruction into req.Instructions.
type InstructionsProcessor struct {
	instruction Instruction
}

// NewInstructionsProcessor creates a new instructions processor.
func NewInstructionsProcessor(i Instruction) *InstructionsProcessor {
	return &InstructionsProcessor{instruction: i}
}

// Name returns the processor's identifier.
func (p *InstructionsProcessor) Name() string { return "instructions" }

// ProcessRequest sets the system prompt of the request.
func (p *InstructionsProcessor) ProcessRequest(ctx context.Context, req *model.Request, view state.View) error {
	if p.instruction.IsZero() {
		return nil
	}

	text, err := p.instruction.Resolve(ctx, view)
	if err != nil {
		return fmt.Errorf("failed to resolve instruction: %w", err)
	}

	req.Instructions = text

	return nil
}

// ToolsProcessor declares the registry's tools on the request.
type ToolsProcessor struct {
	defs []model.ToolDefinition
}

// NewToolsProcessor converts the registry definitions once.
func NewToolsProcessor(registry *tool.Registry) *ToolsProcessor {
	var defs []model.ToolDefinition

	if registry != nil {
		for _, d := range registry.Definitions() {
			defs = append(defs, model.ToolDefinition{
				Type: "function",
				Function: model.FunctionDefinition{
					Name:        d.Name,
					Description: d.Description,
					Parameters:  d.Parameters,
				},
			})
		}
	}

	return &ToolsProcessor{defs: defs}
}

// Name returns the processor's identifier.
func (p *ToolsProcessor) Name() string { return "tools" }

// ProcessRequest attaches the tool definitions.
func (p *ToolsProcessor) ProcessRequest(_ context.Context, req *model.Request, _ state.View) error {
	req.Tools = p.defs
	return nil
}

// emptyView is used when a loop runs without working state.
type emptyView struct{}

func (emptyView) Get(string) (any, bool) { return nil, false }
