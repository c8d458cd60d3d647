package tool

import (
	"fmt"
	"strings"

	"github.com/hupe1980/researchmesh/core"
)

// DefaultCompletionToolName is the conventional name of the tool a loop's
// model calls to signal it is done.
const DefaultCompletionToolName = "ResearchComplete"

// completionTool signals the end of an agent loop and carries its summary.
type completionTool struct {
	name        string
	description string
	refine      func(tc *core.ToolContext, summary string) (map[string]any, error)
}

// CompletionOption customizes a completion tool.
type CompletionOption func(*completionTool)

// WithCompletionName overrides the tool name.
func WithCompletionName(name string) CompletionOption {
	return func(c *completionTool) { c.name = name }
}

// WithCompletionDescription overrides the description shown to the model.
func WithCompletionDescription(desc string) CompletionOption {
	return func(c *completionTool) { c.description = desc }
}

// WithRefiner post-processes the summary (e.g. a structured refinement call).
// The returned map becomes the tool result; it should contain "summary" or
// "finalSummary".
func WithRefiner(fn func(tc *core.ToolContext, summary string) (map[string]any, error)) CompletionOption {
	return func(c *completionTool) { c.refine = fn }
}

// NewCompletionTool constructs the completion tool. Its result always carries
// the summary under "summary" unless a refiner replaces it.
func NewCompletionTool(opts ...CompletionOption) Tool {
	c := &completionTool{
		name:        DefaultCompletionToolName,
		description: "Call when the task is finished. Provide a complete summary of the results.",
	}

	for _, o := range opts {
		o(c)
	}

	return c
}

func (c *completionTool) Name() string { return c.name }

func (c *completionTool) Description() string { return c.description }

func (c *completionTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{"type": "string", "minLength": 1, "description": "Complete summary of the results"},
		},
		"required": []string{"summary"},
	}
}

func (c *completionTool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	summary, _ := args["summary"].(string)
	if strings.TrimSpace(summary) == "" {
		return nil, &ToolError{Tool: c.name, Message: "field 'summary' must be a non-empty string", Code: CodeValidation}
	}

	tc.LogInfo("tool.complete.request", "agent", tc.AgentName(), "call_id", tc.CallID())

	if c.refine == nil {
		return map[string]any{"summary": summary}, nil
	}

	refined, err := c.refine(tc, summary)
	if err != nil {
		// A failed refinement still completes with the raw summary.
		tc.LogWarn("tool.complete.refine_failed", "error", err.Error())
		return map[string]any{"summary": summary}, nil
	}

	return refined, nil
}

// SummaryFrom extracts the summary carried by a completion tool result: the
// "summary" field, falling back to "finalSummary", falling back to the raw
// text of string results.
func SummaryFrom(result any) string {
	switch v := result.(type) {
	case map[string]any:
		if s, ok := v["summary"].(string); ok && s != "" {
			return s
		}
		if s, ok := v["finalSummary"].(string); ok && s != "" {
			return s
		}
		return ""
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
