package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/researchmesh/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ResponseFormat asks the provider for machine readable output.
type ResponseFormat struct {
	// JSON requests a single JSON object as the response text.
	JSON bool `json:"json"`
	// Schema optionally describes the expected object. Providers without
	// native schema support receive it through the instructions instead.
	Schema map[string]any `json:"schema,omitempty"`
}

// Request captures the normalized model input produced by agent loops and
// structured calls.
type Request struct {
	Instructions   string           `json:"instructions,omitempty"` // System prompt prepended to Messages
	Messages       []core.Message   `json:"messages"`
	Tools          []ToolDefinition `json:"tools,omitempty"`
	ResponseFormat *ResponseFormat  `json:"response_format,omitempty"`
	Stream         bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Message      core.Message `json:"message"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// ErrNoResponse is returned by Collect when a model closes its stream
// without a final response.
var ErrNoResponse = errors.New("model returned no final response")

// Collect drains a Generate call and returns the final (non-partial)
// response. It honours ctx while waiting.
func Collect(ctx context.Context, m Model, req Request) (Response, error) {
	respCh, errCh := m.Generate(ctx, req)

	var (
		final    Response
		gotFinal bool
	)

	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if !r.Partial {
				final, gotFinal = r, true
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return Response{}, err
			}
		}
	}

	if !gotFinal {
		return Response{}, fmt.Errorf("%w (%s)", ErrNoResponse, m.Info().Name)
	}

	return final, nil
}

// PruneUnanswered drops tool calls that never received a tool result, such as
// calls to unknown tools. Provider APIs reject histories with unpaired calls.
// Assistant messages left without parts are removed.
func PruneUnanswered(history []core.Message) []core.Message {
	answered := map[string]bool{}
	for _, msg := range history {
		for _, res := range msg.ToolResults() {
			answered[res.ID] = true
		}
	}

	out := make([]core.Message, 0, len(history))

	for _, msg := range history {
		if msg.Role != core.RoleAssistant || !msg.HasToolCalls() {
			out = append(out, msg)
			continue
		}

		parts := make([]core.Part, 0, len(msg.Parts))
		for _, p := range msg.Parts {
			if tc, ok := p.(core.ToolCallPart); ok && !answered[tc.ToolCall.ID] {
				continue
			}
			parts = append(parts, p)
		}

		if len(parts) == 0 {
			continue
		}

		out = append(out, core.Message{Role: msg.Role, Parts: parts})
	}

	return out
}
