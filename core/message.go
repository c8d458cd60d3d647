package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role identifies the author of a message within a history.
type Role string

const (
	// RoleSystem carries instructions establishing the task.
	RoleSystem Role = "system"
	// RoleHuman carries input from the person driving the run.
	RoleHuman Role = "human"
	// RoleAssistant carries model output, including tool call requests.
	RoleAssistant Role = "assistant"
	// RoleTool carries tool results paired with earlier tool calls.
	RoleTool Role = "tool"
)

// Part represents a polymorphic segment of message content. Concrete part
// types implement the unexported isPart marker enabling a closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text string
}

func (TextPart) isPart() {}

// DataPart is a structured data segment (e.g. a decoded JSON object).
type DataPart struct {
	Data map[string]any
}

func (DataPart) isPart() {}

// ToolCall describes a tool invocation requested by the model.
type ToolCall struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"` // raw JSON object
}

// ToolCallPart wraps a ToolCall as a content part.
type ToolCallPart struct {
	ToolCall ToolCall
}

func (ToolCallPart) isPart() {}

// ToolResult describes the outcome of a tool call.
type ToolResult struct {
	ID       string `json:"id,omitempty"` // matches the originating ToolCall ID
	Name     string `json:"name"`
	Response any    `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Text renders the result the way it is shown to a model: strings verbatim,
// structured values as JSON, failures as an error line.
func (r ToolResult) Text() string {
	if r.Error != "" {
		return "Error: " + r.Error
	}

	switch v := r.Response.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

// ToolResultPart wraps a ToolResult as a content part.
type ToolResultPart struct {
	ToolResult ToolResult
}

func (ToolResultPart) isPart() {}

// Message holds role + ordered parts.
type Message struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// NewSystemMessage builds a system message with a single text part.
func NewSystemMessage(text string) Message {
	return Message{Role: RoleSystem, Parts: []Part{TextPart{Text: text}}}
}

// NewHumanMessage builds a human message with a single text part.
func NewHumanMessage(text string) Message {
	return Message{Role: RoleHuman, Parts: []Part{TextPart{Text: text}}}
}

// NewAssistantMessage builds an assistant message with optional text and tool calls.
func NewAssistantMessage(text string, calls ...ToolCall) Message {
	parts := make([]Part, 0, len(calls)+1)
	if text != "" {
		parts = append(parts, TextPart{Text: text})
	}

	for _, c := range calls {
		parts = append(parts, ToolCallPart{ToolCall: c})
	}

	return Message{Role: RoleAssistant, Parts: parts}
}

// NewToolResultMessage builds a tool message carrying a single result.
func NewToolResultMessage(result ToolResult) Message {
	return Message{Role: RoleTool, Parts: []Part{ToolResultPart{ToolResult: result}}}
}

// Text concatenates all text parts (and tool result texts for tool messages).
func (m Message) Text() string {
	var b strings.Builder

	for _, p := range m.Parts {
		switch part := p.(type) {
		case TextPart:
			b.WriteString(part.Text)
		case ToolResultPart:
			b.WriteString(part.ToolResult.Text())
		}
	}

	return b.String()
}

// ToolCalls returns the tool calls contained in the message in emitted order.
func (m Message) ToolCalls() []ToolCall {
	var calls []ToolCall

	for _, p := range m.Parts {
		if tc, ok := p.(ToolCallPart); ok {
			calls = append(calls, tc.ToolCall)
		}
	}

	return calls
}

// ToolResults returns the tool results contained in the message.
func (m Message) ToolResults() []ToolResult {
	var results []ToolResult

	for _, p := range m.Parts {
		if tr, ok := p.(ToolResultPart); ok {
			results = append(results, tr.ToolResult)
		}
	}

	return results
}

// HasToolCalls reports whether the message requests at least one tool call.
func (m Message) HasToolCalls() bool {
	for _, p := range m.Parts {
		if _, ok := p.(ToolCallPart); ok {
			return true
		}
	}

	return false
}

// LastAssistantText returns the text of the last assistant message in history,
// or "" when there is none.
func LastAssistantText(history []Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleAssistant {
			if t := history[i].Text(); t != "" {
				return t
			}
		}
	}

	return ""
}
