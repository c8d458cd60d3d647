package testutil

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/researchmesh/core"
)

// HistoryBuilder helps construct message histories with fluent chaining.
// Example:
//
//	msgs := NewHistoryBuilder().Human("topic").Call("SearchTool", map[string]any{"query": "go"}).Result("results").Build()
//
// Result answers the most recent unanswered call.
type HistoryBuilder struct {
	msgs    []core.Message
	pending []core.ToolCall
	seq     int
}

// NewHistoryBuilder creates an empty builder.
func NewHistoryBuilder() *HistoryBuilder { return &HistoryBuilder{} }

// System appends a system message (chainable).
func (b *HistoryBuilder) System(text string) *HistoryBuilder {
	b.msgs = append(b.msgs, core.NewSystemMessage(text))
	return b
}

// Human appends a human message (chainable).
func (b *HistoryBuilder) Human(text string) *HistoryBuilder {
	b.msgs = append(b.msgs, core.NewHumanMessage(text))
	return b
}

// Assistant appends an assistant text message (chainable).
func (b *HistoryBuilder) Assistant(text string) *HistoryBuilder {
	b.msgs = append(b.msgs, core.NewAssistantMessage(text))
	return b
}

// Call appends an assistant message requesting one tool call with args
// encoded as JSON (chainable). Call ids are deterministic: call-1, call-2...
func (b *HistoryBuilder) Call(name string, args any) *HistoryBuilder {
	b.seq++
	call := ToolCall(fmt.Sprintf("call-%d", b.seq), name, args)
	b.pending = append(b.pending, call)
	b.msgs = append(b.msgs, core.NewAssistantMessage("", call))

	return b
}

// Result appends the result of the most recent unanswered call (chainable).
func (b *HistoryBuilder) Result(response any) *HistoryBuilder {
	if len(b.pending) == 0 {
		panic("testutil: Result without a pending Call")
	}

	call := b.pending[len(b.pending)-1]
	b.pending = b.pending[:len(b.pending)-1]
	b.msgs = append(b.msgs, core.NewToolResultMessage(core.ToolResult{ID: call.ID, Name: call.Name, Response: response}))

	return b
}

// Build returns a copy of the history.
func (b *HistoryBuilder) Build() []core.Message {
	return append([]core.Message(nil), b.msgs...)
}

// ToolCall builds a tool call with args encoded as JSON.
func ToolCall(id, name string, args any) core.ToolCall {
	return core.ToolCall{ID: id, Name: name, Arguments: MustJSON(args)}
}

// ToolResults returns the tool results of msgs in order.
func ToolResults(msgs []core.Message) []core.ToolResult {
	var out []core.ToolResult
	for _, m := range msgs {
		out = append(out, m.ToolResults()...)
	}

	return out
}

// MustJSON encodes v or panics.
func MustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("testutil: encode %T: %v", v, err))
	}

	return string(b)
}
