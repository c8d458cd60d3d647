package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapState struct {
	fields map[string]any
	fail   error
}

func (s *mapState) Get(name string) (any, bool) {
	v, ok := s.fields[name]
	return v, ok
}

func (s *mapState) MergeField(name string, value any) error {
	if s.fail != nil {
		return s.fail
	}
	if s.fields == nil {
		s.fields = map[string]any{}
	}
	s.fields[name] = value
	return nil
}

func TestBudget_ConsumeCaps(t *testing.T) {
	b := NewBudget(map[string]int{"search": 2, "none": 0})

	require.NoError(t, b.Consume("search"))
	require.NoError(t, b.Consume("search"))

	err := b.Consume("search")
	require.ErrorIs(t, err, ErrBudgetExceeded)
	assert.Contains(t, err.Error(), "search (max 2)")
	assert.Equal(t, 2, b.Count("search"), "rejected call must not be counted")
	assert.Equal(t, 0, b.Remaining("search"))

	require.ErrorIs(t, b.Consume("none"), ErrBudgetExceeded)

	for range 5 {
		require.NoError(t, b.Consume("think"))
	}
	assert.Equal(t, -1, b.Remaining("think"))
	_, capped := b.Limit("think")
	assert.False(t, capped)

	assert.Equal(t, map[string]int{"search": 2, "think": 5}, b.Snapshot())
}

func TestBudget_ConcurrentConsume(t *testing.T) {
	b := NewBudget(map[string]int{"search": 10})

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if b.Consume("search") == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, accepted)
	assert.Equal(t, 10, b.Count("search"))
}

func TestMessage_Accessors(t *testing.T) {
	call := ToolCall{ID: "c1", Name: "SearchTool", Arguments: `{"queries":["go"]}`}
	msg := NewAssistantMessage("looking", call)

	assert.Equal(t, RoleAssistant, msg.Role)
	assert.Equal(t, "looking", msg.Text())
	assert.True(t, msg.HasToolCalls())
	assert.Equal(t, []ToolCall{call}, msg.ToolCalls())

	bare := NewAssistantMessage("", call)
	assert.Len(t, bare.Parts, 1)

	res := NewToolResultMessage(ToolResult{ID: "c1", Name: "SearchTool", Response: map[string]any{"n": 1}})
	assert.Equal(t, RoleTool, res.Role)
	assert.Equal(t, `{"n":1}`, res.Text())
	require.Len(t, res.ToolResults(), 1)
	assert.False(t, res.HasToolCalls())
}

func TestToolResult_Text(t *testing.T) {
	assert.Equal(t, "", ToolResult{}.Text())
	assert.Equal(t, "done", ToolResult{Response: "done"}.Text())
	assert.Equal(t, "Error: boom", ToolResult{Response: "ignored", Error: "boom"}.Text())
	assert.Equal(t, `["a","b"]`, ToolResult{Response: []string{"a", "b"}}.Text())
}

func TestLastAssistantText(t *testing.T) {
	history := []Message{
		NewHumanMessage("question"),
		NewAssistantMessage("first"),
		NewToolResultMessage(ToolResult{Name: "t", Response: "r"}),
		NewAssistantMessage("", ToolCall{ID: "c2", Name: "t"}),
	}

	assert.Equal(t, "first", LastAssistantText(history))
	assert.Equal(t, "", LastAssistantText(history[:1]))
}

func TestToolContext_State(t *testing.T) {
	st := &mapState{fields: map[string]any{"brief": "b"}}
	tc := NewToolContext(context.Background(), "call-1", func(o *ToolContextOptions) {
		o.AgentName = "supervisor"
		o.State = st
	})

	assert.Equal(t, "call-1", tc.CallID())
	assert.Equal(t, "supervisor", tc.AgentName())
	assert.NotNil(t, tc.Logger())

	v, ok := tc.GetState("brief")
	require.True(t, ok)
	assert.Equal(t, "b", v)

	require.NoError(t, tc.UpdateState("plan", []string{"x"}))
	assert.Equal(t, []string{"plan"}, tc.UpdatedFields())

	st.fail = errors.New("merge rejected")
	require.Error(t, tc.UpdateState("plan", nil))
	assert.Equal(t, []string{"plan"}, tc.UpdatedFields())
}

func TestToolContext_NoState(t *testing.T) {
	//nolint:staticcheck // nil context is normalised
	tc := NewToolContext(nil, "call-2")

	require.NotNil(t, tc.Context())
	_, ok := tc.GetState("anything")
	assert.False(t, ok)
	require.ErrorIs(t, tc.UpdateState("x", 1), ErrNoState)
}

func TestNewID_Unique(t *testing.T) {
	a, b := NewID(), NewID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
