package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/model"
)

func TestHistoryBuilder(t *testing.T) {
	msgs := NewHistoryBuilder().
		System("be brief").
		Human("topic").
		Call("SearchTool", map[string]any{"query": "go"}).
		Result("results").
		Assistant("done").
		Build()

	require.Len(t, msgs, 5)
	assert.Equal(t, core.RoleSystem, msgs[0].Role)
	assert.Equal(t, `{"query":"go"}`, msgs[2].ToolCalls()[0].Arguments)

	results := ToolResults(msgs)
	require.Len(t, results, 1)
	assert.Equal(t, "call-1", results[0].ID)
	assert.Equal(t, "SearchTool", results[0].Name)
	assert.Equal(t, "results", results[0].Response)
}

func TestRouter(t *testing.T) {
	r := NewRouter().
		OnJSON("planner", map[string]any{"ok": true}).
		On("researcher", func(model.Request) (model.Response, error) {
			return Call("SearchTool", map[string]any{"query": "x"}), nil
		})

	respond := r.Responder()

	resp, err := respond(model.Request{Instructions: "You are a planner."})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, resp.Message.Text())

	resp, err = respond(model.Request{Instructions: "You are a researcher."})
	require.NoError(t, err)
	assert.Equal(t, "SearchTool", resp.Message.ToolCalls()[0].Name)

	_, err = respond(model.Request{Instructions: "unknown"})
	assert.Error(t, err)

	assert.Equal(t, 1, r.Hits("planner"))
}
