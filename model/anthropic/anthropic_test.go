package anthropic

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/model"
)

func TestBuildMessages_AlternatesRoles(t *testing.T) {
	history := []core.Message{
		core.NewSystemMessage("be brief"),
		core.NewHumanMessage("topic"),
		core.NewAssistantMessage("", core.ToolCall{ID: "t1", Name: "SearchTool", Arguments: `{"query":"a"}`},
			core.ToolCall{ID: "t2", Name: "SearchTool", Arguments: `{"query":"b"}`}),
		core.NewToolResultMessage(core.ToolResult{ID: "t1", Name: "SearchTool", Response: "ra"}),
		core.NewToolResultMessage(core.ToolResult{ID: "t2", Name: "SearchTool", Error: "timeout"}),
	}

	msgs := buildMessages(history)
	require.Len(t, msgs, 3)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[1].Role)
	assert.Len(t, msgs[1].Content, 2)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[2].Role)
	assert.Len(t, msgs[2].Content, 2)
}

func TestSystemBlocks(t *testing.T) {
	blocks := systemBlocks(model.Request{
		Instructions:   "instr",
		Messages:       []core.Message{core.NewSystemMessage("sys")},
		ResponseFormat: &model.ResponseFormat{JSON: true},
	})

	require.Len(t, blocks, 3)
	assert.Equal(t, "instr", blocks[0].Text)
	assert.Equal(t, "sys", blocks[1].Text)
	assert.Contains(t, blocks[2].Text, "JSON")
}

func TestBuildTools(t *testing.T) {
	tools := buildTools([]model.ToolDefinition{{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        "SearchTool",
			Description: "search",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"query": map[string]any{"type": "string"}},
				"required":   []any{"query"},
			},
		},
	}})

	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "SearchTool", tools[0].OfTool.Name)
	assert.Equal(t, []string{"query"}, tools[0].OfTool.InputSchema.Required)
}
