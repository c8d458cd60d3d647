package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/researchmesh"
	"github.com/hupe1980/researchmesh/research"
	"github.com/hupe1980/researchmesh/search"
)

type fakeBackend struct {
	mode    research.Mode
	topic   string
	answer  string
	runErr  error
	results []search.Result
}

func (f *fakeBackend) Run(_ context.Context, mode research.Mode, topic string) (*researchmesh.Result, error) {
	f.mode, f.topic = mode, topic
	return &researchmesh.Result{Mode: mode, Answer: f.answer}, f.runErr
}

func (f *fakeBackend) Search(context.Context, string) ([]search.Result, error) {
	return f.results, nil
}

func request(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args

	return req
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()

	for _, c := range res.Content {
		switch v := c.(type) {
		case mcp.TextContent:
			return v.Text
		case *mcp.TextContent:
			return v.Text
		}
	}

	t.Fatalf("no text content in %#v", res.Content)

	return ""
}

func TestHandleResearch(t *testing.T) {
	backend := &fakeBackend{answer: "the answer"}
	s := New(backend, "test", nil)

	res, err := s.handleResearch(context.Background(), request("research", map[string]any{"topic": "go", "mode": "deepsearch"}))
	require.NoError(t, err)

	assert.False(t, res.IsError)
	assert.Equal(t, "the answer", textOf(t, res))
	assert.Equal(t, research.ModeDeepSearch, backend.mode)
	assert.Equal(t, "go", backend.topic)
}

func TestHandleResearch_Errors(t *testing.T) {
	s := New(&fakeBackend{}, "test", nil)

	res, err := s.handleResearch(context.Background(), request("research", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	s = New(&fakeBackend{answer: "partial", runErr: errors.New("deadline")}, "test", nil)

	res, err = s.handleResearch(context.Background(), request("research", map[string]any{"topic": "go"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), "partial")
}

func TestHandleSearch(t *testing.T) {
	s := New(&fakeBackend{results: []search.Result{{Title: "Go", URL: "https://go.dev", Content: "The Go language"}}}, "test", nil)

	res, err := s.handleSearch(context.Background(), request("web_search", map[string]any{"query": "go"}))
	require.NoError(t, err)
	assert.Equal(t, "Go\nhttps://go.dev\nThe Go language", textOf(t, res))

	res, err = s.handleSearch(context.Background(), request("web_search", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestNew_RegistersTools(t *testing.T) {
	s := New(&fakeBackend{}, "test", nil)

	resp := s.MCPServer().HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))

	b, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"name":"research"`)
	assert.Contains(t, string(b), `"name":"web_search"`)
}
