// Package mcpserver exposes research and web search as MCP tools.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hupe1980/researchmesh"
	"github.com/hupe1980/researchmesh/logging"
	"github.com/hupe1980/researchmesh/research"
	"github.com/hupe1980/researchmesh/search"
)

// Backend runs research and searches. It is satisfied by
// *researchmesh.ResearchMesh.
type Backend interface {
	Run(ctx context.Context, mode research.Mode, topic string) (*researchmesh.Result, error)
	Search(ctx context.Context, query string) ([]search.Result, error)
}

// Server wraps an MCP server with the research tools.
type Server struct {
	mcpServer *server.MCPServer
	backend   Backend
	logger    logging.Logger
}

// New creates a server named researchmesh with the research and web_search
// tools registered.
func New(backend Backend, version string, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	s := &Server{backend: backend, logger: logger}

	mcpServer := server.NewMCPServer(
		"researchmesh",
		version,
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)
	s.mcpServer = mcpServer

	return s
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio serves MCP over stdin and stdout until the input closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	researchTool := mcp.NewTool("research",
		mcp.WithDescription("Research a topic on the web and return a sourced answer"),
		mcp.WithString("topic",
			mcp.Required(),
			mcp.Description("The research question or topic"),
		),
		mcp.WithString("mode",
			mcp.Description("supervisor (plan and delegate, default) or deepsearch (iterative query and reflect)"),
			mcp.Enum(string(research.ModeSupervisor), string(research.ModeDeepSearch)),
		),
	)
	mcpServer.AddTool(researchTool, s.handleResearch)

	searchTool := mcp.NewTool("web_search",
		mcp.WithDescription("Search the web and return the formatted results"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The search query"),
		),
	)
	mcpServer.AddTool(searchTool, s.handleSearch)
}

// getArgs extracts arguments from request as map[string]any.
func getArgs(request mcp.CallToolRequest) map[string]any {
	if args, ok := request.Params.Arguments.(map[string]any); ok {
		return args
	}

	return map[string]any{}
}

func (s *Server) handleResearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)

	topic, _ := args["topic"].(string)
	if topic == "" {
		return mcp.NewToolResultError("topic parameter is required"), nil
	}

	mode, _ := args["mode"].(string)

	s.logger.Info("mcp.research.start", "mode", mode)

	res, err := s.backend.Run(ctx, research.Mode(mode), topic)
	if err != nil {
		if res != nil && res.Answer != "" {
			return mcp.NewToolResultError(fmt.Sprintf("research incomplete (%v): %s", err, res.Answer)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("research failed: %v", err)), nil
	}

	return mcp.NewToolResultText(res.Answer), nil
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, _ := getArgs(request)["query"].(string)
	if query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	results, err := s.backend.Search(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	return mcp.NewToolResultText(search.Format(results)), nil
}
