package main

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/researchmesh/internal/mcpserver"
)

func (a *App) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the research and web_search tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			rm, err := a.mesh(nil)
			if err != nil {
				return err
			}
			defer func() { _ = rm.Close() }()

			rm.Logger().Info("mcp.serve.start", "version", Version)

			return mcpserver.New(rm, Version, rm.Logger()).ServeStdio()
		},
	}
}
