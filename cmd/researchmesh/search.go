package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/researchmesh/search"
)

func (a *App) newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Run the configured web search provider",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rm, err := a.mesh(nil)
			if err != nil {
				return err
			}
			defer func() { _ = rm.Close() }()

			results, err := rm.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			_, _ = fmt.Fprintln(a.stdout, search.Format(results))

			return nil
		},
	}
}
