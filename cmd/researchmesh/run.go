package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/researchmesh/config"
	"github.com/hupe1980/researchmesh/research"
)

type runOptions struct {
	topic       string
	mode        string
	timeout     time.Duration
	parallel    int
	skipClarify bool
	jsonOutput  bool
}

func (a *App) newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [topic]",
		Short: "Research a topic and print the answer",
		Long: `Research a topic and print the final answer.

Examples:
  # Plan, delegate and aggregate with the supervisor
  researchmesh run "Compare Go web frameworks for high throughput APIs"

  # Iterative query, search and reflection
  researchmesh run --mode deepsearch "What changed in Go 1.23?"

  # Topic from stdin with a custom config and timeout
  echo "State of WebAssembly in 2026" | researchmesh run -c researchmesh.yaml --timeout 5m`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.topic = args[0]
			}
			return a.runResearch(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.mode, "mode", "m", string(research.ModeSupervisor), "Research mode: supervisor or deepsearch")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Wall-clock timeout (overrides config)")
	cmd.Flags().IntVar(&opts.parallel, "parallel", 0, "Maximum researchers per delegation (overrides config)")
	cmd.Flags().BoolVar(&opts.skipClarify, "skip-clarify", false, "Start with the research brief instead of a clarification check")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the result as JSON")

	return cmd
}

type runOutput struct {
	RunID    string              `json:"run_id"`
	Mode     research.Mode       `json:"mode"`
	Answer   string              `json:"answer"`
	Plan     *research.Plan      `json:"plan,omitempty"`
	Findings []research.Findings `json:"findings,omitempty"`
	Error    string              `json:"error,omitempty"`
}

func (a *App) runResearch(ctx context.Context, opts *runOptions) error {
	topic := strings.TrimSpace(opts.topic)
	if topic == "" {
		b, err := io.ReadAll(a.stdin)
		if err != nil {
			return fmt.Errorf("read topic: %w", err)
		}
		topic = strings.TrimSpace(string(b))
	}

	if topic == "" {
		return fmt.Errorf("no topic specified (use an argument or stdin)")
	}

	rm, err := a.mesh(func(cfg *config.Config) {
		if opts.timeout > 0 {
			cfg.Timeout = opts.timeout
		}
		if opts.parallel > 0 {
			cfg.Research.MaxConcurrentResearchUnits = opts.parallel
		}
		if opts.skipClarify {
			cfg.Research.SkipClarify = true
		}
	})
	if err != nil {
		return err
	}
	defer func() { _ = rm.Close() }()

	res, runErr := rm.Run(ctx, research.Mode(opts.mode), topic)
	if res == nil {
		return runErr
	}

	if opts.jsonOutput {
		out := runOutput{RunID: res.RunID, Mode: res.Mode, Answer: res.Answer}
		if res.Store != nil {
			out.Plan = research.PlanOf(res.Store)
			out.Findings = research.FindingsOf(res.Store)
		}
		if runErr != nil {
			out.Error = runErr.Error()
		}

		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")

		if err := enc.Encode(out); err != nil {
			return err
		}

		return runErr
	}

	if res.Answer != "" {
		_, _ = fmt.Fprintln(a.stdout, res.Answer)
	}

	return runErr
}
