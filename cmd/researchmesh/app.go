package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/researchmesh"
	"github.com/hupe1980/researchmesh/config"
)

// Version information set at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// App is the researchmesh command line application.
type App struct {
	root   *cobra.Command
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	// newMesh builds the research backend from a loaded configuration.
	newMesh func(cfg *config.Config) (*researchmesh.ResearchMesh, error)
}

// New creates the application with its subcommands.
func New() *App {
	app := &App{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		newMesh: func(cfg *config.Config) (*researchmesh.ResearchMesh, error) {
			return researchmesh.New(cfg)
		},
	}

	app.root = &cobra.Command{
		Use:   "researchmesh",
		Short: "LLM driven web research assistant",
		Long: `researchmesh answers research questions with a supervisor that plans,
delegates steps to web searching researchers and aggregates their findings,
or with an iterative deep search that queries, reflects and follows up.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	app.root.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "Path to a YAML configuration file")

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newRunCmd(),
		app.newSearchCmd(),
		app.newServeCmd(),
	)

	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)

	return a
}

// Execute runs the application until it finishes or is interrupted.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the application with specific arguments.
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(*cobra.Command, []string) {
			_, _ = fmt.Fprintf(a.stdout, "researchmesh version %s\n", Version)
			_, _ = fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
		},
	}
}

// loadConfig reads --config, or the defaults with API keys from the
// environment when no file is given.
func (a *App) loadConfig() (*config.Config, error) {
	if a.configPath == "" {
		cfg := config.Default()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	cfg, err := config.LoadFile(a.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// mesh loads the configuration, applies overrides and builds the backend.
func (a *App) mesh(override func(cfg *config.Config)) (*researchmesh.ResearchMesh, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	if override != nil {
		override(cfg)
	}

	return a.newMesh(cfg)
}
