// Package researchmesh wires configuration, model, web search and the
// research graphs into a single entry point. Most applications:
//  1. load a config.Config (config.LoadFile or config.Default)
//  2. create a ResearchMesh via New, optionally overriding the model or searcher
//  3. call Run with a topic and a research mode
//
// Every Run is bounded by the configured wall-clock timeout.
package researchmesh

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/researchmesh/config"
	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/graph"
	"github.com/hupe1980/researchmesh/logging"
	"github.com/hupe1980/researchmesh/model"
	anthropicmodel "github.com/hupe1980/researchmesh/model/anthropic"
	openaimodel "github.com/hupe1980/researchmesh/model/openai"
	"github.com/hupe1980/researchmesh/research"
	"github.com/hupe1980/researchmesh/search"
	"github.com/hupe1980/researchmesh/state"
)

// ErrUnknownProvider is returned for model or search providers not built in.
var ErrUnknownProvider = errors.New("unknown provider")

// Options overrides components built from the configuration.
type Options struct {
	// Model replaces the configured chat model.
	Model model.Model
	// Searcher replaces the configured search provider.
	Searcher search.Searcher
	// Logger replaces the configured logger.
	Logger logging.Logger
}

// Result is the outcome of one research run.
type Result struct {
	RunID  string
	Mode   research.Mode
	Answer string
	// Store is the final research state; on failure the state reached so far.
	Store *state.Store
}

// ResearchMesh runs research requests with one configuration.
type ResearchMesh struct {
	cfg      *config.Config
	model    model.Model
	searcher search.Searcher
	logger   logging.Logger
}

// New builds the model, searcher and logger described by cfg unless
// overridden through optFns. Unset values of cfg, such as a zero timeout,
// take the loader's defaults; cfg itself is not modified.
func New(cfg *config.Config, optFns ...func(o *Options)) (*ResearchMesh, error) {
	if cfg == nil {
		cfg = config.Default()
	} else {
		c := *cfg
		c.ApplyDefaults()
		cfg = &c
	}

	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	var err error

	if opts.Logger == nil {
		if opts.Logger, err = NewLogger(cfg.Log); err != nil {
			return nil, err
		}
	}

	if opts.Model == nil {
		if opts.Model, err = NewModel(cfg.Model); err != nil {
			return nil, err
		}
	}

	if opts.Searcher == nil {
		if opts.Searcher, err = NewSearcher(cfg.Search); err != nil {
			return nil, err
		}
	}

	return &ResearchMesh{cfg: cfg, model: opts.Model, searcher: opts.Searcher, logger: opts.Logger}, nil
}

// NewLogger builds the configured logger: the slog backed StructuredLogger
// or a zap adapter.
func NewLogger(cfg config.LogConfig) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case "zap":
		z, err := logging.NewZapLogger(level, cfg.Format)
		if err != nil {
			return nil, err
		}
		return z, nil
	case "", "slog":
		return logging.NewSlogLogger(level, cfg.Format, false), nil
	default:
		return nil, fmt.Errorf("%w: log backend %q", ErrUnknownProvider, cfg.Backend)
	}
}

// NewModel builds the configured chat model wrapped with retries.
func NewModel(cfg config.ModelConfig) (model.Model, error) {
	var m model.Model

	switch cfg.Provider {
	case "openai", "":
		m = openaimodel.NewModel(func(o *openaimodel.Options) {
			if cfg.Name != "" {
				o.Model = cfg.Name
			}
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxCompletionTokens = int64(cfg.MaxTokens)
			}
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		})
	case "anthropic":
		m = anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			if cfg.Name != "" {
				o.Model = anthropic.Model(cfg.Name)
			}
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxTokens = int64(cfg.MaxTokens)
			}
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		})
	default:
		return nil, fmt.Errorf("%w: model provider %q", ErrUnknownProvider, cfg.Provider)
	}

	return model.WithRetry(m, func(o *model.RetryOptions) {
		o.MaxAttempts = cfg.Retry.Attempts
		if cfg.Retry.Delay > 0 {
			o.InitialDelay = cfg.Retry.Delay
		}
	}), nil
}

// NewSearcher builds the configured search provider behind a circuit breaker.
func NewSearcher(cfg config.SearchConfig) (search.Searcher, error) {
	var s search.Searcher

	switch cfg.Provider {
	case "tavily", "":
		s = search.NewTavily(func(o *search.TavilyOptions) {
			o.APIKey = cfg.APIKey
			o.Depth = cfg.Depth
			o.MaxResults = cfg.MaxResults
			if cfg.Endpoint != "" {
				o.Endpoint = cfg.Endpoint
			}
		})
	case "qianfan":
		s = search.NewQianfan(func(o *search.QianfanOptions) {
			o.APIKey = cfg.APIKey
			if cfg.Recency != "" {
				o.Recency = cfg.Recency
			}
			o.MaxResults = cfg.MaxResults
			if cfg.Endpoint != "" {
				o.Endpoint = cfg.Endpoint
			}
		})
	default:
		return nil, fmt.Errorf("%w: search provider %q", ErrUnknownProvider, cfg.Provider)
	}

	return search.WithCircuitBreaker(s, func(o *search.BreakerOptions) {
		if cfg.Breaker.Threshold > 0 {
			o.Threshold = cfg.Breaker.Threshold
		}
		if cfg.Breaker.Timeout > 0 {
			o.Timeout = cfg.Breaker.Timeout
		}
	}), nil
}

// Config returns the configuration in use.
func (m *ResearchMesh) Config() *config.Config { return m.cfg }

// Logger returns the logger in use.
func (m *ResearchMesh) Logger() logging.Logger { return m.logger }

// Run researches topic with the graph of mode within the configured timeout.
// A timed out or failed run still returns the result reached so far.
func (m *ResearchMesh) Run(ctx context.Context, mode research.Mode, topic string) (*Result, error) {
	if mode == "" {
		mode = research.ModeSupervisor
	}

	runID := core.NewID()
	logger := m.runLogger(runID)

	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	assistant := research.New(m.model, m.searcher, m.researchOptions(logger))

	logger.Info("research.run.start", "mode", string(mode), "timeout", m.cfg.Timeout.String())

	store, answer, err := assistant.Run(ctx, mode, topic)
	res := &Result{RunID: runID, Mode: mode, Answer: answer, Store: store}

	if err != nil {
		logger.Error("research.run.failed", "mode", string(mode), "error", err.Error())
		return res, fmt.Errorf("research run %s: %w", runID, err)
	}

	logger.Info("research.run.finished", "mode", string(mode), "answer_len", len(answer))

	return res, nil
}

// Search runs the configured searcher directly.
func (m *ResearchMesh) Search(ctx context.Context, query string) ([]search.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	return m.searcher.Search(ctx, query)
}

// Close flushes buffered logs.
func (m *ResearchMesh) Close() error {
	if s, ok := m.logger.(interface{ Sync() error }); ok {
		return s.Sync()
	}

	return nil
}

func (m *ResearchMesh) runLogger(runID string) logging.Logger {
	if sl, ok := m.logger.(*logging.StructuredLogger); ok {
		return sl.WithComponent("research").WithRun(runID)
	}

	return m.logger
}

func (m *ResearchMesh) researchOptions(logger logging.Logger) func(o *research.Options) {
	rc := m.cfg.Research

	return func(o *research.Options) {
		o.MaxSupervisorIterations = rc.SupervisorMaxIterations
		o.MaxResearcherIterations = rc.ResearcherMaxIterations
		o.MaxSearchCalls = rc.MaxSearchCalls
		o.MaxConcurrentResearchUnits = rc.MaxConcurrentResearchUnits
		o.MaxResearchLoops = rc.MaxResearchLoops
		o.InitialQueryCount = rc.InitialQueryCount
		o.MaxGraphSteps = rc.MaxGraphSteps
		o.StructuredRetries = rc.StructuredRetries
		o.SkipClarify = rc.SkipClarify
		o.Logger = logger
		o.Callbacks = graph.NewCallbackManager().
			RegisterCallback(graph.NewLoggingCallback(graph.CallbackAfterStage, logger)).
			RegisterCallback(graph.NewLoggingCallback(graph.CallbackOnError, logger))
	}
}
