// Package config loads the researchmesh configuration from YAML files with
// environment variable expansion.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

var (
	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("config file not found")
	// ErrInvalidFormat is returned when the configuration cannot be parsed.
	ErrInvalidFormat = errors.New("invalid config format")
	// ErrUnsupportedFormat is returned for file extensions other than YAML or JSON.
	ErrUnsupportedFormat = errors.New("unsupported config format")
	// ErrMissingEnvVar is returned when a required environment variable is unset.
	ErrMissingEnvVar = errors.New("missing environment variable")
	// ErrValidationFailed is returned when the configuration is inconsistent.
	ErrValidationFailed = errors.New("config validation failed")
)

// Config is the complete researchmesh configuration.
type Config struct {
	Model    ModelConfig    `yaml:"model"`
	Search   SearchConfig   `yaml:"search"`
	Research ResearchConfig `yaml:"research"`
	// Timeout bounds one research invocation.
	Timeout time.Duration `yaml:"timeout"`
	Log     LogConfig     `yaml:"log"`
}

// ModelConfig selects and configures the chat model.
type ModelConfig struct {
	// Provider is openai or anthropic. OpenAI compatible endpoints such as
	// DeepSeek use openai with BaseURL.
	Provider    string      `yaml:"provider"`
	Name        string      `yaml:"name"`
	BaseURL     string      `yaml:"base_url"`
	APIKey      string      `yaml:"api_key"`
	Temperature float64     `yaml:"temperature"`
	MaxTokens   int         `yaml:"max_tokens"`
	Retry       RetryConfig `yaml:"retry"`
}

// RetryConfig configures model call retries.
type RetryConfig struct {
	Attempts int           `yaml:"attempts"`
	Delay    time.Duration `yaml:"delay"`
}

// SearchConfig selects and configures the web search provider.
type SearchConfig struct {
	// Provider is tavily or qianfan.
	Provider   string        `yaml:"provider"`
	APIKey     string        `yaml:"api_key"`
	Endpoint   string        `yaml:"endpoint"`
	Depth      string        `yaml:"depth"`
	Recency    string        `yaml:"recency"`
	MaxResults int           `yaml:"max_results"`
	Breaker    BreakerConfig `yaml:"breaker"`
}

// BreakerConfig configures the circuit breaker around the search provider.
type BreakerConfig struct {
	Threshold int           `yaml:"threshold"`
	Timeout   time.Duration `yaml:"timeout"`
}

// ResearchConfig bounds the research roles.
type ResearchConfig struct {
	SupervisorMaxIterations    int  `yaml:"supervisor_max_iterations"`
	ResearcherMaxIterations    int  `yaml:"researcher_max_iterations"`
	MaxSearchCalls             int  `yaml:"max_search_calls"`
	MaxConcurrentResearchUnits int  `yaml:"max_concurrent_research_units"`
	MaxResearchLoops           int  `yaml:"max_research_loops"`
	InitialQueryCount          int  `yaml:"initial_query_count"`
	MaxGraphSteps              int  `yaml:"max_graph_steps"`
	StructuredRetries          int  `yaml:"structured_retries"`
	SkipClarify                bool `yaml:"skip_clarify"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
	// Backend is slog or zap.
	Backend string `yaml:"backend"`
}

// Default returns the configuration used when no file is given, with API
// keys taken from the environment.
func Default() *Config {
	cfg := defaults()
	cfg.ApplyDefaults()

	return cfg
}

// defaults returns the provider independent defaults.
func defaults() *Config {
	return &Config{
		Model: ModelConfig{
			Provider: "openai",
			Retry:    RetryConfig{Attempts: 3, Delay: time.Second},
		},
		Search: SearchConfig{
			Provider:   "tavily",
			Depth:      "basic",
			Recency:    "week",
			MaxResults: 5,
			Breaker:    BreakerConfig{Threshold: 5, Timeout: 30 * time.Second},
		},
		Research: ResearchConfig{
			SupervisorMaxIterations:    8,
			ResearcherMaxIterations:    10,
			MaxSearchCalls:             3,
			MaxConcurrentResearchUnits: 1,
			MaxResearchLoops:           2,
			InitialQueryCount:          3,
			MaxGraphSteps:              25,
			StructuredRetries:          1,
		},
		Timeout: 10 * time.Minute,
		Log:     LogConfig{Level: "info", Format: "text", Backend: "slog"},
	}
}

var (
	defaultModels = map[string]string{
		"openai":    "gpt-4o-mini",
		"anthropic": "claude-3-5-sonnet-latest",
	}

	apiKeyEnv = map[string]string{
		"openai":    "OPENAI_API_KEY",
		"anthropic": "ANTHROPIC_API_KEY",
		"tavily":    "TAVILY_API_KEY",
		"qianfan":   "QIANFAN_API_KEY",
	}
)

// ApplyDefaults fills unset values: provider model names and API keys from
// the provider's conventional environment variable.
func (c *Config) ApplyDefaults() {
	d := defaults()

	setString(&c.Model.Provider, d.Model.Provider)
	setString(&c.Model.Name, defaultModels[c.Model.Provider])
	setString(&c.Model.APIKey, os.Getenv(apiKeyEnv[c.Model.Provider]))
	setString(&c.Search.Provider, d.Search.Provider)
	setString(&c.Search.APIKey, os.Getenv(apiKeyEnv[c.Search.Provider]))
	setString(&c.Log.Level, d.Log.Level)
	setString(&c.Log.Format, d.Log.Format)
	setString(&c.Log.Backend, d.Log.Backend)

	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

// Validate reports every inconsistency of the configuration.
func (c *Config) Validate() error {
	var errs []error

	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(oneOf(c.Model.Provider, "openai", "anthropic"), "model.provider %q must be openai or anthropic", c.Model.Provider)
	check(c.Model.Temperature >= 0 && c.Model.Temperature <= 2, "model.temperature %v must be within [0, 2]", c.Model.Temperature)
	check(c.Model.MaxTokens >= 0, "model.max_tokens must not be negative")
	check(c.Model.Retry.Attempts >= 0, "model.retry.attempts must not be negative")
	check(oneOf(c.Search.Provider, "tavily", "qianfan"), "search.provider %q must be tavily or qianfan", c.Search.Provider)
	check(c.Search.MaxResults >= 0, "search.max_results must not be negative")
	check(c.Research.MaxConcurrentResearchUnits >= 0, "research.max_concurrent_research_units must not be negative")
	check(c.Research.MaxResearchLoops >= 0, "research.max_research_loops must not be negative")
	check(c.Research.StructuredRetries >= 0, "research.structured_retries must not be negative")
	check(oneOf(c.Log.Level, "debug", "info", "warn", "warning", "error"), "log.level %q is unknown", c.Log.Level)
	check(oneOf(c.Log.Format, "text", "json"), "log.format %q must be text or json", c.Log.Format)
	check(oneOf(c.Log.Backend, "slog", "zap"), "log.backend %q must be slog or zap", c.Log.Backend)

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrValidationFailed, errors.Join(errs...))
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}

	return false
}
