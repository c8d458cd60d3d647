package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_LoadFile_YAML(t *testing.T) {
	t.Setenv("RM_MODEL_KEY", "sk-test")

	content := `
model:
  provider: anthropic
  api_key: ${RM_MODEL_KEY}
  temperature: 0.2
search:
  provider: qianfan
  api_key: ${RM_SEARCH_KEY:-fallback-key}
  recency: month
research:
  max_concurrent_research_units: 3
  skip_clarify: true
timeout: 90s
log:
  backend: zap
  format: json
`
	path := filepath.Join(t.TempDir(), "researchmesh.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Model.Provider)
	assert.Equal(t, "claude-3-5-sonnet-latest", cfg.Model.Name)
	assert.Equal(t, "sk-test", cfg.Model.APIKey)
	assert.InDelta(t, 0.2, cfg.Model.Temperature, 1e-9)
	assert.Equal(t, "fallback-key", cfg.Search.APIKey)
	assert.Equal(t, "month", cfg.Search.Recency)
	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, 3, cfg.Research.MaxConcurrentResearchUnits)
	assert.Equal(t, 8, cfg.Research.SupervisorMaxIterations)
	assert.True(t, cfg.Research.SkipClarify)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.Equal(t, "zap", cfg.Log.Backend)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoader_LoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, ErrConfigNotFound)

	toml := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(toml, []byte("x = 1"), 0o644))
	_, err = LoadFile(toml)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = LoadFile(dir)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestLoader_Load_InvalidYAML(t *testing.T) {
	_, err := NewLoader().LoadString("model: [unclosed", FormatYAML)
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = NewLoader().LoadString("unknown_section: 1", FormatYAML)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestLoader_Load_JSON(t *testing.T) {
	cfg, err := NewLoader().LoadString(`{"model": {"provider": "openai", "name": "deepseek-chat", "base_url": "https://api.deepseek.com"}}`, FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, "deepseek-chat", cfg.Model.Name)
	assert.Equal(t, "https://api.deepseek.com", cfg.Model.BaseURL)
}

func TestLoader_Load_Validation(t *testing.T) {
	_, err := NewLoader().LoadString("model:\n  provider: cohere\nlog:\n  backend: logrus\n", FormatYAML)
	require.ErrorIs(t, err, ErrValidationFailed)
	assert.Contains(t, err.Error(), "model.provider")
	assert.Contains(t, err.Error(), "log.backend")

	cfg, err := NewLoader(func(l *Loader) { l.Validate = false }).
		LoadString("model:\n  provider: cohere\n", FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "cohere", cfg.Model.Provider)
}

func TestLoader_Load_EmptyUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().LoadString("", FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Model.Provider)
	assert.Equal(t, "tavily", cfg.Search.Provider)
	assert.Equal(t, 25, cfg.Research.MaxGraphSteps)
	assert.Equal(t, 10*time.Minute, cfg.Timeout)
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("RM_SET", "value")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "${RM_SET}", "value"},
		{"unset", "a${RM_UNSET_VAR}b", "ab"},
		{"default", "${RM_UNSET_VAR:-fallback}", "fallback"},
		{"default unused", "${RM_SET:-fallback}", "value"},
		{"dollar kept", "price $5", "price $5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandEnv(tt.input); got != tt.want {
				t.Errorf("ExpandEnv(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExpand_Required(t *testing.T) {
	_, err := NewLoader().LoadString("model:\n  api_key: ${RM_REQUIRED_KEY:?set the model key}\n", FormatYAML)
	require.ErrorIs(t, err, ErrMissingEnvVar)
	assert.Contains(t, err.Error(), "RM_REQUIRED_KEY: set the model key")

	_, err = NewLoader(func(l *Loader) { l.StrictEnv = true }).LoadString("model:\n  api_key: ${RM_UNSET_STRICT}\n", FormatYAML)
	assert.ErrorIs(t, err, ErrMissingEnvVar)
}
