package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/docsplice/internal/config"
	"github.com/Sumatoshi-tech/docsplice/pkg/docstring"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".docsplice.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_EmptyFile_UsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultFilter, cfg.Filter)
	assert.Equal(t, docstring.FilterAll, cfg.ParsedFilter())
	assert.Equal(t, []string{config.DefaultFilesInclude}, cfg.Files.Include)
	assert.Equal(t, config.DefaultFilesExclude, cfg.Files.Exclude)
	assert.Equal(t, config.DefaultFilesWorkers, cfg.Files.Workers)
	assert.Equal(t, config.DefaultOutputSuffixPrefix, cfg.Output.SuffixPrefix)
	assert.False(t, cfg.Output.Overwrite)
	assert.Equal(t, config.DefaultCheckpointDir, cfg.Checkpoint.Dir)
	assert.Equal(t, config.DefaultCheckpointFormat, cfg.Checkpoint.Format)
	assert.Equal(t, config.ProviderOpenAI, cfg.Transform.Provider)
	assert.Equal(t, config.DefaultTransformModel, cfg.Transform.Model)
	assert.Equal(t, config.DefaultTransformTimeout, cfg.Transform.Timeout)
	assert.Equal(t, config.DefaultLoggingLevel, cfg.Logging.Level)
	assert.Empty(t, cfg.Telemetry.OTLPEndpoint)
}

func TestLoadConfig_ValidFile_Unmarshals(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, `filter: class-only
files:
  include: ["src/**/*.py"]
  workers: 4
output:
  overwrite: true
checkpoint:
  dir: /tmp/cp
  format: json.lz4
  keep: true
transform:
  provider: identity
  temperature: 0.5
  timeout: 30s
  cache_path: /tmp/cache.db
logging:
  level: DEBUG
  json: true
telemetry:
  metrics_file: /tmp/docsplice.prom
`))
	require.NoError(t, err)

	assert.Equal(t, docstring.FilterClass, cfg.ParsedFilter())
	assert.Equal(t, []string{"src/**/*.py"}, cfg.Files.Include)
	assert.Equal(t, 4, cfg.Files.Workers)
	assert.True(t, cfg.Output.Overwrite)
	assert.Equal(t, "json.lz4", cfg.Checkpoint.Format)
	assert.True(t, cfg.Checkpoint.Keep)
	assert.Equal(t, config.ProviderIdentity, cfg.Transform.Provider)
	assert.InDelta(t, 0.5, cfg.Transform.Temperature, 0.001)
	assert.Equal(t, 30*time.Second, cfg.Transform.Timeout)
	assert.Equal(t, "/tmp/cache.db", cfg.Transform.CachePath)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)
	assert.Equal(t, "/tmp/docsplice.prom", cfg.Telemetry.MetricsFile)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		content string
		want    error
	}{
		"filter":      {"filter: methods\n", docstring.ErrInvalidFilter},
		"workers":     {"files:\n  workers: -1\n", config.ErrInvalidWorkers},
		"format":      {"checkpoint:\n  format: gob\n", config.ErrInvalidCheckpointFormat},
		"provider":    {"transform:\n  provider: mlflow\n", config.ErrInvalidProvider},
		"temperature": {"transform:\n  temperature: 3\n", config.ErrInvalidTemperature},
		"level":       {"logging:\n  level: trace\n", config.ErrInvalidLogLevel},
		"prefix":      {"output:\n  suffix_prefix: \"\"\n", config.ErrEmptyOutputPrefix},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, tt.content))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(writeConfig(t, "filter: [unclosed\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

//nolint:paralleltest // t.Setenv is incompatible with t.Parallel.
func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	t.Setenv("DOCSPLICE_TRANSFORM_MODEL", "gpt-test")
	t.Setenv("DOCSPLICE_FILES_WORKERS", "3")

	cfg, err := config.LoadConfig(writeConfig(t, "transform:\n  model: from-file\n"))
	require.NoError(t, err)

	assert.Equal(t, "gpt-test", cfg.Transform.Model)
	assert.Equal(t, 3, cfg.Files.Workers)
}

func TestValidate_ZeroConfigIsInvalid(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}
	require.Error(t, cfg.Validate())
}
