// Package config loads docsplice settings from a YAML file, the environment and defaults.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Sumatoshi-tech/docsplice/pkg/docstring"
)

// Transformation providers.
const (
	ProviderOpenAI   = "openai"
	ProviderIdentity = "identity"
)

// Config is the top-level configuration struct for docsplice.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Filter     string           `mapstructure:"filter"`
	Files      FilesConfig      `mapstructure:"files"`
	Output     OutputConfig     `mapstructure:"output"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Transform  TransformConfig  `mapstructure:"transform"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// FilesConfig controls which files are discovered and how many run at once.
type FilesConfig struct {
	Include []string `mapstructure:"include"`
	Exclude []string `mapstructure:"exclude"`
	Workers int      `mapstructure:"workers"`
}

// OutputConfig controls where rewritten files are written.
type OutputConfig struct {
	Overwrite    bool   `mapstructure:"overwrite"`
	SuffixPrefix string `mapstructure:"suffix_prefix"`
}

// CheckpointConfig holds checkpoint settings.
type CheckpointConfig struct {
	Dir    string `mapstructure:"dir"`
	Format string `mapstructure:"format"`
	Keep   bool   `mapstructure:"keep"`
}

// TransformConfig selects and configures the docstring transformer.
type TransformConfig struct {
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	APIKeyEnv   string        `mapstructure:"api_key_env"`
	ContextPath string        `mapstructure:"context_path"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	CachePath   string        `mapstructure:"cache_path"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig holds tracing and metrics export settings.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	MetricsFile  string `mapstructure:"metrics_file"`
}

// temperatureMax is the upper bound accepted by chat completion APIs.
const temperatureMax = 2.0

var (
	checkpointFormats = []string{"json", "json.lz4"}
	providers         = []string{ProviderOpenAI, ProviderIdentity}
	logLevels         = []string{"debug", "info", "warn", "error"}
)

// Sentinel errors for configuration validation.
var (
	// ErrInvalidWorkers indicates the workers value is negative.
	ErrInvalidWorkers = errors.New("files.workers must be non-negative")
	// ErrInvalidCheckpointFormat indicates an unsupported checkpoint format.
	ErrInvalidCheckpointFormat = errors.New("checkpoint.format must be json or json.lz4")
	// ErrInvalidProvider indicates an unknown transformer provider.
	ErrInvalidProvider = errors.New("transform.provider must be openai or identity")
	// ErrInvalidTemperature indicates the temperature is out of range.
	ErrInvalidTemperature = errors.New("transform.temperature must be between 0 and 2")
	// ErrInvalidTimeout indicates a negative timeout.
	ErrInvalidTimeout = errors.New("transform.timeout must be non-negative")
	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("logging.level must be debug, info, warn or error")
	// ErrEmptyOutputPrefix indicates side-by-side output would overwrite the source.
	ErrEmptyOutputPrefix = errors.New("output.suffix_prefix must be set unless output.overwrite is true")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	_, err := docstring.ParseFilter(c.Filter)
	if err != nil {
		return fmt.Errorf("filter: %w", err)
	}

	err = c.validateRun()
	if err != nil {
		return err
	}

	return c.validateTransform()
}

func (c *Config) validateRun() error {
	if c.Files.Workers < 0 {
		return ErrInvalidWorkers
	}

	if !c.Output.Overwrite && c.Output.SuffixPrefix == "" {
		return ErrEmptyOutputPrefix
	}

	if !slices.Contains(checkpointFormats, c.Checkpoint.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidCheckpointFormat, c.Checkpoint.Format)
	}

	if !slices.Contains(logLevels, c.Logging.Level) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	return nil
}

func (c *Config) validateTransform() error {
	tc := c.Transform

	if !slices.Contains(providers, tc.Provider) {
		return fmt.Errorf("%w: %q", ErrInvalidProvider, tc.Provider)
	}

	if tc.Temperature < 0 || tc.Temperature > temperatureMax {
		return ErrInvalidTemperature
	}

	if tc.Timeout < 0 {
		return ErrInvalidTimeout
	}

	return nil
}

// ParsedFilter returns the validated unit filter.
func (c *Config) ParsedFilter() docstring.Filter {
	filter, err := docstring.ParseFilter(c.Filter)
	if err != nil {
		return docstring.FilterAll
	}

	return filter
}
