package config

import "time"

// Top-level defaults.
const (
	DefaultFilter = "all"
)

// File discovery defaults.
const (
	DefaultFilesWorkers = 1
	DefaultFilesInclude = "**/*.py"
)

// DefaultFilesExclude lists glob patterns skipped during discovery.
var DefaultFilesExclude = []string{"**/.venv/**", "**/venv/**", "**/site-packages/**", "**/.git/**"}

// Output defaults.
const (
	DefaultOutputOverwrite    = false
	DefaultOutputSuffixPrefix = "_"
)

// Checkpoint defaults.
const (
	DefaultCheckpointDir    = ".docsplice/checkpoints"
	DefaultCheckpointFormat = "json"
	DefaultCheckpointKeep   = false
)

// Transform defaults.
const (
	DefaultTransformProvider    = ProviderOpenAI
	DefaultTransformModel       = "gpt-4o-mini"
	DefaultTransformAPIKeyEnv   = "OPENAI_API_KEY"
	DefaultTransformTemperature = 0.0
	DefaultTransformTimeout     = 2 * time.Minute
)

// Logging defaults.
const (
	DefaultLoggingLevel = "info"
	DefaultLoggingJSON  = false
)
