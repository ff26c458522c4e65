package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".docsplice"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for docsplice settings.
const envPrefix = "DOCSPLICE"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("filter", DefaultFilter)

	viperCfg.SetDefault("files.include", []string{DefaultFilesInclude})
	viperCfg.SetDefault("files.exclude", DefaultFilesExclude)
	viperCfg.SetDefault("files.workers", DefaultFilesWorkers)

	viperCfg.SetDefault("output.overwrite", DefaultOutputOverwrite)
	viperCfg.SetDefault("output.suffix_prefix", DefaultOutputSuffixPrefix)

	viperCfg.SetDefault("checkpoint.dir", DefaultCheckpointDir)
	viperCfg.SetDefault("checkpoint.format", DefaultCheckpointFormat)
	viperCfg.SetDefault("checkpoint.keep", DefaultCheckpointKeep)

	viperCfg.SetDefault("transform.provider", DefaultTransformProvider)
	viperCfg.SetDefault("transform.model", DefaultTransformModel)
	viperCfg.SetDefault("transform.base_url", "")
	viperCfg.SetDefault("transform.api_key_env", DefaultTransformAPIKeyEnv)
	viperCfg.SetDefault("transform.context_path", "")
	viperCfg.SetDefault("transform.temperature", DefaultTransformTemperature)
	viperCfg.SetDefault("transform.timeout", DefaultTransformTimeout)
	viperCfg.SetDefault("transform.cache_path", "")

	viperCfg.SetDefault("logging.level", DefaultLoggingLevel)
	viperCfg.SetDefault("logging.json", DefaultLoggingJSON)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.metrics_file", "")
}
