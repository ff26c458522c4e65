// Package commands implements the docsplice subcommands.
package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/docsplice/internal/config"
	"github.com/Sumatoshi-tech/docsplice/pkg/persist"
)

const (
	flagConfig  = "config"
	flagFilter  = "filter"
	flagNoColor = "no-color"
)

// addConfigFlag registers the --config flag shared by commands that read settings.
func addConfigFlag(cmd *cobra.Command, persistent bool) {
	flags := cmd.Flags()
	if persistent {
		flags = cmd.PersistentFlags()
	}

	flags.String(flagConfig, "", "Path to config file (default: .docsplice.yaml in CWD or $HOME)")
}

// loadConfig reads configuration honouring --config and validates it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString(flagConfig)
	if err != nil {
		configPath = ""
	}

	return config.LoadConfig(configPath)
}

// checkpointCodec returns the codec configured for checkpoint files.
func checkpointCodec(cfg *config.Config) (persist.Codec, error) {
	return persist.CodecFor(cfg.Checkpoint.Format)
}

// applyColor disables colored output when requested.
func applyColor(noColor bool) {
	if noColor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	}
}
