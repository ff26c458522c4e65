package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/docsplice/internal/config"
	"github.com/Sumatoshi-tech/docsplice/pkg/checkpoint"
)

// NewCheckpointCommand creates the checkpoint command group.
func NewCheckpointCommand() *cobra.Command {
	cobraCmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Inspect or clear resume checkpoints",
	}

	addConfigFlag(cobraCmd, true)

	cobraCmd.AddCommand(newCheckpointStatusCommand())
	cobraCmd.AddCommand(newCheckpointClearCommand())

	return cobraCmd
}

func newCheckpointStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <file>",
		Short: "Show how far the checkpoint of a file has progressed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := checkpointPath(cmd, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			info, err := os.Stat(path)
			if errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintf(out, "%s: no checkpoint\n", args[0])

				return nil
			}

			if err != nil {
				return fmt.Errorf("stat checkpoint: %w", err)
			}

			codec, err := checkpointCodec(cfg)
			if err != nil {
				return err
			}

			store, err := checkpoint.Open(path, checkpoint.WithCodec(codec))
			if err != nil {
				return err
			}

			state := color.YellowString("in progress")

			done, err := store.IsComplete()
			if err != nil {
				return err
			}

			if done {
				state = color.GreenString("complete")
			}

			fmt.Fprintf(out, "%s: %d/%d docstrings, %s\n", args[0], store.Len(), store.ExpectedCount(), state)
			fmt.Fprintf(out, "  checkpoint: %s (%s, updated %s)\n",
				path, humanize.Bytes(uint64(info.Size())), humanize.Time(info.ModTime())) //nolint:gosec // file sizes are non-negative

			return nil
		},
	}
}

func newCheckpointClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [file]",
		Short: "Delete the checkpoint of a file, or every checkpoint",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}

				err = checkpoint.Clear(cfg.Checkpoint.Dir)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", cfg.Checkpoint.Dir)

				return nil
			}

			_, path, err := checkpointPath(cmd, args[0])
			if err != nil {
				return err
			}

			err = os.Remove(path)
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("delete checkpoint: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "cleared checkpoint of %s\n", args[0])

			return nil
		},
	}
}

// checkpointPath resolves the checkpoint file of source under the configured directory.
func checkpointPath(cmd *cobra.Command, source string) (*config.Config, string, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, "", err
	}

	codec, err := checkpointCodec(cfg)
	if err != nil {
		return nil, "", err
	}

	return cfg, checkpoint.Path(cfg.Checkpoint.Dir, source, codec), nil
}
