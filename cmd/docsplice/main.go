// Package main provides the entry point for the docsplice CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/docsplice/cmd/docsplice/commands"
	"github.com/Sumatoshi-tech/docsplice/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	// A missing .env is normal; keys may come from the real environment.
	_ = godotenv.Load(".env")

	rootCmd := &cobra.Command{
		Use:   "docsplice",
		Short: "Rewrite Python docstrings in place",
		Long: `docsplice locates Python docstrings, sends each one to a transformer and
splices the answers back into the source, resuming from a checkpoint after failures.

Commands:
  rewrite     Transform docstrings of files and directories
  locate      List the docstrings of a file
  checkpoint  Inspect or clear resume checkpoints`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewRewriteCommand())
	rootCmd.AddCommand(commands.NewLocateCommand())
	rootCmd.AddCommand(commands.NewCheckpointCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
