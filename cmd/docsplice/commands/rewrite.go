package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/docsplice/internal/config"
	"github.com/Sumatoshi-tech/docsplice/internal/discover"
	"github.com/Sumatoshi-tech/docsplice/pkg/docstring"
	"github.com/Sumatoshi-tech/docsplice/pkg/observability"
	"github.com/Sumatoshi-tech/docsplice/pkg/rewrite"
	"github.com/Sumatoshi-tech/docsplice/pkg/splice"
	"github.com/Sumatoshi-tech/docsplice/pkg/version"
)

// ErrFilesFailed is returned when at least one file could not be rewritten.
var ErrFilesFailed = errors.New("some files failed")

// progressWidth is the width of the progress bar in columns.
const progressWidth = 40

// RewriteCommand holds the flags for the rewrite command.
type RewriteCommand struct {
	filter         string
	provider       string
	overwrite      bool
	dryRun         bool
	showDiff       bool
	keepCheckpoint bool
	noColor        bool
	quiet          bool
	workers        int
}

// NewRewriteCommand creates and configures the rewrite command.
func NewRewriteCommand() *cobra.Command {
	cmd := &RewriteCommand{}

	cobraCmd := &cobra.Command{
		Use:   "rewrite [paths...]",
		Short: "Transform the docstrings of Python files",
		Long: `Transform the docstrings of Python files and directories (default: the current
directory). Each docstring is checkpointed as soon as it is transformed, so an
interrupted run picks up where it stopped.`,
		RunE: cmd.Run,
	}

	addConfigFlag(cobraCmd, false)

	flags := cobraCmd.Flags()
	flags.StringVarP(&cmd.filter, flagFilter, "f", config.DefaultFilter, "Docstrings to rewrite: all, function, module or class")
	flags.StringVar(&cmd.provider, "provider", config.DefaultTransformProvider, "Transformer: openai or identity")
	flags.BoolVar(&cmd.overwrite, "overwrite", false, "Rewrite files in place instead of writing _<name> beside them")
	flags.BoolVar(&cmd.dryRun, "dry-run", false, "Transform but write nothing; implies --diff")
	flags.BoolVar(&cmd.showDiff, "diff", false, "Print a diff of every changed file")
	flags.BoolVar(&cmd.keepCheckpoint, "keep-checkpoint", false, "Keep checkpoints after successful runs")
	flags.IntVarP(&cmd.workers, "workers", "w", config.DefaultFilesWorkers, "Files processed concurrently")
	flags.BoolVar(&cmd.noColor, flagNoColor, false, "Disable colored output")
	flags.BoolVarP(&cmd.quiet, "quiet", "q", false, "Suppress progress and summary output")

	return cobraCmd
}

// Run executes the rewrite command.
func (c *RewriteCommand) Run(cmd *cobra.Command, args []string) error {
	applyColor(c.noColor)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	c.applyFlags(cmd, cfg)

	err = cfg.Validate()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	roots := args
	if len(roots) == 0 {
		roots = []string{"."}
	}

	files, err := discover.Files(roots, discover.Options{
		Include: cfg.Files.Include,
		Exclude: cfg.Files.Exclude,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := observability.Init(observabilityConfig(cfg, c.dryRun, cmd.ErrOrStderr()))
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.WithoutCancel(ctx))
		if shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	if !cfg.Output.Overwrite {
		files = dropOutputs(files, cfg.Output.SuffixPrefix, providers.Logger)
	}

	metrics, err := observability.NewRewriteMetrics(providers.Meter)
	if err != nil {
		return err
	}

	stack, err := newTransformer(cfg)
	if err != nil {
		return err
	}
	defer stack.Close()

	codec, err := checkpointCodec(cfg)
	if err != nil {
		return err
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}

	bar := c.newProgressBar(cmd.ErrOrStderr(), len(paths))

	opts := rewrite.Options{
		Filter:          cfg.ParsedFilter(),
		Transformer:     stack,
		CheckpointDir:   cfg.Checkpoint.Dir,
		CheckpointCodec: codec,
		KeepCheckpoint:  cfg.Checkpoint.Keep,
		Overwrite:       cfg.Output.Overwrite,
		OutputPrefix:    cfg.Output.SuffixPrefix,
		DryRun:          c.dryRun,
		WithDiff:        c.showDiff,
		Logger:          providers.Logger,
		Observer:        splice.NewLogObserver(providers.Logger),
		Metrics:         metrics,
		Tracer:          providers.Tracer,
		OnFile: func(rewrite.Result) {
			if bar != nil {
				_ = bar.Add(1)
			}
		},
	}

	providers.Logger.InfoContext(ctx, "rewrite started",
		"files", len(paths), "provider", cfg.Transform.Provider, "workers", cfg.Files.Workers)

	start := time.Now()
	results := rewrite.Batch(ctx, paths, cfg.Files.Workers, opts)

	if bar != nil {
		_ = bar.Finish()
	}

	hits, misses := stack.cacheStats()
	metrics.RecordCache(ctx, hits, misses)

	out := cmd.OutOrStdout()

	if c.dryRun || c.showDiff {
		printDiffs(out, results)
	}

	if !c.quiet {
		printSummary(out, results, time.Since(start))
	}

	return reportFailures(cmd.ErrOrStderr(), results)
}

// applyFlags lets explicitly set flags override the loaded configuration.
func (c *RewriteCommand) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed(flagFilter) {
		cfg.Filter = c.filter
	}

	if flags.Changed("provider") {
		cfg.Transform.Provider = c.provider
	}

	if flags.Changed("overwrite") {
		cfg.Output.Overwrite = c.overwrite
	}

	if flags.Changed("keep-checkpoint") {
		cfg.Checkpoint.Keep = c.keepCheckpoint
	}

	if flags.Changed("workers") {
		cfg.Files.Workers = c.workers
	}
}

func (c *RewriteCommand) newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	if c.quiet || total == 0 {
		return nil
	}

	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(!color.NoColor),
		progressbar.OptionSetWidth(progressWidth),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Rewriting[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}

// dropOutputs removes side-by-side output of earlier runs. A file named prefix+name is
// dropped only when name exists beside it and the two differ in nothing but their
// docstrings, so a real module such as _version.py next to version.py is kept.
func dropOutputs(files []discover.File, prefix string, logger *slog.Logger) []discover.File {
	kept := files[:0:0]

	for _, f := range files {
		base := filepath.Base(f.Path)

		if source, ok := strings.CutPrefix(base, prefix); ok && source != "" {
			sourcePath := filepath.Join(filepath.Dir(f.Path), source)
			if isOutputOf(f.Path, sourcePath) {
				logger.Debug("skipping output of an earlier run", "path", f.Path, "source", sourcePath)

				continue
			}
		}

		kept = append(kept, f)
	}

	return kept
}

// isOutputOf reports whether candidate has the same code as source once the docstrings
// of both are removed. Unreadable or unparsable files are never outputs.
func isOutputOf(candidate, source string) bool {
	want, err := codeWithoutDocstrings(source)
	if err != nil {
		return false
	}

	got, err := codeWithoutDocstrings(candidate)
	if err != nil {
		return false
	}

	return got == want
}

func codeWithoutDocstrings(path string) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	units, err := docstring.Locate(src, docstring.FilterAll)
	if err != nil {
		return "", fmt.Errorf("locate docstrings in %s: %w", path, err)
	}

	ranges := make([]splice.Range, len(units))
	for i, unit := range units {
		start, end := unit.Span()
		ranges[i] = splice.Range{Start: start, End: end}
	}

	chunks, err := splice.Partition(splice.SplitLines(string(src)), ranges)
	if err != nil {
		return "", err
	}

	var sb strings.Builder

	for chunk := range chunks {
		sb.WriteString(splice.Join(chunk))
	}

	return sb.String(), nil
}

func observabilityConfig(cfg *config.Config, dryRun bool, logWriter io.Writer) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.RunID = uuid.NewString()
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.MetricsFile = cfg.Telemetry.MetricsFile
	obsCfg.LogLevel = observability.ParseLevel(cfg.Logging.Level)
	obsCfg.LogJSON = cfg.Logging.JSON
	obsCfg.LogWriter = logWriter

	if dryRun {
		obsCfg.Mode = observability.ModeDryRun
	}

	return obsCfg
}

func printDiffs(w io.Writer, results []rewrite.Result) {
	header := color.New(color.Bold)

	for _, res := range results {
		if res.Err != nil || res.Diff == "" {
			continue
		}

		header.Fprintf(w, "--- %s\n+++ %s\n", res.Path, res.OutputPath)

		for _, line := range splice.SplitLines(res.Diff) {
			switch line[0] {
			case '-':
				color.New(color.FgRed).Fprint(w, line)
			case '+':
				color.New(color.FgGreen).Fprint(w, line)
			default:
				fmt.Fprint(w, line)
			}
		}
	}
}

func printSummary(w io.Writer, results []rewrite.Result, elapsed time.Duration) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"File", "Docstrings", "Transformed", "Resumed", "Missing", "Output", "Status"})

	var units, transformed, failed int

	for _, res := range results {
		status := color.GreenString("ok")

		switch {
		case res.Err != nil:
			status = color.RedString("failed")
			failed++
		case !res.Changed:
			status = "unchanged"
		}

		units += res.Units
		transformed += res.Transformed

		tbl.AppendRow(table.Row{
			res.Path, res.Units, res.Transformed, res.Resumed, res.Missing,
			humanize.Bytes(uint64(res.Bytes)), status, //nolint:gosec // sizes are non-negative
		})
	}

	tbl.AppendFooter(table.Row{
		fmt.Sprintf("%d files", len(results)), units, transformed, "", "",
		elapsed.Round(time.Millisecond).String(), fmt.Sprintf("%d failed", failed),
	})
	tbl.Render()
}

// reportFailures prints one "path: diagnostic" line per failed file.
func reportFailures(w io.Writer, results []rewrite.Result) error {
	failed := rewrite.Failed(results)

	for _, res := range failed {
		color.New(color.FgRed).Fprintf(w, "%s: %v\n", res.Path, res.Err)
	}

	if len(failed) > 0 {
		return fmt.Errorf("%w: %d of %d", ErrFilesFailed, len(failed), len(results))
	}

	return nil
}
