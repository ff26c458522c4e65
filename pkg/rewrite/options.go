// Package rewrite drives the full locate, transform, checkpoint and splice cycle for
// Python source files.
package rewrite

import (
	"log/slog"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/docsplice/pkg/checkpoint"
	"github.com/Sumatoshi-tech/docsplice/pkg/docstring"
	"github.com/Sumatoshi-tech/docsplice/pkg/observability"
	"github.com/Sumatoshi-tech/docsplice/pkg/persist"
	"github.com/Sumatoshi-tech/docsplice/pkg/splice"
	"github.com/Sumatoshi-tech/docsplice/pkg/transform"
)

// DefaultOutputPrefix is prepended to the file name of side-by-side output.
const DefaultOutputPrefix = "_"

// UnitFunc is called after each docstring of a file is completed.
type UnitFunc func(path string, done, total int)

// FileFunc is called by Batch once a file has finished, successfully or not.
type FileFunc func(res Result)

// Options configures a rewrite.
type Options struct {
	// Filter selects which docstrings are rewritten.
	Filter docstring.Filter
	// Transformer produces replacement text. Required.
	Transformer transform.Transformer

	// CheckpointDir holds one checkpoint per source file. Empty means checkpoint.DefaultDir.
	CheckpointDir string
	// CheckpointCodec encodes checkpoint files. Nil means pretty-printed JSON.
	CheckpointCodec persist.Codec
	// KeepCheckpoint leaves the checkpoint on disk after a successful run.
	KeepCheckpoint bool

	// Overwrite writes the result over the source instead of beside it.
	Overwrite bool
	// OutputPrefix names side-by-side output. Empty means DefaultOutputPrefix.
	OutputPrefix string
	// DryRun transforms and reconstructs without writing output or deleting checkpoints.
	DryRun bool
	// WithDiff fills Result.Diff. Dry runs always compute it.
	WithDiff bool

	Logger   *slog.Logger
	Observer splice.Observer
	Metrics  *observability.RewriteMetrics
	Tracer   trace.Tracer
	OnUnit   UnitFunc
	OnFile   FileFunc
}

func (o *Options) withDefaults() Options {
	out := *o

	if out.CheckpointDir == "" {
		out.CheckpointDir = checkpoint.DefaultDir
	}

	if out.CheckpointCodec == nil {
		out.CheckpointCodec = persist.NewJSONCodec()
	}

	if out.OutputPrefix == "" {
		out.OutputPrefix = DefaultOutputPrefix
	}

	if out.Logger == nil {
		out.Logger = slog.Default()
	}

	if out.Tracer == nil {
		out.Tracer = otel.Tracer("docsplice/rewrite")
	}

	return out
}

// OutputPath returns where the rewritten form of path is written: path itself when
// overwriting, otherwise a sibling whose name is prefix plus the original name.
func OutputPath(path string, overwrite bool, prefix string) string {
	if overwrite {
		return path
	}

	if prefix == "" {
		prefix = DefaultOutputPrefix
	}

	return filepath.Join(filepath.Dir(path), prefix+filepath.Base(path))
}
