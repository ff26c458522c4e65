package rewrite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Sumatoshi-tech/docsplice/pkg/checkpoint"
	"github.com/Sumatoshi-tech/docsplice/pkg/docstring"
	"github.com/Sumatoshi-tech/docsplice/pkg/observability"
	"github.com/Sumatoshi-tech/docsplice/pkg/splice"
)

var (
	// ErrNoTransformer is returned when Options.Transformer is nil.
	ErrNoTransformer = errors.New("rewrite: no transformer configured")
	// ErrIncomplete is returned when the checkpoint is not complete after every unit was
	// processed, which means another process changed it underneath this run.
	ErrIncomplete = errors.New("rewrite: checkpoint incomplete after processing")
)

// Result describes the outcome for one file.
type Result struct {
	Path       string
	OutputPath string
	// Units is the number of docstrings located.
	Units int
	// Transformed counts docstrings sent to the transformer in this run.
	Transformed int
	// Resumed counts docstrings taken from an existing checkpoint.
	Resumed int
	// Missing counts docstrings dropped from the output for lack of a replacement.
	Missing int
	// Changed reports whether the output differs from the source.
	Changed bool
	// Bytes is the size of the output.
	Bytes    int
	Diff     string
	Duration time.Duration
	// Err is set by Batch when the file failed.
	Err error
}

// File rewrites one source file. Docstrings are transformed one at a time and each
// answer is checkpointed before the next call, so a failed or cancelled run resumes
// from the last completed docstring. Once every docstring is done the file is spliced,
// written and the checkpoint removed.
func File(ctx context.Context, path string, opts Options) (res Result, err error) {
	if opts.Transformer == nil {
		return Result{Path: path}, ErrNoTransformer
	}

	opts = opts.withDefaults()
	start := time.Now()

	ctx, span := opts.Tracer.Start(ctx, "rewrite.file")
	span.SetAttributes(attribute.String("file.path", path))

	defer func() {
		res.Duration = time.Since(start)

		status := observability.StatusOK
		if err != nil {
			status = observability.StatusError

			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		opts.Metrics.RecordFile(ctx, status)
		span.End()
	}()

	res = Result{Path: path, OutputPath: OutputPath(path, opts.Overwrite, opts.OutputPrefix)}

	src, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("read source: %w", err)
	}

	units, err := docstring.LocateContext(ctx, src, opts.Filter)
	if err != nil {
		return res, fmt.Errorf("locate docstrings: %w", err)
	}

	res.Units = len(units)
	span.SetAttributes(attribute.Int("docstring.count", len(units)))

	completed, store, err := complete(ctx, path, units, opts, &res)
	if err != nil {
		return res, err
	}

	collector := &splice.Collector{}

	lines, err := splice.Reconstruct(splice.SplitLines(string(src)), completed, splice.Tee(opts.Observer, collector))
	if err != nil {
		return res, fmt.Errorf("reconstruct: %w", err)
	}

	res.Missing = collector.Len()
	opts.Metrics.RecordMissing(ctx, res.Missing)

	output := splice.Join(lines)
	res.Changed = output != string(src)
	res.Bytes = len(output)

	if opts.DryRun || opts.WithDiff {
		res.Diff = Diff(string(src), output)
	}

	if opts.DryRun {
		return res, nil
	}

	if res.Changed || !opts.Overwrite {
		err = writeOutput(res.OutputPath, path, []byte(output))
		if err != nil {
			return res, err
		}
	}

	if store != nil && !opts.KeepCheckpoint {
		err = store.Delete()
		if err != nil {
			return res, err
		}
	}

	opts.Logger.DebugContext(ctx, "file rewritten",
		"path", path, "output", res.OutputPath, "units", res.Units,
		"transformed", res.Transformed, "resumed", res.Resumed)

	return res, nil
}

// complete brings every unit to the completed state through the checkpoint and returns
// the completed units in order. Files without docstrings get no checkpoint.
func complete(
	ctx context.Context, path string, units []docstring.Unit, opts Options, res *Result,
) ([]docstring.Unit, *checkpoint.Store, error) {
	if len(units) == 0 {
		return nil, nil, nil
	}

	cpPath := checkpoint.Path(opts.CheckpointDir, path, opts.CheckpointCodec)

	store, err := checkpoint.Open(cpPath,
		checkpoint.WithExpectedCount(len(units)),
		checkpoint.WithCodec(opts.CheckpointCodec),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("open checkpoint: %w", err)
	}

	err = store.Verify(units)
	if err != nil {
		return nil, nil, fmt.Errorf("resume %s: %w", cpPath, err)
	}

	done := store.Len()
	res.Resumed = done

	for _, unit := range units[:done] {
		opts.Metrics.RecordUnit(ctx, unit.Kind.String(), observability.OutcomeResumed)
	}

	if done > 0 {
		opts.Logger.InfoContext(ctx, "resuming from checkpoint",
			"path", path, "completed", done, "total", len(units))
	}

	for i := done; i < len(units); i++ {
		err = ctx.Err()
		if err != nil {
			return nil, nil, err
		}

		err = transformOne(ctx, store, units[i], opts)
		if err != nil {
			return nil, nil, err
		}

		res.Transformed++

		if opts.OnUnit != nil {
			opts.OnUnit(path, i+1, len(units))
		}
	}

	finished, err := store.IsComplete()
	if err != nil {
		return nil, nil, err
	}

	if !finished {
		return nil, nil, fmt.Errorf("%w: %s", ErrIncomplete, cpPath)
	}

	return store.AllCompleted(), store, nil
}

func transformOne(ctx context.Context, store *checkpoint.Store, unit docstring.Unit, opts Options) error {
	started := time.Now()

	answer, err := opts.Transformer.Transform(ctx, unit.Text)
	if err != nil {
		opts.Metrics.RecordTransform(ctx, observability.StatusError, time.Since(started))

		return fmt.Errorf("transform %s docstring at line %d: %w", unit.Kind, unit.StartLine, err)
	}

	opts.Metrics.RecordTransform(ctx, observability.StatusOK, time.Since(started))

	err = store.Append(unit.WithReplacement(docstring.Quote(unit, answer)))
	if err != nil {
		return err
	}

	opts.Metrics.RecordUnit(ctx, unit.Kind.String(), observability.OutcomeTransformed)

	return nil
}

// writeOutput atomically writes data to dst with the permissions of src.
func writeOutput(dst, src string, data []byte) error {
	perm := os.FileMode(0o644)

	if info, err := os.Stat(src); err == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	tmpPath := tmp.Name()

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Sync()
	}

	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}

	if err == nil {
		err = os.Chmod(tmpPath, perm)
	}

	if err == nil {
		err = os.Rename(tmpPath, dst)
	}

	if err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("write output %s: %w", dst, err)
	}

	return nil
}
