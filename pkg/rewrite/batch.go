package rewrite

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Batch rewrites paths with up to workers files in flight. Each file owns its own
// checkpoint, so files are independent: a failure is recorded in that file's Result.Err
// and the rest of the batch continues. Results follow the order of paths.
func Batch(ctx context.Context, paths []string, workers int, opts Options) []Result {
	if workers < 1 {
		workers = 1
	}

	results := make([]Result, len(paths))

	var group errgroup.Group

	group.SetLimit(workers)

	for i, path := range paths {
		group.Go(func() error {
			res, err := File(ctx, path, opts)
			res.Err = err
			results[i] = res

			if opts.OnFile != nil {
				opts.OnFile(res)
			}

			if err != nil && opts.Logger != nil {
				opts.Logger.ErrorContext(ctx, "rewrite failed", "path", path, "error", err)
			}

			return nil
		})
	}

	_ = group.Wait()

	return results
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var failed []Result

	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}

	return failed
}
