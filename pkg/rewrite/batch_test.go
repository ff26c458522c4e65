package rewrite_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/docsplice/pkg/rewrite"
)

func TestBatch_FailuresStayIsolated(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := writeSource(t, dir, "a.py", mathSource)
	missing := filepath.Join(dir, "missing.py")
	second := writeSource(t, dir, "b.py", mathSource)

	results := rewrite.Batch(context.Background(), []string{first, missing, second}, 2, testOptions(t, upper()))
	require.Len(t, results, 3)

	assert.Equal(t, first, results[0].Path)
	require.NoError(t, results[0].Err)
	require.ErrorIs(t, results[1].Err, os.ErrNotExist)
	require.NoError(t, results[2].Err)

	for _, res := range []rewrite.Result{results[0], results[2]} {
		out, err := os.ReadFile(res.OutputPath)
		require.NoError(t, err)
		assert.Equal(t, mathUpper, string(out))
	}

	failed := rewrite.Failed(results)
	require.Len(t, failed, 1)
	assert.Equal(t, missing, failed[0].Path)
}

func TestBatch_ZeroWorkersRunsSequentially(t *testing.T) {
	t.Parallel()

	path := writeSource(t, t.TempDir(), "a.py", mathSource)

	results := rewrite.Batch(context.Background(), []string{path}, 0, testOptions(t, upper()))
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Empty(t, rewrite.Failed(results))
}

func TestBatch_ReportsEachFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	paths := []string{
		writeSource(t, dir, "a.py", mathSource),
		writeSource(t, dir, "b.py", mathSource),
		writeSource(t, dir, "c.py", mathSource),
	}

	var (
		mu   sync.Mutex
		seen []string
	)

	opts := testOptions(t, upper())
	opts.OnFile = func(res rewrite.Result) {
		mu.Lock()
		defer mu.Unlock()

		seen = append(seen, res.Path)
	}

	rewrite.Batch(context.Background(), paths, 3, opts)
	assert.ElementsMatch(t, paths, seen)
}
