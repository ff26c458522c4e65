package rewrite_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/docsplice/pkg/checkpoint"
	"github.com/Sumatoshi-tech/docsplice/pkg/docstring"
	"github.com/Sumatoshi-tech/docsplice/pkg/persist"
	"github.com/Sumatoshi-tech/docsplice/pkg/rewrite"
	"github.com/Sumatoshi-tech/docsplice/pkg/transform"
)

const mathSource = `"""Old module doc."""

def add(a, b):
    """Add two numbers."""
    return a + b


def sub(a, b):
    """Subtract."""
    return a - b
`

const mathUpper = `"""OLD MODULE DOC."""

def add(a, b):
    """ADD TWO NUMBERS."""
    return a + b


def sub(a, b):
    """SUBTRACT."""
    return a - b
`

var errBoom = errors.New("boom")

func upper() transform.Transformer {
	return transform.Func(func(_ context.Context, text string) (string, error) {
		return strings.ToUpper(text), nil
	})
}

// counting wraps a transformer and counts calls.
type counting struct {
	inner transform.Transformer
	calls atomic.Int64
}

func (c *counting) Transform(ctx context.Context, text string) (string, error) {
	c.calls.Add(1)

	return c.inner.Transform(ctx, text)
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func testOptions(t *testing.T, tr transform.Transformer) rewrite.Options {
	t.Helper()

	return rewrite.Options{
		Transformer:   tr,
		CheckpointDir: filepath.Join(t.TempDir(), "checkpoints"),
		Logger:        slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	}
}

func TestFile_WritesSideBySideAndDeletesCheckpoint(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeSource(t, dir, "math.py", mathSource)
	opts := testOptions(t, upper())

	res, err := rewrite.File(context.Background(), path, opts)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "_math.py"), res.OutputPath)
	assert.Equal(t, 3, res.Units)
	assert.Equal(t, 3, res.Transformed)
	assert.Zero(t, res.Resumed)
	assert.Zero(t, res.Missing)
	assert.True(t, res.Changed)
	assert.Equal(t, len(mathUpper), res.Bytes)

	out, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)

	if diff := cmp.Diff(mathUpper, string(out)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}

	src, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, mathSource, string(src), "source is untouched")

	assert.NoFileExists(t, checkpoint.Path(opts.CheckpointDir, path, persist.NewJSONCodec()))
}

func TestFile_IdentityRoundTripIsUnchanged(t *testing.T) {
	t.Parallel()

	path := writeSource(t, t.TempDir(), "math.py", mathSource)
	opts := testOptions(t, transform.Identity{})
	opts.Overwrite = true

	res, err := rewrite.File(context.Background(), path, opts)
	require.NoError(t, err)

	assert.Equal(t, path, res.OutputPath)
	assert.False(t, res.Changed)

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, mathSource, string(out))
}

func TestFile_IdentityRoundTripEdgeCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
	}{
		{"text ends in a quote", "def f():\n    \"\"\"Return the string \"x\" \"\"\"\n    return 'x'\n"},
		{"trailing comment", "def f():\n    \"\"\"Doc.\"\"\"  # noqa: D401\n    return 1\n"},
		{"multi-line with trailing comment", "class A:\n    \"\"\"One.\n\n    Two.\n    \"\"\"  # pragma: no cover\n\n    x = 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeSource(t, t.TempDir(), "edge.py", tt.source)

			res, err := rewrite.File(context.Background(), path, testOptions(t, transform.Identity{}))
			require.NoError(t, err)
			assert.Equal(t, 1, res.Units)
			assert.False(t, res.Changed)

			out, err := os.ReadFile(res.OutputPath)
			require.NoError(t, err)

			if diff := cmp.Diff(tt.source, string(out)); diff != "" {
				t.Errorf("identity rewrite changed the file (-want +got):\n%s", diff)
			}

			units, err := docstring.Locate(out, docstring.FilterAll)
			require.NoError(t, err)
			assert.Len(t, units, 1, "output still parses with its docstring")
		})
	}
}

func TestFile_NoDocstringsLeavesContentUnchanged(t *testing.T) {
	t.Parallel()

	const plain = "import os\n\nprint(os.getcwd())\n"

	dir := t.TempDir()
	path := writeSource(t, dir, "plain.py", plain)
	opts := testOptions(t, upper())

	res, err := rewrite.File(context.Background(), path, opts)
	require.NoError(t, err)

	assert.Zero(t, res.Units)
	assert.False(t, res.Changed)

	out, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, plain, string(out))
	assert.NoDirExists(t, opts.CheckpointDir, "no checkpoint for a file without docstrings")
}

func TestFile_ResumesAfterFailure(t *testing.T) {
	t.Parallel()

	path := writeSource(t, t.TempDir(), "math.py", mathSource)

	var calls atomic.Int64

	failing := transform.Func(func(ctx context.Context, text string) (string, error) {
		if calls.Add(1) == 2 {
			return "", errBoom
		}

		return upper().Transform(ctx, text)
	})

	opts := testOptions(t, failing)

	res, err := rewrite.File(context.Background(), path, opts)
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, res.Transformed)
	assert.NoFileExists(t, res.OutputPath)

	cpPath := checkpoint.Path(opts.CheckpointDir, path, persist.NewJSONCodec())
	require.FileExists(t, cpPath)

	store, err := checkpoint.Open(cpPath)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 3, store.ExpectedCount())

	second := &counting{inner: upper()}
	opts.Transformer = second

	res, err = rewrite.File(context.Background(), path, opts)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Resumed)
	assert.Equal(t, 2, res.Transformed)
	assert.Equal(t, int64(2), second.calls.Load(), "completed docstrings are not transformed again")

	out, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, mathUpper, string(out))
	assert.NoFileExists(t, cpPath)
}

func TestFile_CancelledBetweenDocstrings(t *testing.T) {
	t.Parallel()

	path := writeSource(t, t.TempDir(), "math.py", mathSource)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cancelling := transform.Func(func(_ context.Context, text string) (string, error) {
		cancel()

		return strings.ToUpper(text), nil
	})

	opts := testOptions(t, cancelling)

	res, err := rewrite.File(ctx, path, opts)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, res.Transformed)

	store, err := checkpoint.Open(checkpoint.Path(opts.CheckpointDir, path, persist.NewJSONCodec()))
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len(), "the answer received before cancellation is kept")
}

func TestFile_StaleCheckpoint(t *testing.T) {
	t.Parallel()

	path := writeSource(t, t.TempDir(), "math.py", mathSource)

	failing := transform.Func(func(ctx context.Context, text string) (string, error) {
		if strings.HasPrefix(text, "Add") {
			return "", errBoom
		}

		return upper().Transform(ctx, text)
	})

	opts := testOptions(t, failing)

	_, err := rewrite.File(context.Background(), path, opts)
	require.ErrorIs(t, err, errBoom)

	edited := strings.Replace(mathSource, "Old module doc.", "Edited module doc.", 1)
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o600))

	opts.Transformer = upper()

	_, err = rewrite.File(context.Background(), path, opts)
	require.ErrorIs(t, err, checkpoint.ErrStaleCheckpoint)
}

func TestFile_DryRun(t *testing.T) {
	t.Parallel()

	path := writeSource(t, t.TempDir(), "math.py", mathSource)
	opts := testOptions(t, upper())
	opts.DryRun = true
	opts.KeepCheckpoint = false

	res, err := rewrite.File(context.Background(), path, opts)
	require.NoError(t, err)

	assert.True(t, res.Changed)
	assert.NoFileExists(t, res.OutputPath)
	assert.Contains(t, res.Diff, "-    \"\"\"Add two numbers.\"\"\"\n")
	assert.Contains(t, res.Diff, "+    \"\"\"ADD TWO NUMBERS.\"\"\"\n")
	assert.FileExists(t, checkpoint.Path(opts.CheckpointDir, path, persist.NewJSONCodec()),
		"dry runs keep the checkpoint so a real run reuses the answers")
}

func TestFile_FilterAndMultilineReplacement(t *testing.T) {
	t.Parallel()

	const src = `class Box:
    """A box."""

    def open(self):
        """Open it."""
        return True
`

	const want = `class Box:
    """A box."""

    def open(self):
        """Open the box.

        Returns:
            True.
        """
        return True
`

	path := writeSource(t, t.TempDir(), "box.py", src)

	opts := testOptions(t, transform.Func(func(context.Context, string) (string, error) {
		return "Open the box.\n\nReturns:\n    True.", nil
	}))
	opts.Filter = docstring.FilterFunction
	opts.Overwrite = true

	res, err := rewrite.File(context.Background(), path, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Units)

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, string(out))
}

func TestFile_LZ4Checkpoint(t *testing.T) {
	t.Parallel()

	path := writeSource(t, t.TempDir(), "math.py", mathSource)
	opts := testOptions(t, upper())
	opts.CheckpointCodec = persist.NewLZ4Codec(persist.NewJSONCodec())
	opts.KeepCheckpoint = true

	_, err := rewrite.File(context.Background(), path, opts)
	require.NoError(t, err)

	cpPath := checkpoint.Path(opts.CheckpointDir, path, opts.CheckpointCodec)
	assert.True(t, strings.HasSuffix(cpPath, ".json.lz4"))

	store, err := checkpoint.Open(cpPath, checkpoint.WithCodec(opts.CheckpointCodec))
	require.NoError(t, err)

	done, err := store.IsComplete()
	require.NoError(t, err)
	assert.True(t, done)
}

func TestFile_Errors(t *testing.T) {
	t.Parallel()

	_, err := rewrite.File(context.Background(), "x.py", rewrite.Options{})
	require.ErrorIs(t, err, rewrite.ErrNoTransformer)

	_, err = rewrite.File(context.Background(), filepath.Join(t.TempDir(), "missing.py"), testOptions(t, upper()))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestOutputPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filepath.Join("src", "pkg", "_mod.py"), rewrite.OutputPath(filepath.Join("src", "pkg", "mod.py"), false, ""))
	assert.Equal(t, filepath.Join("src", "new_mod.py"), rewrite.OutputPath(filepath.Join("src", "mod.py"), false, "new_"))
	assert.Equal(t, "mod.py", rewrite.OutputPath("mod.py", true, "_"))
}
