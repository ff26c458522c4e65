package checkpoint_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/docsplice/pkg/checkpoint"
	"github.com/Sumatoshi-tech/docsplice/pkg/docstring"
	"github.com/Sumatoshi-tech/docsplice/pkg/persist"
)

func sampleUnits(n int) []docstring.Unit {
	units := make([]docstring.Unit, n)
	for i := range units {
		units[i] = docstring.Unit{
			StartLine: 3*i + 1,
			EndLine:   3*i + 3,
			Text:      fmt.Sprintf("Doc %d.", i),
			Kind:      docstring.KindFunction,
			Delimiter: `"""`,
		}
	}

	return units
}

func completed(unit docstring.Unit) docstring.Unit {
	return unit.WithReplacement(`"""New ` + unit.Text + `"""`)
}

func TestOpen_RequiresCountForNewCheckpoint(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cp.json")

	_, err := checkpoint.Open(path)
	require.ErrorIs(t, err, checkpoint.ErrMissingCount)

	_, statErr := os.Stat(path)
	assert.ErrorIs(t, statErr, os.ErrNotExist)

	_, err = checkpoint.Open(path, checkpoint.WithExpectedCount(-1))
	require.ErrorIs(t, err, checkpoint.ErrInvalidCount)
}

func TestOpen_CreatesFileImmediately(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "cp.json")

	store, err := checkpoint.Open(path, checkpoint.WithExpectedCount(2))
	require.NoError(t, err)
	assert.False(t, store.Resumed())
	assert.Equal(t, path, store.Path())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"expected_count":2,"completed":[]}`, string(data))
}

func TestStore_ResumeWithExpectedCountThree(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cp.json")
	units := sampleUnits(3)

	store, err := checkpoint.Open(path, checkpoint.WithExpectedCount(3))
	require.NoError(t, err)

	for i, unit := range units {
		done, doneErr := store.IsComplete()
		require.NoError(t, doneErr)
		assert.False(t, done, "after %d appends", i)

		require.NoError(t, store.Append(completed(unit)))
	}

	done, err := store.IsComplete()
	require.NoError(t, err)
	assert.True(t, done)

	all := store.AllCompleted()
	require.Len(t, all, 3)

	for i, unit := range all {
		assert.True(t, unit.SameOrigin(units[i]), "append order preserved at %d", i)
		assert.True(t, unit.HasReplacement())
	}

	require.ErrorIs(t, store.Append(completed(units[0])), checkpoint.ErrAlreadyComplete)
}

func TestStore_ReopenKeepsStoredCountAndEntries(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cp.json")
	units := sampleUnits(3)

	first, err := checkpoint.Open(path, checkpoint.WithExpectedCount(3))
	require.NoError(t, err)
	require.NoError(t, first.Append(completed(units[0])))

	second, err := checkpoint.Open(path, checkpoint.WithExpectedCount(99))
	require.NoError(t, err)
	assert.True(t, second.Resumed())
	assert.Equal(t, 3, second.ExpectedCount())
	assert.Equal(t, 1, second.Len())
	assert.Equal(t, first.AllCompleted(), second.AllCompleted())
	require.NoError(t, second.Verify(units))
}

func TestStore_IsCompleteObservesDisk(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cp.json")
	units := sampleUnits(1)

	store, err := checkpoint.Open(path, checkpoint.WithExpectedCount(1))
	require.NoError(t, err)
	require.NoError(t, store.Append(completed(units[0])))

	require.NoError(t, os.WriteFile(path, []byte(`{"expected_count":1,"completed":[]}`), 0o600))

	done, err := store.IsComplete()
	require.NoError(t, err)
	assert.False(t, done)
	assert.Empty(t, store.AllCompleted())
}

func TestStore_CorruptFile(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"not json":        `{{{`,
		"missing count":   `{"completed":[]}`,
		"negative count":  `{"expected_count":-1,"completed":[]}`,
		"unknown kind":    `{"expected_count":1,"completed":[{"start_line":1,"end_line":2,"text":"x","kind":"method"}]}`,
		"too many":        `{"expected_count":0,"completed":[{"start_line":1,"end_line":2,"text":"x","kind":"module"}]}`,
		"empty range":     `{"expected_count":1,"completed":[{"start_line":4,"end_line":4,"text":"x","kind":"module"}]}`,
		"null completion": `{"expected_count":1,"completed":null}`,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "cp.json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

			_, err := checkpoint.Open(path)
			require.ErrorIs(t, err, checkpoint.ErrCorrupt)
		})
	}
}

func TestStore_Verify(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cp.json")
	units := sampleUnits(2)

	store, err := checkpoint.Open(path, checkpoint.WithExpectedCount(2))
	require.NoError(t, err)
	require.NoError(t, store.Append(completed(units[0])))
	require.NoError(t, store.Verify(units))

	require.ErrorIs(t, store.Verify(sampleUnits(3)), checkpoint.ErrStaleCheckpoint)

	edited := sampleUnits(2)
	edited[0].Text = "Edited."
	require.ErrorIs(t, store.Verify(edited), checkpoint.ErrStaleCheckpoint)
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cp.json")
	units := sampleUnits(1)

	store, err := checkpoint.Open(path, checkpoint.WithExpectedCount(1))
	require.NoError(t, err)
	require.NoError(t, store.Append(completed(units[0])))
	require.NoError(t, store.Delete())
	require.NoError(t, store.Delete(), "deleting twice is harmless")

	_, err = os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)

	fresh, err := checkpoint.Open(path, checkpoint.WithExpectedCount(1))
	require.NoError(t, err)
	assert.False(t, fresh.Resumed())
	assert.Equal(t, 0, fresh.Len())
}

func TestStore_LZ4Codec(t *testing.T) {
	t.Parallel()

	codec, err := persist.CodecFor(persist.FormatJSONLZ4)
	require.NoError(t, err)

	path := checkpoint.Path(t.TempDir(), "pkg/mod.py", codec)
	assert.Equal(t, ".lz4", filepath.Ext(path))

	units := sampleUnits(2)

	store, err := checkpoint.Open(path, checkpoint.WithExpectedCount(2), checkpoint.WithCodec(codec))
	require.NoError(t, err)
	require.NoError(t, store.Append(completed(units[0])))

	reopened, err := checkpoint.Open(path, checkpoint.WithCodec(codec))
	require.NoError(t, err)
	assert.Equal(t, store.AllCompleted(), reopened.AllCompleted())

	_, err = checkpoint.Open(path)
	require.ErrorIs(t, err, checkpoint.ErrCorrupt, "compressed file read as plain JSON")
}

func TestPath(t *testing.T) {
	t.Parallel()

	codec := persist.NewJSONCodec()

	a := checkpoint.Path("cp", "a/mod.py", codec)
	b := checkpoint.Path("cp", "b/mod.py", codec)

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, checkpoint.Path("cp", "a/mod.py", codec))
	assert.Equal(t, "cp", filepath.Dir(a))
	assert.Regexp(t, `^mod-[0-9a-f]{16}\.json$`, filepath.Base(a))
}

func TestClear(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "checkpoints")
	require.NoError(t, checkpoint.Clear(dir))

	_, err := checkpoint.Open(filepath.Join(dir, "x.json"), checkpoint.WithExpectedCount(1))
	require.NoError(t, err)
	require.NoError(t, checkpoint.Clear(dir))

	_, err = os.Stat(dir)
	require.ErrorIs(t, err, os.ErrNotExist)
}
