package persist

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRejected = errors.New("rejected")

func TestSaveFile_CreatesDirAndReplacesAtomically(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "state.json")
	codec := NewJSONCodec()

	require.NoError(t, SaveFile(path, codec, testState{Name: "first"}))
	require.NoError(t, SaveFile(path, codec, testState{Name: "second"}))

	var decoded testState

	require.NoError(t, LoadFile(path, codec, &decoded))
	assert.Equal(t, "second", decoded.Name)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(filePerm), info.Mode().Perm())
}

func TestSaveFile_EncodeFailureKeepsPreviousContent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	codec := NewJSONCodec()

	require.NoError(t, SaveFile(path, codec, testState{Name: "good"}))
	require.Error(t, SaveFile(path, codec, make(chan int)))

	var decoded testState

	require.NoError(t, LoadFile(path, codec, &decoded))
	assert.Equal(t, "good", decoded.Name)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoadFile_Missing(t *testing.T) {
	t.Parallel()

	var decoded testState

	err := LoadFile(filepath.Join(t.TempDir(), "missing.json"), NewJSONCodec(), &decoded)
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "open state file")
}

func TestSaveFile_LZ4(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state"+NewLZ4Codec(&JSONCodec{}).Extension())
	codec := NewLZ4Codec(&JSONCodec{})

	require.NoError(t, SaveFile(path, codec, testState{Name: "lz", Count: 3}))
	assert.True(t, strings.HasSuffix(path, "state.json.lz4"))

	var decoded testState

	require.NoError(t, LoadFile(path, codec, &decoded))
	assert.Equal(t, 3, decoded.Count)
}

func TestPersister_RoundTripAndValidate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "p.json")
	p := NewPersister[testState](path, NewJSONCodec())
	assert.Equal(t, path, p.Path())

	require.NoError(t, p.Save(&testState{Name: "persisted", Count: 5}))

	loaded, err := p.Load()
	require.NoError(t, err)
	assert.Equal(t, "persisted", loaded.Name)

	var seen []byte

	p.WithValidator(func(raw []byte) error {
		seen = raw

		return errRejected
	})

	_, err = p.Load()
	require.ErrorIs(t, err, errRejected)
	assert.Contains(t, string(seen), `"persisted"`)
}
