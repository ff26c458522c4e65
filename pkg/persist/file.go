package persist

import (
	"fmt"
	"os"
	"path/filepath"
)

// File and directory permissions for persisted state.
const (
	dirPerm  = 0o750
	filePerm = 0o600
)

// SaveFile writes state to path through codec. The file is replaced atomically: the
// state is encoded into a temporary file in the same directory, synced, and renamed over
// path, so readers observe either the previous content or the new one.
func SaveFile(path string, codec Codec, state any) error {
	dir := filepath.Dir(path)

	err := os.MkdirAll(dir, dirPerm)
	if err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpPath := tmp.Name()

	err = writeSynced(tmp, codec, state)
	if err != nil {
		_ = os.Remove(tmpPath)

		return err
	}

	err = os.Chmod(tmpPath, filePerm)
	if err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("chmod state file: %w", err)
	}

	err = os.Rename(tmpPath, path)
	if err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("replace state file: %w", err)
	}

	return nil
}

func writeSynced(file *os.File, codec Codec, state any) error {
	err := codec.Encode(file, state)
	if err != nil {
		file.Close()

		return fmt.Errorf("encode state: %w", err)
	}

	err = file.Sync()
	if err != nil {
		file.Close()

		return fmt.Errorf("sync state file: %w", err)
	}

	err = file.Close()
	if err != nil {
		return fmt.Errorf("close state file: %w", err)
	}

	return nil
}

// LoadFile decodes the file at path into state, which must be a pointer.
func LoadFile(path string, codec Codec, state any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open state file: %w", err)
	}
	defer file.Close()

	err = codec.Decode(file, state)
	if err != nil {
		return fmt.Errorf("decode state: %w", err)
	}

	return nil
}
