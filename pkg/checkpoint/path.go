package checkpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Sumatoshi-tech/docsplice/pkg/persist"
)

// DefaultDir is the checkpoint directory used when none is configured, relative to the
// working directory.
const DefaultDir = ".docsplice/checkpoints"

// SourceHash computes a short hash of a source path for use in checkpoint file names.
func SourceHash(sourcePath string) string {
	h := sha256.Sum256([]byte(sourcePath))

	return hex.EncodeToString(h[:8]) // First 8 bytes = 16 hex chars.
}

// Path returns the checkpoint file for sourcePath inside dir. The name combines the
// source's base name with a hash of its absolute path, so files with equal names in
// different directories do not collide.
func Path(dir, sourcePath string, codec persist.Codec) string {
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		abs = sourcePath
	}

	base := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))

	return filepath.Join(dir, fmt.Sprintf("%s-%s%s", base, SourceHash(abs), codec.Extension()))
}

// Clear removes every checkpoint in dir. A missing directory is not an error.
func Clear(dir string) error {
	_, statErr := os.Stat(dir)
	if os.IsNotExist(statErr) {
		return nil
	}

	err := os.RemoveAll(dir)
	if err != nil {
		return fmt.Errorf("remove checkpoint dir: %w", err)
	}

	return nil
}
