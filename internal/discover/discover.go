// Package discover finds the Python source files a run should process.
package discover

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/src-d/enry/v2"
)

// languagePython is the enry name of the language docsplice understands.
const languagePython = "Python"

// sniffBytes is how much of an extension-less file is read to detect its language.
const sniffBytes = 4096

// ErrNotPython is returned for an explicitly named file that is not Python source.
var ErrNotPython = errors.New("not a Python source file")

// Options controls discovery.
type Options struct {
	// Include lists doublestar patterns, relative to each root directory, a file must match.
	Include []string
	// Exclude lists patterns for files and directories to skip.
	Exclude []string
	// KeepVendored disables skipping of vendored directories detected by enry.
	KeepVendored bool
}

// File is a discovered source file.
type File struct {
	Path string
	Size int64
}

// Files expands roots into the sorted, de-duplicated list of Python files to process.
// A root naming a file is taken as is, provided it is Python; a directory root is walked
// and filtered through the include and exclude patterns.
func Files(roots []string, opts Options) ([]File, error) {
	if len(opts.Include) == 0 {
		opts.Include = []string{"**/*.py"}
	}

	seen := make(map[string]bool)

	var files []File

	add := func(f File) {
		if !seen[f.Path] {
			seen[f.Path] = true

			files = append(files, f)
		}
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}

		if !info.IsDir() {
			if !isPython(root) {
				return nil, fmt.Errorf("%s: %w", root, ErrNotPython)
			}

			add(File{Path: filepath.Clean(root), Size: info.Size()})

			continue
		}

		err = walk(root, opts, add)
		if err != nil {
			return nil, err
		}
	}

	slices.SortFunc(files, func(a, b File) int {
		switch {
		case a.Path < b.Path:
			return -1
		case a.Path > b.Path:
			return 1
		default:
			return 0
		}
	})

	return files, nil
}

func walk(root string, opts Options, add func(File)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relative path: %w", err)
		}

		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && skipDir(rel, opts) {
				return filepath.SkipDir
			}

			return nil
		}

		if !d.Type().IsRegular() || !matchAny(opts.Include, rel) || matchAny(opts.Exclude, rel) {
			return nil
		}

		if !isPython(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		add(File{Path: path, Size: info.Size()})

		return nil
	})
}

func skipDir(rel string, opts Options) bool {
	if !opts.KeepVendored && enry.IsVendor(rel+"/") {
		return true
	}

	return matchAny(opts.Exclude, rel) || matchAny(opts.Exclude, rel+"/")
}

func matchAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, name)
		if err == nil && matched {
			return true
		}
	}

	return false
}

// isPython detects the language by file name first and by content for files the name
// alone does not settle, such as scripts with a shebang line.
func isPython(path string) bool {
	lang := enry.GetLanguage(filepath.Base(path), nil)
	if lang != "" {
		return lang == languagePython
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, sniffBytes)

	n, _ := f.Read(head)

	return enry.GetLanguage(filepath.Base(path), head[:n]) == languagePython
}
