package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/src-d/enry/v2"
)

const javaLanguage = "Java"

var (
	// ErrEmptyPath indicates a path argument was empty.
	ErrEmptyPath = errors.New("path is empty")
	// ErrPathContainsNUL indicates the path contains a NUL byte.
	ErrPathContainsNUL = errors.New("path contains NUL byte")
	// ErrNoInput indicates that a side of the comparison holds no source file.
	ErrNoInput = errors.New("no source files found")
)

// inputFilter selects the source files read from a directory.
type inputFilter struct {
	extensions  []string
	maxFileSize uint64
	logger      *slog.Logger
}

// collect reads one side of the comparison. A file is keyed by its base
// name; the files of a directory are keyed by their slash-separated path
// relative to it, so that both sides pair up by path.
func (f inputFilter) collect(path string) (map[string][]byte, error) {
	root, info, err := resolveUserPath(path)
	if err != nil {
		return nil, err
	}

	files := make(map[string][]byte)

	if !info.IsDir() {
		content, readErr := os.ReadFile(root)
		if readErr != nil {
			return nil, fmt.Errorf("read %s: %w", root, readErr)
		}

		files[filepath.Base(root)] = content

		return files, nil
	}

	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return fmt.Errorf("relative path of %s: %w", p, relErr)
		}

		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && (enry.IsDotFile(rel) || enry.IsVendor(rel+"/")) {
				return filepath.SkipDir
			}

			return nil
		}

		content, ok, readErr := f.read(p, rel, d)
		if readErr != nil {
			return readErr
		}

		if ok {
			files[rel] = content
		}

		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk %s: %w", root, walkErr)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoInput, root)
	}

	return files, nil
}

// read loads one walked file when it passes the filter.
func (f inputFilter) read(path, rel string, d fs.DirEntry) ([]byte, bool, error) {
	if !slices.Contains(f.extensions, strings.ToLower(filepath.Ext(rel))) || enry.IsVendor(rel) {
		return nil, false, nil
	}

	info, err := d.Info()
	if err != nil {
		return nil, false, fmt.Errorf("stat %s: %w", path, err)
	}

	if f.maxFileSize > 0 && uint64(info.Size()) > f.maxFileSize {
		f.logger.Debug("skipping large file", "file", rel, "size", info.Size())

		return nil, false, nil
	}

	//nolint:gosec // path comes from walking a resolved root.
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}

	if lang := enry.GetLanguage(filepath.Base(rel), content); lang != "" && lang != javaLanguage {
		f.logger.Debug("skipping non-Java file", "file", rel, "language", lang)

		return nil, false, nil
	}

	return content, true, nil
}

func resolveUserPath(path string) (string, os.FileInfo, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil, ErrEmptyPath
	}

	if strings.ContainsRune(path, '\x00') {
		return "", nil, fmt.Errorf("%w: %q", ErrPathContainsNUL, path)
	}

	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", nil, fmt.Errorf("resolve absolute path for %q: %w", path, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", nil, fmt.Errorf("stat %s: %w", absPath, err)
	}

	return absPath, info, nil
}
