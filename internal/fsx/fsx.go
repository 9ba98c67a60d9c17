// Package fsx provides idempotent filesystem bootstrap helpers.
//
// EnsureDir and EnsureFile create their target if missing and succeed
// without touching anything when it already exists. Callers that only
// need best-effort logging treat a returned error as a degradation
// signal, not a fatal condition.
package fsx

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates the directory at path (and any missing parents).
// Calling it on an existing directory is a no-op success.
func EnsureDir(path string) error {
	if path == "" {
		return fmt.Errorf("directory path cannot be empty")
	}

	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("path %q exists but is not a directory", path)
		}
		return nil
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("create directory %q: %w", path, err)
	}
	return nil
}

// EnsureFile creates an empty file at path, ensuring its parent
// directory first. Existing files are left untouched, contents included.
func EnsureFile(path string) error {
	if path == "" {
		return fmt.Errorf("file path cannot be empty")
	}

	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err == nil {
		if info.IsDir() {
			return fmt.Errorf("path %q exists but is a directory", path)
		}
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("create file %q: %w", path, err)
	}
	return f.Close()
}
