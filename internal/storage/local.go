package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage keeps objects as files under a root directory. Used for
// development and tests; the on-disk layout mirrors the blob names
// (data/raw/..., data/processed/..., vectorstores/...).
type LocalStorage struct {
	root string
}

var _ Interface = (*LocalStorage)(nil)

// NewLocalStorage creates a filesystem-backed storage rooted at dir.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{root: dir}, nil
}

// Store writes data to a file under the root, creating parent
// directories as needed.
func (s *LocalStorage) Store(filename string, data []byte) error {
	path := filepath.Join(s.root, filepath.FromSlash(filename))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", filename, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}

// Retrieve reads a file under the root. A missing file is reported as
// ErrNotFound.
func (s *LocalStorage) Retrieve(filename string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(filename)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", filename, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return data, nil
}

// List returns the names (relative, slash-separated) of all stored
// objects whose name starts with prefix.
func (s *LocalStorage) List(prefix string) ([]string, error) {
	var names []string
	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}
	return names, nil
}

// Delete removes a stored object.
func (s *LocalStorage) Delete(filename string) error {
	if err := os.Remove(filepath.Join(s.root, filepath.FromSlash(filename))); err != nil {
		return fmt.Errorf("failed to delete %s: %w", filename, err)
	}
	return nil
}
