// Package store provides read-only byte access to the corpus object
// store. The rest of the system only ever lists object names and fetches
// object bytes; everything else (auth, retries, caching) lives here.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store is the byte-fetch capability the corpus lives behind.
type Store interface {
	// List returns the names of every object in the corpus.
	List(ctx context.Context) ([]string, error)
	// Fetch returns the bytes of one object by name.
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// FileNotFoundError reports a fetch of an object the store does not hold.
type FileNotFoundError struct {
	Name string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Name)
}

// DirStore serves a corpus from a local directory tree. Used for offline
// corpora and tests; object names are slash-separated paths relative to
// the root.
type DirStore struct {
	root string
}

func NewDirStore(root string) *DirStore {
	return &DirStore{root: root}
}

func (s *DirStore) List(ctx context.Context) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list corpus directory %s: %w", s.root, err)
	}
	sort.Strings(names)
	return names, nil
}

func (s *DirStore) Fetch(ctx context.Context, name string) ([]byte, error) {
	if strings.Contains(name, "..") {
		return nil, &FileNotFoundError{Name: name}
	}
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(name)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &FileNotFoundError{Name: name}
		}
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}
