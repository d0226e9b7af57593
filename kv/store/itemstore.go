package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ItemStore is the contract of the engine backing BlobStore: a flat namespace
// of named string items with synchronous whole-value access. No transaction
// or locking support is assumed; BlobStore builds its own atomicity on top.
type ItemStore interface {
	// GetItem returns the stored string for name and whether it exists.
	GetItem(name string) (value string, ok bool, err error)

	// SetItem stores value under name, overwriting any existing item.
	SetItem(name, value string) error

	// RemoveItem deletes the item if present. Removing a missing item is a no-op.
	RemoveItem(name string) error
}

// FileItemStore is the default ItemStore implementation. Each item lives in
// its own file, <dir>/<name>.json, replaced atomically on write via a
// temporary file and rename.
//
// Item names become file names verbatim, so they must not contain path
// separators.
type FileItemStore struct {
	dir string
}

// NewFileItemStore returns a FileItemStore rooted at dir. The directory is
// created lazily on the first write.
func NewFileItemStore(dir string) *FileItemStore {
	return &FileItemStore{dir: dir}
}

// GetItem reads the item's file. A missing file means a missing item, not an
// error.
func (f *FileItemStore) GetItem(name string) (string, bool, error) {
	data, err := os.ReadFile(f.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("%w: read %q: %w", ErrItemStoreFailed, name, err)
	}

	return string(data), true, nil
}

// SetItem writes the value to a temporary file in the same directory and
// renames it over the item's file, so readers never observe a partial write.
func (f *FileItemStore) SetItem(name, value string) error {
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return fmt.Errorf("%w: create dir %q: %w", ErrItemStoreFailed, f.dir, err)
	}

	tmp, err := os.CreateTemp(f.dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: temp file for %q: %w", ErrItemStoreFailed, name, err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("%w: write %q: %w", ErrItemStoreFailed, name, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("%w: close %q: %w", ErrItemStoreFailed, name, err)
	}

	if err := os.Rename(tmpName, f.path(name)); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("%w: replace %q: %w", ErrItemStoreFailed, name, err)
	}

	return nil
}

// RemoveItem deletes the item's file if it exists.
func (f *FileItemStore) RemoveItem(name string) error {
	err := os.Remove(f.path(name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: remove %q: %w", ErrItemStoreFailed, name, err)
	}

	return nil
}

func (f *FileItemStore) path(name string) string {
	return filepath.Join(f.dir, name+".json")
}
