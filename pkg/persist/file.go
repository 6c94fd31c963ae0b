// Package persist writes output files atomically: content goes to a
// temporary file in the target directory that is renamed into place only
// after it was written and synced completely.
package persist

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// filePerm is applied to every written file before it is renamed.
const filePerm = 0o644

// WriteFunc streams content into w.
type WriteFunc func(w io.Writer) error

// WriteFile runs write against a temporary file next to path and renames
// it to path on success. On failure path is left untouched.
func WriteFile(path string, write WriteFunc) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	defer func() {
		if err != nil {
			err = errors.Join(err, removeIfExists(tmp.Name()))
		}
	}()

	if err = write(tmp); err != nil {
		return errors.Join(err, tmp.Close())
	}

	if err = tmp.Sync(); err != nil {
		return errors.Join(fmt.Errorf("sync %s: %w", tmp.Name(), err), tmp.Close())
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}

	if err = os.Chmod(tmp.Name(), filePerm); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}

	return nil
}

func removeIfExists(name string) error {
	if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove temp file: %w", err)
	}

	return nil
}
