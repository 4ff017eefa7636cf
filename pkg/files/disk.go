package files

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Disk serves files from a root directory on the local filesystem.
type Disk struct {
	root string
}

// NewDisk creates a disk source rooted at dir.
func NewDisk(dir string) *Disk {
	return &Disk{root: dir}
}

// Open reads the named file from under the root. Only regular files are
// served; directories, symlink targets outside the root and missing
// paths all report ErrNotFound.
func (d *Disk) Open(_ context.Context, name string) ([]byte, error) {
	path := filepath.Join(d.root, filepath.FromSlash(name))

	// The name is pre-sanitized, but the joined path must still land
	// inside the root once the OS resolves it.
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, ErrNotFound
	}
	rootResolved, err := filepath.EvalSymlinks(d.root)
	if err != nil {
		return nil, ErrNotFound
	}
	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil || rel == ".." || len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator) {
		return nil, ErrNotFound
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, ErrNotFound
	}
	return os.ReadFile(resolved)
}
