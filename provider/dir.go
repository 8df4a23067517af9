package provider

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

var (
	// Ensure implements
	_ Provider = (*Dir)(nil)
)

// Dir serves content from files under a root directory. Fetched paths
// resolve against the root and may not traverse outside it.
type Dir struct {
	root string
	exts []string
}

// DirInput is used as input when creating a directory provider.
type DirInput struct {
	// Root is the directory all fetched paths resolve under. Required.
	Root string

	// Exts lists file extensions (with leading dot) tried in order after
	// the bare path misses. Optional.
	Exts []string
}

// NewDir creates a directory provider from the given input.
func NewDir(i DirInput) (*Dir, error) {
	root := strings.TrimSpace(i.Root)
	if root == "" {
		return nil, fmt.Errorf("dir: invalid root: %q", i.Root)
	}
	return &Dir{root: root, exts: i.Exts}, nil
}

// Fetch reads the file at path resolved under the root and returns its
// contents as a string. The bare path is tried first, then each configured
// extension. Missing files report ErrNotFound.
func (d *Dir) Fetch(path string) (interface{}, error) {
	full, err := d.resolve(path)
	if err != nil {
		return nil, err
	}

	for _, name := range d.candidates(full) {
		data, err := os.ReadFile(name)
		if err == nil {
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			return nil, errors.Wrap(err, d.String())
		}
	}
	return nil, ErrNotFound
}

// Stringer interface names the root.
func (d *Dir) String() string {
	return fmt.Sprintf("dir(%s)", d.root)
}

// resolve anchors path under the root and refuses anything that would
// escape it.
func (d *Dir) resolve(path string) (string, error) {
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("dir: absolute path: %q", path)
	}
	full := filepath.Join(d.root, filepath.FromSlash(path))
	rel, err := filepath.Rel(d.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("dir: path escapes root: %q", path)
	}
	return full, nil
}

func (d *Dir) candidates(full string) []string {
	names := make([]string, 0, len(d.exts)+1)
	names = append(names, full)
	for _, ext := range d.exts {
		names = append(names, full+ext)
	}
	return names
}
