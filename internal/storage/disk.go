package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"villamedia/internal/media"
)

const tempPrefix = ".tmp-"

// Disk keeps files flat in one directory.
type Disk struct {
	root string
}

func NewDisk(root string) (*Disk, error) {
	if root == "" {
		return nil, fmt.Errorf("storage: disk root is empty")
	}
	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", root, err)
	}
	return &Disk{root: root}, nil
}

func (d *Disk) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, tempPrefix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(d.root, name), nil
}

// Write replaces name atomically: readers see the old file or the new one,
// never a partial write.
func (d *Disk) Write(_ context.Context, name, _ string, data []byte) error {
	dst, err := d.path(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.root, tempPrefix+"*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}
	return os.Rename(tmpName, dst)
}

func (d *Disk) Read(_ context.Context, name string) ([]byte, error) {
	p, err := d.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", media.ErrFileNotFound, name)
	}
	return data, err
}

func (d *Disk) Exists(_ context.Context, name string) (bool, error) {
	p, err := d.path(name)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// Remove deletes name. A missing file is not an error.
func (d *Disk) Remove(_ context.Context, name string) error {
	p, err := d.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// List returns every stored file name, skipping in-progress writes.
func (d *Disk) List(_ context.Context) ([]Object, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, err
	}
	objects := make([]Object, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		objects = append(objects, Object{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	return objects, nil
}
