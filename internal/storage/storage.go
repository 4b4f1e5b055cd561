// Package storage holds the file stores originals and variants are written
// to: a local directory or an S3 bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"villamedia/internal/config"
	"villamedia/internal/media"
)

var ErrInvalidName = errors.New("storage: invalid file name")

// Store is a media.FileStore that can also enumerate its contents.
type Store interface {
	media.FileStore
	List(ctx context.Context) ([]Object, error)
}

// Object is one stored file as reported by List.
type Object struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Orphans returns the objects no record references, sorted by name.
// Objects modified after cutoff are skipped: an upload in flight writes
// its files before the record or variant index names them.
func Orphans(objects []Object, referenced map[string]bool, cutoff time.Time) (orphans []Object, recent int) {
	for _, o := range objects {
		if referenced[o.Name] {
			continue
		}
		if o.ModTime.After(cutoff) {
			recent++
			continue
		}
		orphans = append(orphans, o)
	}
	sort.Slice(orphans, func(i, j int) bool { return orphans[i].Name < orphans[j].Name })
	return orphans, recent
}

// New builds the store selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "", "disk":
		return NewDisk(cfg.Dir)
	case "s3":
		return NewS3(ctx, cfg.S3)
	}
	return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
}
