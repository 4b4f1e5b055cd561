package media

import "context"

// Store persists records and their variant index.
type Store interface {
	Create(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	// MergeVariants upserts descriptors by name and bumps ModifiedAt to a
	// value strictly greater than the previous one, atomically.
	MergeVariants(ctx context.Context, id string, descriptors []Descriptor) (*Record, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q ListQuery) ([]Record, int64, error)
}

// FileStore holds originals and variant files by flat filename.
type FileStore interface {
	Write(ctx context.Context, name, mimeType string, data []byte) error
	Read(ctx context.Context, name string) ([]byte, error)
	Exists(ctx context.Context, name string) (bool, error)
	Remove(ctx context.Context, name string) error
}
