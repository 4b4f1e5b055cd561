package testsupport

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"villamedia/internal/media"
)

// MemFiles is an in-memory media.FileStore.
type MemFiles struct {
	mu     sync.Mutex
	files  map[string][]byte
	writes atomic.Int64

	// FailWrite, when set, is consulted before every write.
	FailWrite func(name string) error
}

func NewMemFiles() *MemFiles {
	return &MemFiles{files: make(map[string][]byte)}
}

func (m *MemFiles) Write(_ context.Context, name, _ string, data []byte) error {
	if m.FailWrite != nil {
		if err := m.FailWrite(name); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = append([]byte(nil), data...)
	m.writes.Add(1)
	return nil
}

func (m *MemFiles) Read(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[name]
	if !ok {
		return nil, media.ErrFileNotFound
	}
	return data, nil
}

func (m *MemFiles) Exists(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[name]
	return ok, nil
}

func (m *MemFiles) Remove(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[name]; !ok {
		return media.ErrFileNotFound
	}
	delete(m.files, name)
	return nil
}

// Drop deletes a file behind the reconciler's back.
func (m *MemFiles) Drop(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, name)
}

// Names lists stored files, sorted.
func (m *MemFiles) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.files))
	for n := range m.files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Writes counts successful writes.
func (m *MemFiles) Writes() int64 { return m.writes.Load() }

// FailingCodec wraps a codec and fails Generate for the named variants.
type FailingCodec struct {
	media.Codec

	mu   sync.Mutex
	fail map[string]error
}

func NewFailingCodec(inner media.Codec) *FailingCodec {
	return &FailingCodec{Codec: inner, fail: make(map[string]error)}
}

func (c *FailingCodec) FailOn(variant string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail[variant] = err
}

func (c *FailingCodec) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = make(map[string]error)
}

func (c *FailingCodec) Generate(data []byte, spec media.VariantSpec) (media.Output, error) {
	c.mu.Lock()
	err := c.fail[spec.Name]
	c.mu.Unlock()
	if err != nil {
		return media.Output{}, &media.CodecError{Op: "generate " + spec.Name, Err: err}
	}
	return c.Codec.Generate(data, spec)
}
