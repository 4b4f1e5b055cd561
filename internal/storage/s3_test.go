package storage_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"villamedia/internal/config"
	"villamedia/internal/media"
	"villamedia/internal/storage"
)

// fakeS3 speaks just enough path-style S3 for the store.
type fakeS3 struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	bucket, key, _ := strings.Cut(path, "/")
	if bucket != f.bucket {
		http.Error(w, "no such bucket", http.StatusNotFound)
		return
	}

	switch {
	case r.Method == http.MethodGet && key == "":
		f.list(w, r.URL.Query().Get("prefix"))
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodHead:
		data, ok := f.objects[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Length", fmt.Sprint(len(data)))
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet:
		data, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message><Key>%s</Key></Error>`, key)
			return
		}
		w.Header().Set("Content-Length", fmt.Sprint(len(data)))
		w.Write(data)
	case r.Method == http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeS3) list(w http.ResponseWriter, prefix string) {
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
	fmt.Fprintf(&b, "<Name>%s</Name><Prefix>%s</Prefix><KeyCount>%d</KeyCount><MaxKeys>1000</MaxKeys><IsTruncated>false</IsTruncated>", f.bucket, prefix, len(keys))
	for _, k := range keys {
		fmt.Fprintf(&b, "<Contents><Key>%s</Key><LastModified>2026-03-01T12:00:00.000Z</LastModified><Size>%d</Size></Contents>", k, len(f.objects[k]))
	}
	b.WriteString("</ListBucketResult>")

	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(b.String()))
}

func newS3(t *testing.T) (*storage.S3, *fakeS3) {
	t.Helper()
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	t.Setenv("AWS_CONFIG_FILE", "/nonexistent")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/nonexistent")

	fake := &fakeS3{bucket: "villa", objects: map[string][]byte{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := storage.NewS3(context.Background(), config.S3Config{
		Region:   "us-east-1",
		Bucket:   "villa",
		Prefix:   "/media/",
		Endpoint: srv.URL,
	})
	if err != nil {
		t.Fatalf("NewS3 failed: %v", err)
	}
	return s, fake
}

func TestS3RoundTrip(t *testing.T) {
	s, fake := newS3(t)
	ctx := context.Background()

	if err := s.Write(ctx, "hall-webp.webp", "image/webp", []byte("RIFFdata")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, ok := fake.objects["media/hall-webp.webp"]; !ok {
		t.Fatalf("object not stored under prefix: %v", fake.objects)
	}

	data, err := s.Read(ctx, "hall-webp.webp")
	if err != nil || string(data) != "RIFFdata" {
		t.Fatalf("Read = %q, %v", data, err)
	}

	ok, err := s.Exists(ctx, "hall-webp.webp")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}

	objects, err := s.List(ctx)
	if err != nil || len(objects) != 1 || objects[0].Name != "hall-webp.webp" {
		t.Fatalf("List = %+v, %v", objects, err)
	}
	if objects[0].Size != 8 || objects[0].ModTime.IsZero() {
		t.Errorf("object = %+v, want size and mtime", objects[0])
	}

	if err := s.Remove(ctx, "hall-webp.webp"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	ok, err = s.Exists(ctx, "hall-webp.webp")
	if err != nil || ok {
		t.Fatalf("Exists after remove = %v, %v", ok, err)
	}
	if _, err := s.Read(ctx, "hall-webp.webp"); !errors.Is(err, media.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}

func TestS3RejectsNestedNames(t *testing.T) {
	s, _ := newS3(t)
	if err := s.Write(context.Background(), "a/b.jpg", "image/jpeg", nil); !errors.Is(err, storage.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}
