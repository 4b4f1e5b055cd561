package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"villamedia/internal/config"
	"villamedia/internal/media"
	"villamedia/internal/storage"
)

func TestDiskRoundTrip(t *testing.T) {
	d, err := storage.NewDisk(filepath.Join(t.TempDir(), "media"))
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	ctx := context.Background()

	if err := d.Write(ctx, "a.webp", "image/webp", []byte("one")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := d.Write(ctx, "a.webp", "image/webp", []byte("two")); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	data, err := d.Read(ctx, "a.webp")
	if err != nil || string(data) != "two" {
		t.Fatalf("Read = %q, %v", data, err)
	}

	ok, err := d.Exists(ctx, "a.webp")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}

	if err := d.Remove(ctx, "a.webp"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := d.Remove(ctx, "a.webp"); err != nil {
		t.Fatalf("Remove of a missing file failed: %v", err)
	}
	if _, err := d.Read(ctx, "a.webp"); !errors.Is(err, media.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
	if ok, _ := d.Exists(ctx, "a.webp"); ok {
		t.Fatal("removed file still exists")
	}
}

func TestDiskRejectsTraversal(t *testing.T) {
	d, err := storage.NewDisk(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	for _, name := range []string{"", ".", "..", "../etc/passwd", "a/b.jpg", `a\b.jpg`, ".tmp-123"} {
		if err := d.Write(ctx, name, "", []byte("x")); !errors.Is(err, storage.ErrInvalidName) {
			t.Errorf("Write(%q): expected ErrInvalidName, got %v", name, err)
		}
	}
}

func TestDiskListSkipsTempFiles(t *testing.T) {
	root := t.TempDir()
	d, err := storage.NewDisk(root)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	d.Write(ctx, "b.jpg", "image/jpeg", []byte("b"))
	d.Write(ctx, "a.jpg", "image/jpeg", []byte("a"))
	os.WriteFile(filepath.Join(root, ".tmp-999"), []byte("partial"), 0o644)
	os.Mkdir(filepath.Join(root, "nested"), 0o755)

	objects, err := d.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Name < objects[j].Name })
	if len(objects) != 2 || objects[0].Name != "a.jpg" || objects[1].Name != "b.jpg" {
		t.Fatalf("objects = %+v", objects)
	}
	if objects[0].Size != 1 || objects[0].ModTime.IsZero() {
		t.Errorf("a.jpg = %+v, want size and mtime", objects[0])
	}
}

func TestOrphansSkipsRecentFiles(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	objects := []storage.Object{
		{Name: "sofa-1a2b3c4d.jpg", ModTime: now.Add(-time.Hour)},
		{Name: "sofa-1a2b3c4d-thumbnail.webp", ModTime: now.Add(-time.Hour)},
		{Name: "stale-9f8e7d6c-large.webp", ModTime: now.Add(-2 * time.Hour)},
		{Name: "lamp-0a0b0c0d.jpg", ModTime: now.Add(-time.Hour)},
		// written by an upload whose record does not exist yet
		{Name: "desk-11223344.jpg", ModTime: now.Add(-time.Minute)},
	}
	referenced := map[string]bool{
		"sofa-1a2b3c4d.jpg":            true,
		"sofa-1a2b3c4d-thumbnail.webp": true,
	}

	orphans, recent := storage.Orphans(objects, referenced, now.Add(-10*time.Minute))
	if recent != 1 {
		t.Errorf("recent = %d, want 1", recent)
	}
	if len(orphans) != 2 || orphans[0].Name != "lamp-0a0b0c0d.jpg" || orphans[1].Name != "stale-9f8e7d6c-large.webp" {
		t.Fatalf("orphans = %+v", orphans)
	}

	orphans, recent = storage.Orphans(objects, referenced, now)
	if len(orphans) != 3 || recent != 0 {
		t.Fatalf("without grace: orphans = %+v, recent = %d", orphans, recent)
	}
}

func TestNewSelectsDriver(t *testing.T) {
	s, err := storage.New(context.Background(), config.StorageConfig{Driver: "disk", Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*storage.Disk); !ok {
		t.Fatalf("got %T, want *storage.Disk", s)
	}

	if _, err := storage.New(context.Background(), config.StorageConfig{Driver: "ftp"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
