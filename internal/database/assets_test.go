package database_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"villamedia/internal/media"
	"villamedia/internal/testsupport"
)

func newRecord(id, filename string) *media.Record {
	return &media.Record{
		ID:        id,
		Filename:  filename,
		MimeType:  "image/jpeg",
		Size:      1000,
		Width:     400,
		Height:    300,
		CreatedAt: time.Now().UTC(),
		Variants:  map[string]media.Descriptor{},
	}
}

func desc(name, file string, width int) media.Descriptor {
	return media.Descriptor{Name: name, Filename: file, URL: "/media/" + file, Width: width, Height: width, MimeType: "image/webp", Size: 10}
}

func TestCreateAndGet(t *testing.T) {
	s := testsupport.MustOpenStore(t)
	ctx := context.Background()

	rec := newRecord("a1", "hall-a1.jpg")
	rec.Alt = "Hall"
	rec.Variants["thumbnail"] = desc("thumbnail", "hall-a1-thumbnail.webp", 300)
	if err := s.Create(ctx, rec); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if rec.ModifiedAt == 0 {
		t.Fatal("ModifiedAt not initialised")
	}

	got, err := s.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Alt != "Hall" || got.Filename != "hall-a1.jpg" {
		t.Errorf("got %+v", got)
	}
	if got.Variants["thumbnail"].Width != 300 || got.Variants["thumbnail"].Name != "thumbnail" {
		t.Errorf("thumbnail = %+v", got.Variants["thumbnail"])
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, media.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMergeIsPerKey(t *testing.T) {
	s := testsupport.MustOpenStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, newRecord("a1", "hall-a1.jpg")); err != nil {
		t.Fatal(err)
	}

	if _, err := s.MergeVariants(ctx, "a1", []media.Descriptor{
		desc("thumbnail", "t-old.webp", 300),
		desc("square", "s.webp", 500),
	}); err != nil {
		t.Fatalf("first merge failed: %v", err)
	}

	rec, err := s.MergeVariants(ctx, "a1", []media.Descriptor{desc("thumbnail", "t-new.webp", 301)})
	if err != nil {
		t.Fatalf("second merge failed: %v", err)
	}

	if rec.Variants["thumbnail"].Filename != "t-new.webp" || rec.Variants["thumbnail"].Width != 301 {
		t.Errorf("thumbnail not replaced: %+v", rec.Variants["thumbnail"])
	}
	if rec.Variants["square"].Filename != "s.webp" {
		t.Errorf("square lost: %+v", rec.Variants)
	}
}

func TestMergeModifiedAtStrictlyIncreases(t *testing.T) {
	s := testsupport.MustOpenStore(t)
	ctx := context.Background()

	frozen := time.UnixMilli(1700000000000)
	s.SetClock(func() time.Time { return frozen })

	if err := s.Create(ctx, newRecord("a1", "hall-a1.jpg")); err != nil {
		t.Fatal(err)
	}

	prev := int64(1700000000000)
	for i := 0; i < 3; i++ {
		rec, err := s.MergeVariants(ctx, "a1", []media.Descriptor{desc("thumbnail", "t.webp", 300)})
		if err != nil {
			t.Fatal(err)
		}
		if rec.ModifiedAt <= prev {
			t.Fatalf("merge %d: ModifiedAt %d not after %d", i, rec.ModifiedAt, prev)
		}
		prev = rec.ModifiedAt
	}

	// A clock that jumps backwards still cannot regress the key.
	s.SetClock(func() time.Time { return frozen.Add(-time.Hour) })
	rec, err := s.MergeVariants(ctx, "a1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if rec.ModifiedAt != prev+1 {
		t.Fatalf("ModifiedAt = %d, want %d", rec.ModifiedAt, prev+1)
	}
}

func TestConcurrentMergesUnion(t *testing.T) {
	s := testsupport.MustOpenStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, newRecord("a1", "hall-a1.jpg")); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := fmt.Sprintf("v%d", i)
			if _, err := s.MergeVariants(ctx, "a1", []media.Descriptor{desc(name, name+".webp", i+1)}); err != nil {
				t.Errorf("merge %s failed: %v", name, err)
			}
		}()
	}
	wg.Wait()

	rec, err := s.Get(ctx, "a1")
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.Variants) != 8 {
		t.Fatalf("variants = %d, want 8", len(rec.Variants))
	}
}

func TestMergeMissingRecord(t *testing.T) {
	s := testsupport.MustOpenStore(t)

	_, err := s.MergeVariants(context.Background(), "nope", []media.Descriptor{desc("thumbnail", "t.webp", 300)})
	if !errors.Is(err, media.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := testsupport.MustOpenStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, newRecord("a1", "hall-a1.jpg")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.MergeVariants(ctx, "a1", []media.Descriptor{desc("thumbnail", "t.webp", 300)}); err != nil {
		t.Fatal(err)
	}

	if err := s.Delete(ctx, "a1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete(ctx, "a1"); !errors.Is(err, media.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	refs, err := s.ReferencedFiles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 0 {
		t.Fatalf("variant rows survived delete: %v", refs)
	}
}

func TestListSearchAndPaging(t *testing.T) {
	s := testsupport.MustOpenStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i, name := range []string{"kitchen-1.jpg", "kitchen-2.jpg", "office-1.jpg", "100%_real.jpg"} {
		rec := newRecord(fmt.Sprintf("id%d", i), name)
		rec.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := s.Create(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	recs, total, err := s.List(ctx, media.ListQuery{Page: 1, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if total != 4 || len(recs) != 2 {
		t.Fatalf("page 1: total=%d len=%d", total, len(recs))
	}
	if recs[0].Filename != "100%_real.jpg" {
		t.Errorf("newest first expected, got %s", recs[0].Filename)
	}

	recs, total, err = s.List(ctx, media.ListQuery{Search: "kitchen"})
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(recs) != 2 {
		t.Fatalf("search: total=%d", total)
	}

	// LIKE wildcards in the query are literal.
	_, total, _ = s.List(ctx, media.ListQuery{Search: "%"})
	if total != 0 {
		t.Fatalf("wildcard search matched %d", total)
	}
	_, total, _ = s.List(ctx, media.ListQuery{Search: "100%"})
	if total != 1 {
		t.Fatalf("literal percent search matched %d", total)
	}
}

func TestTotalsAndIDs(t *testing.T) {
	s := testsupport.MustOpenStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.Create(ctx, newRecord(fmt.Sprintf("id%d", i), fmt.Sprintf("f%d.jpg", i))); err != nil {
			t.Fatal(err)
		}
	}

	count, size, err := s.Totals(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 || size != 3000 {
		t.Fatalf("totals = %d, %d", count, size)
	}

	ids, err := s.IDs(ctx)
	if err != nil || len(ids) != 3 {
		t.Fatalf("ids = %v, %v", ids, err)
	}
}
