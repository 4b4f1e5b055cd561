package database_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"villamedia/internal/database"
	"villamedia/internal/testsupport"
)

func TestContentStore(t *testing.T) {
	s := database.NewContentStore(testsupport.MustOpenDB(t))
	ctx := context.Background()

	base := time.Now().UTC()
	entries := []database.ContentEntry{
		{Collection: "projects", Slug: "gulshan-duplex", Title: "Gulshan Duplex", CreatedAt: base},
		{Collection: "projects", Slug: "banani-office", Title: "Banani Office", CreatedAt: base.Add(time.Second)},
		{Collection: "blogPosts", Slug: "choosing-tiles", CreatedAt: base},
	}
	for _, e := range entries {
		if err := s.Upsert(ctx, e); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	// Re-publishing keeps one row.
	if err := s.Upsert(ctx, database.ContentEntry{Collection: "projects", Slug: "gulshan-duplex", Title: "Gulshan Duplex II"}); err != nil {
		t.Fatal(err)
	}

	slugs, err := s.Slugs(ctx, "projects", 1000)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(slugs, []string{"banani-office", "gulshan-duplex"}) {
		t.Fatalf("slugs = %v", slugs)
	}

	if slugs, _ := s.Slugs(ctx, "projects", 1); len(slugs) != 1 {
		t.Fatalf("limit ignored: %v", slugs)
	}

	if err := s.Delete(ctx, "blogPosts", "choosing-tiles"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "blogPosts", "choosing-tiles"); !errors.Is(err, database.ErrContentNotFound) {
		t.Fatalf("expected ErrContentNotFound, got %v", err)
	}
}
