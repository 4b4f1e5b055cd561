package database_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"villamedia/internal/config"
	"villamedia/internal/database"
	"villamedia/internal/testsupport"
)

func TestSnapshot(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	ctx := context.Background()

	if err := database.NewAssetStore(db).Create(ctx, newRecord("a1", "hall-a1.jpg")); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(t.TempDir(), "snapshot.db")
	if err := database.Snapshot(ctx, db, dest); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	info, err := os.Stat(dest)
	if err != nil || info.Size() == 0 {
		t.Fatalf("snapshot missing or empty: %v", err)
	}

	copyDB, err := database.Open(config.DatabaseConfig{Path: dest})
	if err != nil {
		t.Fatalf("open snapshot failed: %v", err)
	}
	defer database.Close(copyDB)

	count, _, err := database.NewAssetStore(copyDB).Totals(ctx)
	if err != nil || count != 1 {
		t.Fatalf("snapshot holds %d assets (%v), want 1", count, err)
	}
}

func TestMaintainOnCompactDatabase(t *testing.T) {
	db := testsupport.MustOpenDB(t)

	if database.Maintain(context.Background(), db, "") {
		t.Fatal("fresh database should not need VACUUM")
	}
}
