package database

import (
	"context"
	"os"
	"time"

	"gorm.io/gorm"

	"villamedia/pkg/logger"
	"villamedia/pkg/utils"
)

/*
Storage maintenance

Deleting assets leaves free pages inside the SQLite file. The file is not
shrunk on every delete: SQLite reuses freed pages for new rows, which is
cheaper than growing the file again.

Every interval the worker:
  - checkpoints the WAL (TRUNCATE) so the -wal file does not grow unbounded
  - runs VACUUM when more than half of the pages are on the freelist

Records are never deleted here. Originals and variants are referenced by
the website, so there is no retention policy.
*/

var maintenanceLog = logger.New("database")

// StartMaintenance blocks, running a maintenance pass right away and then
// every interval, until ctx is done.
func StartMaintenance(ctx context.Context, db *gorm.DB, path string, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	maintenanceLog.Info("Storage maintenance started. Interval: %s", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	Maintain(ctx, db, path)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			Maintain(ctx, db, path)
		}
	}
}

// Maintain runs one pass and reports whether a VACUUM happened.
func Maintain(ctx context.Context, db *gorm.DB, path string) bool {
	db = db.WithContext(ctx)

	if err := db.Exec("PRAGMA wal_checkpoint(TRUNCATE);").Error; err != nil {
		maintenanceLog.Warn("WAL checkpoint failed: %v", err)
	}

	var pageCount, freeCount int64
	if err := db.Raw("PRAGMA page_count;").Row().Scan(&pageCount); err != nil {
		maintenanceLog.Error("Failed to read page_count: %v", err)
		return false
	}
	if err := db.Raw("PRAGMA freelist_count;").Row().Scan(&freeCount); err != nil {
		maintenanceLog.Error("Failed to read freelist_count: %v", err)
		return false
	}
	if pageCount == 0 || float64(freeCount) <= float64(pageCount)*0.50 {
		return false
	}

	before := fileSize(path)
	maintenanceLog.Warn("DB is bloated (%d of %d pages free). Starting VACUUM...", freeCount, pageCount)

	startTime := time.Now()
	if err := db.Exec("VACUUM;").Error; err != nil {
		maintenanceLog.Error("VACUUM failed: %v", err)
		return false
	}

	maintenanceLog.Info("VACUUM completed in %v. %s -> %s",
		time.Since(startTime),
		utils.FormatBytes(before),
		utils.FormatBytes(fileSize(path)))
	return true
}

func fileSize(path string) int64 {
	var total int64
	if info, err := os.Stat(path); err == nil {
		total += info.Size()
	}
	if info, err := os.Stat(path + "-wal"); err == nil {
		total += info.Size()
	}
	return total
}

// Snapshot writes a consistent copy of the live database to dest with
// VACUUM INTO. dest must not exist.
func Snapshot(ctx context.Context, db *gorm.DB, dest string) error {
	return db.WithContext(ctx).Exec("VACUUM INTO ?", dest).Error
}
