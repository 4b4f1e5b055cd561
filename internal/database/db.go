package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"villamedia/internal/appinfo"
	"villamedia/internal/config"
	"villamedia/pkg/logger"
)

// InitDB opens the database configured in config.AppConfig and seeds
// the asset counters. The process exits if that fails.
func InitDB() *gorm.DB {
	db, err := Open(config.AppConfig.Database)
	if err != nil {
		logger.LogFatal("Database initialization failed: %v", err)
	}

	loadInitialStats(db)
	logger.LogInfo("Database initialized successfully")
	return db
}

// Open connects to SQLite in WAL mode with a single connection and applies
// migrations.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if err := ensureDir(cfg.Path); err != nil {
		return nil, fmt.Errorf("ensure database directory: %w", err)
	}

	// busy_timeout makes the driver wait for the lock instead of failing.
	dsn := fmt.Sprintf(
		"%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_foreign_keys=on&_cache_size=-20000",
		cfg.Path,
	)

	gormConfig := &gorm.Config{
		Logger:                 gormLogger.Default.LogMode(gormLogger.Silent),
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := configurePool(db); err != nil {
		return nil, err
	}
	if err := runMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0750)
	}
	return nil
}

func configurePool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("retrieve database handle: %w", err)
	}

	// One writer on one file. Every query shares this connection, so code
	// inside a transaction must only use the transaction handle.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)
	return nil
}

func runMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&Asset{}, &AssetVariant{}, &ContentEntry{}); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}

	indices := []string{
		"CREATE INDEX IF NOT EXISTS idx_assets_modified_at ON assets(modified_at DESC);",
		"CREATE INDEX IF NOT EXISTS idx_asset_variants_filename ON asset_variants(filename);",
		"CREATE INDEX IF NOT EXISTS idx_content_entries_created_at ON content_entries(collection, created_at DESC);",
	}

	for _, idx := range indices {
		if err := db.Exec(idx).Error; err != nil {
			logger.LogWarn("Failed to create index: %v", err)
		}
	}
	return nil
}

func loadInitialStats(db *gorm.DB) {
	var count int64
	var totalSize int64

	// IFNULL keeps an empty table at 0 instead of NULL.
	row := db.Model(&Asset{}).Select("count(*), IFNULL(SUM(size), 0)").Row()
	if err := row.Scan(&count, &totalSize); err != nil {
		logger.LogWarn("Failed to load initial stats: %v", err)
		return
	}

	appinfo.SetInitialStats(count, totalSize)
}
