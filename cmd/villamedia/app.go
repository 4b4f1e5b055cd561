package main

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"villamedia/internal/config"
	"villamedia/internal/database"
	"villamedia/internal/media"
	"villamedia/internal/storage"
	"villamedia/pkg/logger"
)

// app is the wiring shared by every subcommand.
type app struct {
	cfg        *config.Config
	db         *gorm.DB
	assets     *database.AssetStore
	content    *database.ContentStore
	files      storage.Store
	reconciler *media.Reconciler
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}
	if cfg.App.Version == "" || cfg.App.Version == "dev" {
		cfg.App.Version = Version
	}
	logger.SetDebug(cfg.App.Debug)

	db := database.InitDB()

	files, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		database.Close(db)
		return nil, fmt.Errorf("storage: %w", err)
	}

	secondary := media.Catalog{}
	if cfg.Media.SecondaryWebP {
		secondary = media.SecondaryCatalog()
	}

	assets := database.NewAssetStore(db)
	reconciler := media.NewReconciler(assets, files, media.NewImageCodec(cfg.Media.DefaultQuality), media.Options{
		Catalog:        media.DefaultCatalog(),
		Secondary:      secondary,
		URLPrefix:      cfg.Media.URLPrefix,
		Parallelism:    cfg.Media.Parallelism,
		AsyncSecondary: cfg.Media.AsyncSecondary,
	})

	return &app{
		cfg:        cfg,
		db:         db,
		assets:     assets,
		content:    database.NewContentStore(db),
		files:      files,
		reconciler: reconciler,
	}, nil
}

// Close waits for background variant passes before closing the database.
func (a *app) Close() {
	a.reconciler.Wait()
	if err := database.Close(a.db); err != nil {
		logger.LogWarn("closing database: %v", err)
	}
}
