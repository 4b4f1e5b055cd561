// Package testsupport holds fixtures shared by package tests.
package testsupport

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"villamedia/internal/config"
	"villamedia/internal/database"
)

// NewConfig returns the default configuration rooted in a temp dir.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	return &config.Config{
		App:    config.AppInfoConfig{Name: "Villamedia", Version: "test"},
		Server: config.ServerConfig{Port: 3001, Env: "test", ShutdownTimeout: "5s"},
		Database: config.DatabaseConfig{
			Path:                filepath.Join(dir, "villa.db"),
			MaintenanceInterval: "1h",
		},
		Media: config.MediaConfig{
			URLPrefix:            "/media",
			MaxUploadSize:        "5MB",
			DefaultQuality:       82,
			Parallelism:          4,
			SecondaryWebP:        true,
			AsyncSecondary:       false,
			MaxConcurrentUploads: 2,
		},
		Storage: config.StorageConfig{Driver: "disk", Dir: filepath.Join(dir, "media")},
		Cache:   config.CacheConfig{Enabled: true, MaxCapacity: 8, TTL: "1m"},
		Security: config.SecurityConfig{
			UploadSecret: "test-secret",
			CorsOrigins:  []string{"https://interiorvillabd.com"},
			RateLimit:    config.RateLimitConfig{Enabled: false, Requests: 100, Window: "1s", Burst: 100},
			EmailRateLimit: config.RateLimitConfig{
				Enabled: true, Requests: 2, Window: "1m", Burst: 2,
			},
		},
		Email: config.EmailConfig{
			From:     "Interior Villa <onboarding@resend.dev>",
			To:       []string{"bdtechnocrats@gmail.com"},
			Endpoint: "https://api.resend.com/emails",
			Timeout:  "5s",
			Breaker:  config.BreakerConfig{MaxFailures: 3, Interval: "1m", Timeout: "30s"},
		},
		Site: config.SiteConfig{
			StaticPaths: []string{
				"/",
				"/about",
				"/services/residential-interior",
				"/services/commercial-interior",
				"/services/architectural-consultancy",
				"/portfolio",
				"/blog",
				"/contact",
			},
			EntryLimit: 1000,
		},
		BaseURL: "http://localhost:3001",
	}
}

// MustOpenDB opens a migrated SQLite database in a temp dir.
func MustOpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("open database failed: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })
	return db
}

func MustOpenStore(t *testing.T) *database.AssetStore {
	t.Helper()
	return database.NewAssetStore(MustOpenDB(t))
}

func gradient(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{
				R: uint8(x * 255 / max(1, w-1)),
				G: uint8(y * 255 / max(1, h-1)),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

// NewJPEG encodes a w x h gradient as JPEG.
func NewJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gradient(w, h), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg failed: %v", err)
	}
	return buf.Bytes()
}

// NewPNG encodes a w x h gradient as PNG.
func NewPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, gradient(w, h)); err != nil {
		t.Fatalf("encode png failed: %v", err)
	}
	return buf.Bytes()
}
