package database

import (
	"time"
)

// Asset is the stored original. ModifiedAt (unix ms) is the cache-busting
// key and is bumped on every variant merge.
type Asset struct {
	ID       string `gorm:"primaryKey;type:text"`
	Filename string `gorm:"uniqueIndex;not null"`
	MimeType string `gorm:"not null"`
	Size     int64
	Width    int
	Height   int
	Alt      string
	Caption  string

	ModifiedAt int64          `gorm:"not null"`
	CreatedAt  time.Time      `gorm:"index"`
	Variants   []AssetVariant `gorm:"foreignKey:AssetID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// AssetVariant is one entry of an asset's variant index, keyed by name.
type AssetVariant struct {
	AssetID  string `gorm:"primaryKey;type:text"`
	Name     string `gorm:"primaryKey;type:text"`
	Filename string `gorm:"not null"`
	URL      string
	Width    int
	Height   int
	MimeType string
	Size     int64
}

// ContentEntry is a published page of a content collection ("projects",
// "blogPosts") listed in the sitemap.
type ContentEntry struct {
	Collection string `gorm:"primaryKey;type:text"`
	Slug       string `gorm:"primaryKey;type:text"`
	Title      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
