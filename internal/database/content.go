package database

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrContentNotFound = errors.New("content entry not found")

// ContentStore keeps the published slugs the sitemap lists.
type ContentStore struct {
	db *gorm.DB
}

func NewContentStore(db *gorm.DB) *ContentStore {
	return &ContentStore{db: db}
}

// Upsert inserts the entry or refreshes its title.
func (s *ContentStore) Upsert(ctx context.Context, e ContentEntry) error {
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "updated_at"}),
	}).Create(&e).Error
}

func (s *ContentStore) Delete(ctx context.Context, collection, slug string) error {
	result := s.db.WithContext(ctx).
		Where("collection = ? AND slug = ?", collection, slug).
		Delete(&ContentEntry{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrContentNotFound
	}
	return nil
}

// Slugs returns up to limit slugs of collection, newest first.
func (s *ContentStore) Slugs(ctx context.Context, collection string, limit int) ([]string, error) {
	var slugs []string
	err := s.db.WithContext(ctx).
		Model(&ContentEntry{}).
		Where("collection = ?", collection).
		Order("created_at DESC, slug").
		Limit(limit).
		Pluck("slug", &slugs).Error
	return slugs, err
}
