package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"villamedia/internal/media"
)

// AssetStore is the SQLite implementation of media.Store.
type AssetStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAssetStore(db *gorm.DB) *AssetStore {
	return &AssetStore{db: db, now: time.Now}
}

// SetClock replaces the time source used for ModifiedAt.
func (s *AssetStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *AssetStore) Create(ctx context.Context, rec *media.Record) error {
	if rec.ModifiedAt == 0 {
		rec.ModifiedAt = s.now().UnixMilli()
	}
	a := toAsset(rec)
	return s.db.WithContext(ctx).Create(&a).Error
}

func (s *AssetStore) Get(ctx context.Context, id string) (*media.Record, error) {
	var a Asset
	err := s.db.WithContext(ctx).Preload("Variants").First(&a, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, media.ErrNotFound
		}
		return nil, err
	}
	return toRecord(&a), nil
}

// MergeVariants upserts descriptors by (asset, name) and moves modified_at
// to max(now, previous+1) in the same transaction. Variants not named in
// descriptors are left as they are.
func (s *AssetStore) MergeVariants(ctx context.Context, id string, descriptors []media.Descriptor) (*media.Record, error) {
	var out *media.Record

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prev Asset
		if err := tx.Select("id", "modified_at").First(&prev, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return media.ErrNotFound
			}
			return err
		}

		if len(descriptors) > 0 {
			rows := make([]AssetVariant, 0, len(descriptors))
			for _, d := range descriptors {
				rows = append(rows, toVariant(id, d))
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "asset_id"}, {Name: "name"}},
				UpdateAll: true,
			}).Create(&rows).Error
			if err != nil {
				return err
			}
		}

		next := max(s.now().UnixMilli(), prev.ModifiedAt+1)
		if err := tx.Model(&Asset{}).Where("id = ?", id).Update("modified_at", next).Error; err != nil {
			return err
		}

		var a Asset
		if err := tx.Preload("Variants").First(&a, "id = ?", id).Error; err != nil {
			return err
		}
		out = toRecord(&a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AssetStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Children first; the FK cascade only fires with foreign_keys on.
		if err := tx.Where("asset_id = ?", id).Delete(&AssetVariant{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&Asset{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return media.ErrNotFound
		}
		return nil
	})
}

// List pages through assets, newest first. Search matches a filename prefix.
func (s *AssetStore) List(ctx context.Context, q media.ListQuery) ([]media.Record, int64, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 || limit > 100 {
		limit = 50
	}

	base := func() *gorm.DB {
		db := s.db.WithContext(ctx).Model(&Asset{})
		if search := strings.TrimSpace(q.Search); search != "" {
			db = db.Where(`filename LIKE ? ESCAPE '\'`, escapeLike(strings.ToLower(search))+"%")
		}
		return db
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var assets []Asset
	err := base().
		Preload("Variants").
		Order("created_at DESC, id").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&assets).Error
	if err != nil {
		return nil, 0, err
	}

	out := make([]media.Record, 0, len(assets))
	for i := range assets {
		out = append(out, *toRecord(&assets[i]))
	}
	return out, total, nil
}

// IDs returns every asset id, oldest first.
func (s *AssetStore) IDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&Asset{}).Order("created_at ASC, id").Pluck("id", &ids).Error
	return ids, err
}

// ReferencedFiles is the set of every filename an asset row points at,
// originals and variants.
func (s *AssetStore) ReferencedFiles(ctx context.Context) (map[string]bool, error) {
	var originals, variants []string
	if err := s.db.WithContext(ctx).Model(&Asset{}).Pluck("filename", &originals).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&AssetVariant{}).Pluck("filename", &variants).Error; err != nil {
		return nil, err
	}

	refs := make(map[string]bool, len(originals)+len(variants))
	for _, f := range originals {
		refs[f] = true
	}
	for _, f := range variants {
		refs[f] = true
	}
	return refs, nil
}

// Totals returns the asset count and the summed size of the originals.
func (s *AssetStore) Totals(ctx context.Context) (int64, int64, error) {
	var count, size int64
	row := s.db.WithContext(ctx).Model(&Asset{}).Select("count(*), IFNULL(SUM(size), 0)").Row()
	if err := row.Scan(&count, &size); err != nil {
		return 0, 0, err
	}
	return count, size, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func toAsset(rec *media.Record) Asset {
	a := Asset{
		ID:         rec.ID,
		Filename:   rec.Filename,
		MimeType:   rec.MimeType,
		Size:       rec.Size,
		Width:      rec.Width,
		Height:     rec.Height,
		Alt:        rec.Alt,
		Caption:    rec.Caption,
		ModifiedAt: rec.ModifiedAt,
		CreatedAt:  rec.CreatedAt,
	}
	for name, d := range rec.Variants {
		d.Name = name
		a.Variants = append(a.Variants, toVariant(rec.ID, d))
	}
	return a
}

func toVariant(assetID string, d media.Descriptor) AssetVariant {
	return AssetVariant{
		AssetID:  assetID,
		Name:     d.Name,
		Filename: d.Filename,
		URL:      d.URL,
		Width:    d.Width,
		Height:   d.Height,
		MimeType: d.MimeType,
		Size:     d.Size,
	}
}

func toRecord(a *Asset) *media.Record {
	rec := &media.Record{
		ID:         a.ID,
		Filename:   a.Filename,
		MimeType:   a.MimeType,
		Size:       a.Size,
		Width:      a.Width,
		Height:     a.Height,
		Alt:        a.Alt,
		Caption:    a.Caption,
		CreatedAt:  a.CreatedAt,
		ModifiedAt: a.ModifiedAt,
		Variants:   make(map[string]media.Descriptor, len(a.Variants)),
	}
	for _, v := range a.Variants {
		rec.Variants[v.Name] = media.Descriptor{
			Name:     v.Name,
			Filename: v.Filename,
			URL:      v.URL,
			Width:    v.Width,
			Height:   v.Height,
			MimeType: v.MimeType,
			Size:     v.Size,
		}
	}
	return rec
}
