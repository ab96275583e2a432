package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lavai-rg/telegram-automation/model"
)

// TrackRepository is the durable per-item tracker. Upsert has replace
// semantics keyed by item_id: applying the same item state twice is a no-op
// beyond the updated_at bump, which is what gives the pipeline its
// at-least-once, idempotent behavior.
type TrackRepository interface {
	Upsert(ctx context.Context, item *model.TrackItem) error
	GetByID(ctx context.Context, itemID string) (*model.TrackItem, error)
	ListByStatus(ctx context.Context, status model.Status, page, limit int) ([]*model.TrackItem, error)
	List(ctx context.Context, page, limit int) ([]*model.TrackItem, error)
	CountsByStatus(ctx context.Context) (map[model.Status]int64, error)
}

// mysqlTrackRepository implements TrackRepository on GORM/MySQL.
type mysqlTrackRepository struct {
	db *gorm.DB
}

// NewMySQLTrackRepository creates a track repository backed by the given
// GORM handle.
func NewMySQLTrackRepository(db *gorm.DB) TrackRepository {
	return &mysqlTrackRepository{db: db}
}

// Upsert inserts the item or replaces all its columns when a row with the
// same item_id already exists.
func (r *mysqlTrackRepository) Upsert(ctx context.Context, item *model.TrackItem) error {
	item.UpdatedAt = time.Now()
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_id"}},
		UpdateAll: true,
	}).Create(item).Error
	if err != nil {
		return fmt.Errorf("failed to upsert track item %s: %w", item.ItemID, err)
	}
	return nil
}

// GetByID returns the item or (nil, nil) when no row matches.
func (r *mysqlTrackRepository) GetByID(ctx context.Context, itemID string) (*model.TrackItem, error) {
	var item model.TrackItem
	err := r.db.WithContext(ctx).First(&item, "item_id = ?", itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query track item %s: %w", itemID, err)
	}
	return &item, nil
}

// ListByStatus returns one page of items in the given status, newest first.
func (r *mysqlTrackRepository) ListByStatus(ctx context.Context, status model.Status, page, limit int) ([]*model.TrackItem, error) {
	items := make([]*model.TrackItem, 0, limit)
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("updated_at DESC").
		Offset(pageOffset(page, limit)).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list track items by status %s: %w", status, err)
	}
	return items, nil
}

// List returns one page of items regardless of status, newest first.
func (r *mysqlTrackRepository) List(ctx context.Context, page, limit int) ([]*model.TrackItem, error) {
	items := make([]*model.TrackItem, 0, limit)
	err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		Offset(pageOffset(page, limit)).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list track items: %w", err)
	}
	return items, nil
}

// CountsByStatus groups the whole table by status. The result reflects the
// store at call time; nothing is cached.
func (r *mysqlTrackRepository) CountsByStatus(ctx context.Context) (map[model.Status]int64, error) {
	type row struct {
		Status model.Status
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.TrackItem{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count track items by status: %w", err)
	}

	counts := make(map[model.Status]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func pageOffset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
