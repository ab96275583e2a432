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

// CheckpointRepository stores one active scan checkpoint per
// (channel, profile) pair, outside the item table.
type CheckpointRepository interface {
	Get(ctx context.Context, channelID, profileName string) (*model.ScanCheckpoint, error)
	Save(ctx context.Context, cp *model.ScanCheckpoint) error
}

type mysqlCheckpointRepository struct {
	db *gorm.DB
}

// NewMySQLCheckpointRepository creates a checkpoint repository backed by the
// given GORM handle.
func NewMySQLCheckpointRepository(db *gorm.DB) CheckpointRepository {
	return &mysqlCheckpointRepository{db: db}
}

// Get returns the checkpoint or (nil, nil) when none exists yet.
func (r *mysqlCheckpointRepository) Get(ctx context.Context, channelID, profileName string) (*model.ScanCheckpoint, error) {
	var cp model.ScanCheckpoint
	err := r.db.WithContext(ctx).
		First(&cp, "channel_id = ? AND profile_name = ?", channelID, profileName).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint for %s/%s: %w", channelID, profileName, err)
	}
	return &cp, nil
}

// Save overwrites the checkpoint for its (channel, profile) pair.
func (r *mysqlCheckpointRepository) Save(ctx context.Context, cp *model.ScanCheckpoint) error {
	cp.UpdatedAt = time.Now()
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "channel_id"}, {Name: "profile_name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"last_item_id", "items_processed", "config_fingerprint", "updated_at",
		}),
	}).Create(cp).Error
	if err != nil {
		return fmt.Errorf("failed to save checkpoint for %s/%s: %w", cp.ChannelID, cp.ProfileName, err)
	}
	return nil
}
