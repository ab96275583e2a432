package model

import "time"

// ScanCheckpoint records scan progress for one (channel, profile) pair so an
// interrupted scan can resume without reprocessing from scratch. It is written
// only after a completed batch and never deleted automatically.
type ScanCheckpoint struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	ChannelID         string    `json:"channelId" gorm:"column:channel_id;size:64;uniqueIndex:idx_channel_profile"`
	ProfileName       string    `json:"profileName" gorm:"size:64;uniqueIndex:idx_channel_profile"`
	LastItemID        int64     `json:"lastItemId"` // message id of the last successfully scanned item
	ItemsProcessed    int64     `json:"itemsProcessed"`
	ConfigFingerprint string    `json:"configFingerprint" gorm:"size:64"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// TableName overrides the GORM default pluralization.
func (ScanCheckpoint) TableName() string {
	return "scan_checkpoints"
}
