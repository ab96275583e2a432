// Package cache publishes live scan progress to Redis so the dashboard can
// show the state of a running scan without touching the tracker database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	progressKey = "scan:progress"
	progressTTL = time.Hour
)

// ScanProgress is a snapshot of a running (or the most recent) scan.
type ScanProgress struct {
	RunID       string    `json:"runId"`
	ChannelID   string    `json:"channelId"`
	Profile     string    `json:"profile"`
	State       string    `json:"state"`
	Processed   int64     `json:"processed"`
	BatchNumber int       `json:"batchNumber"`
	LastItemID  int64     `json:"lastItemId"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProgressCache writes and reads scan progress snapshots. A nil client
// turns every call into a no-op so the scan can run without Redis.
type ProgressCache struct {
	client *redis.Client
}

func NewProgressCache(client *redis.Client) *ProgressCache {
	return &ProgressCache{client: client}
}

// Publish overwrites the current progress snapshot with a short TTL.
func (c *ProgressCache) Publish(ctx context.Context, progress ScanProgress) error {
	if c == nil || c.client == nil {
		return nil
	}
	progress.UpdatedAt = time.Now()
	data, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to marshal scan progress: %w", err)
	}
	if err := c.client.Set(ctx, progressKey, data, progressTTL).Err(); err != nil {
		return fmt.Errorf("failed to publish scan progress: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot, or (nil, nil) when none exists.
func (c *ProgressCache) Latest(ctx context.Context) (*ScanProgress, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	data, err := c.client.Get(ctx, progressKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read scan progress: %w", err)
	}
	var progress ScanProgress
	if err := json.Unmarshal(data, &progress); err != nil {
		return nil, fmt.Errorf("failed to decode scan progress: %w", err)
	}
	return &progress, nil
}
