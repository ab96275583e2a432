package sink

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/lavai-rg/telegram-automation/model"
	"github.com/lavai-rg/telegram-automation/storage"
)

// CloudDispatcher uploads an organized track to MinIO. The object key is the
// item's path relative to the organized directory, so the bucket mirrors the
// local Artist - Album/Side layout and retried uploads overwrite the same key.
type CloudDispatcher struct {
	store        *storage.MinioStorage
	organizedDir string
}

func NewCloudDispatcher(store *storage.MinioStorage, organizedDir string) *CloudDispatcher {
	return &CloudDispatcher{store: store, organizedDir: organizedDir}
}

func (d *CloudDispatcher) Name() string { return "cloud" }

func (d *CloudDispatcher) Advances() model.Status { return model.StatusUploaded }

func (d *CloudDispatcher) Dispatch(ctx context.Context, item *model.TrackItem) error {
	objectKey, err := filepath.Rel(d.organizedDir, item.LocalPath)
	if err != nil {
		return fmt.Errorf("failed to derive object key for %s: %w", item.LocalPath, err)
	}

	url, err := d.store.Upload(ctx, item.LocalPath, objectKey)
	if err != nil {
		return err
	}
	item.CloudURL = url

	secondary, err := d.store.UploadSecondary(ctx, item.LocalPath, objectKey)
	if err != nil {
		return err
	}
	if secondary != "" {
		item.SecondaryCloudURL = secondary
	}

	return nil
}
