// Package storage wraps the MinIO client used as the cloud sink for
// organized tracks. Object keys mirror the local organized layout, so the
// bucket ends up with the same Artist - Album/Side structure.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/lavai-rg/telegram-automation/config"
	"github.com/lavai-rg/telegram-automation/logger"
)

// MinioStorage uploads organized tracks to a primary bucket and, when
// configured, mirrors them into a secondary bucket.
type MinioStorage struct {
	client          *minio.Client
	endpoint        string
	useSSL          bool
	bucket          string
	secondaryBucket string // empty disables the mirror upload
}

// NewMinioStorage connects to MinIO and makes sure the configured buckets
// exist.
func NewMinioStorage(cfg *config.Config) (*MinioStorage, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	s := &MinioStorage{
		client:          client,
		endpoint:        cfg.MinioEndpoint,
		useSSL:          cfg.MinioUseSSL,
		bucket:          cfg.MinioBucket,
		secondaryBucket: cfg.MinioSecondaryBucket,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.ensureBucket(ctx, cfg.MinioBucket, cfg.MinioRegion); err != nil {
		return nil, err
	}
	if cfg.MinioSecondaryBucket != "" {
		if err := s.ensureBucket(ctx, cfg.MinioSecondaryBucket, cfg.MinioRegion); err != nil {
			return nil, err
		}
	}

	logger.Info("connected to MinIO",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))
	return s, nil
}

func (s *MinioStorage) ensureBucket(ctx context.Context, bucket, region string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
		logger.Info("created bucket", logger.String("bucket", bucket))
	}
	return nil
}

// Upload stores the local file under objectKey in the primary bucket and
// returns a reference URL. Re-uploading the same key overwrites the object,
// so retries stay idempotent.
func (s *MinioStorage) Upload(ctx context.Context, localPath, objectKey string) (string, error) {
	return s.uploadTo(ctx, s.bucket, localPath, objectKey)
}

// UploadSecondary mirrors the file into the secondary bucket. Returns an
// empty URL when no secondary bucket is configured.
func (s *MinioStorage) UploadSecondary(ctx context.Context, localPath, objectKey string) (string, error) {
	if s.secondaryBucket == "" {
		return "", nil
	}
	return s.uploadTo(ctx, s.secondaryBucket, localPath, objectKey)
}

func (s *MinioStorage) uploadTo(ctx context.Context, bucket, localPath, objectKey string) (string, error) {
	objectKey = strings.TrimPrefix(filepath.ToSlash(objectKey), "/")

	_, err := s.client.FPutObject(ctx, bucket, objectKey, localPath, minio.PutObjectOptions{
		ContentType: inferContentType(objectKey),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to bucket %s: %w", objectKey, bucket, err)
	}

	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, bucket, objectKey), nil
}

func inferContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp3":
		return "audio/mpeg"
	case ".flac":
		return "audio/flac"
	case ".ogg":
		return "audio/ogg"
	case ".m4a":
		return "audio/mp4"
	case ".wav":
		return "audio/wav"
	default:
		return "application/octet-stream"
	}
}
