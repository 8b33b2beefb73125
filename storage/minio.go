package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"autolrc/config"
	"autolrc/logger"
)

// Publisher uploads finished lyric files to an object-storage bucket so
// other services can pick them up. A nil *Publisher is a no-op.
type Publisher struct {
	client *minio.Client
	bucket string
}

// Connect initializes the publisher from configuration. Returns nil
// (publication disabled) when no endpoint is configured.
func Connect(cfg *config.Config) (*Publisher, error) {
	if cfg.MinioEndpoint == "" {
		return nil, nil
	}

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("created artifact bucket", logger.String("bucket", cfg.MinioBucket))
	}

	return &Publisher{client: client, bucket: cfg.MinioBucket}, nil
}

// Publish uploads one local file under its base name.
func (p *Publisher) Publish(ctx context.Context, localPath string) error {
	if p == nil || p.client == nil {
		return nil
	}

	objectName := filepath.Base(localPath)
	contentType := "text/plain; charset=utf-8"

	_, err := p.client.FPutObject(ctx, p.bucket, objectName, localPath,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("upload %s to bucket %s: %w", objectName, p.bucket, err)
	}

	logger.Info("published artifact",
		logger.String("object", objectName),
		logger.String("bucket", p.bucket))
	return nil
}
