package archive

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/kaiac/backend/internal/config"
)

// S3Store stores backup archives on any S3-compatible endpoint
type S3Store struct {
	client *minio.Client
	bucket string
}

func NewS3Store(cfg *config.Config) (*S3Store, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize s3 client: %w", err)
	}

	return &S3Store{client: client, bucket: cfg.S3Bucket}, nil
}

func (s *S3Store) Name() string {
	return "s3"
}

func (s *S3Store) Upload(ctx context.Context, path string, content io.Reader, size int64) error {
	info, err := s.client.PutObject(ctx, s.bucket, path, content, size, minio.PutObjectOptions{
		ContentType: "application/gzip",
	})
	if err != nil {
		return fmt.Errorf("failed to upload archive %s: %w", path, err)
	}

	log.Printf("Archive: uploaded %s to %s (%d bytes)", path, s.bucket, info.Size)
	return nil
}

func (s *S3Store) Delete(ctx context.Context, path string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete archive %s: %w", path, err)
	}

	log.Printf("Archive: deleted %s from %s", path, s.bucket)
	return nil
}
