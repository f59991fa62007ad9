package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Storage uploads rendered artifacts to S3-compatible object storage
// so exports remain downloadable after regeneration.
type Storage struct {
	client *minio.Client
	bucket string
}

func NewStorage(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*Storage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}
	return &Storage{client: client, bucket: bucket}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// Upload stores the artifact under exports/<ideaID>/ and returns a
// presigned download URL valid for seven days.
func (s *Storage) Upload(ctx context.Context, ideaID string, result *Result) (string, error) {
	objectName := fmt.Sprintf("exports/%s/%d-%s", ideaID, time.Now().Unix(), result.Filename)

	_, err := s.client.PutObject(ctx, s.bucket, objectName,
		bytes.NewReader(result.Data), int64(len(result.Data)),
		minio.PutObjectOptions{ContentType: result.MimeType})
	if err != nil {
		return "", fmt.Errorf("upload artifact: %w", err)
	}

	url, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, 7*24*time.Hour, nil)
	if err != nil {
		return "", fmt.Errorf("presign artifact url: %w", err)
	}
	return url.String(), nil
}
