package utils

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// BackupStore receives finished database backups.
type BackupStore interface {
	Store(ctx context.Context, localPath string) (string, error)
}

// LocalStorage keeps backups where VACUUM INTO wrote them.
type LocalStorage struct{}

func (LocalStorage) Store(_ context.Context, localPath string) (string, error) {
	return localPath, nil
}

// S3Storage uploads backups to S3-compatible object storage.
type S3Storage struct {
	Client     *minio.Client
	BucketName string
}

func NewS3Storage(ctx context.Context, endpoint, accessKey, secretKey, bucket, region string, useSSL bool) (*S3Storage, error) {
	// Strip scheme if present
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")

	var creds *credentials.Credentials
	if accessKey == "" || secretKey == "" {
		// Use IAM role credentials if keys are not provided
		creds = credentials.NewIAM("")
	} else {
		creds = credentials.NewStaticV4(accessKey, secretKey, "")
	}

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := minioClient.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", bucket)
	}

	return &S3Storage{Client: minioClient, BucketName: bucket}, nil
}

// Store uploads the file under its base name and returns the object location.
func (s3 *S3Storage) Store(ctx context.Context, localPath string) (string, error) {
	key := filepath.Base(localPath)
	_, err := s3.Client.FPutObject(ctx, s3.BucketName, key, localPath, minio.PutObjectOptions{
		ContentType: "application/vnd.sqlite3",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload backup %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", s3.BucketName, key), nil
}
