package storage

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	"github.com/estensen/wallet-credit-score/internal/config"
)

type MinIOStorage struct {
	Client     *minio.Client
	BucketName string
}

// SetupMinIOStorage connects to the configured endpoint and makes sure the
// bucket exists.
func SetupMinIOStorage(ctx context.Context, cfg config.MinIOConfig) (*MinIOStorage, error) {
	storage, err := NewMinIOStorage(ctx, cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, cfg.Bucket, cfg.UseSSL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO storage: %w", err)
	}
	log.Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.Bucket).Msg("Initialized MinIO storage")
	return storage, nil
}

// NewMinIOStorage initializes and returns a new MinIOStorage instance.
func NewMinIOStorage(ctx context.Context, endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*MinIOStorage, error) {
	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := minioClient.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("error checking bucket existence: %w", err)
	}
	if !exists {
		if err := minioClient.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Info().Str("bucket", bucketName).Msg("Bucket created")
	}

	return &MinIOStorage{
		Client:     minioClient,
		BucketName: bucketName,
	}, nil
}

// UploadFile uploads a file to the bucket, replacing any object of the same name.
func (m *MinIOStorage) UploadFile(ctx context.Context, objectName string, data io.Reader) error {
	_, err := m.Client.PutObject(ctx, m.BucketName, objectName, data, -1, minio.PutObjectOptions{
		ContentType: contentType(objectName),
	})
	if err != nil {
		return fmt.Errorf("failed to upload file '%s' to MinIO: %w", objectName, err)
	}
	log.Info().Str("object", objectName).Str("bucket", m.BucketName).Msg("File uploaded")
	return nil
}

func contentType(objectName string) string {
	if path.Ext(objectName) == ".csv" {
		return "text/csv"
	}
	return "application/octet-stream"
}
