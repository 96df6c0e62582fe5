package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrNotConnected is returned by operations called before Connect.
var ErrNotConnected = errors.New("object storage not connected")

// ObjectStorageClient uploads objects to an S3 compatible store.
type ObjectStorageClient interface {
	Connect(ctx context.Context, endpoint, accessKeyID, secretAccessKey string, useSSL bool) error
	UploadFile(ctx context.Context, bucketName, objectName string, content io.Reader, size int64, contentType string, metadata map[string]string) error
}

// ObjectStorage holds the object storage client instance.
type ObjectStorage struct {
	Conn   *minio.Client
	region string
}

// NewObjectStorage creates an unconnected ObjectStorage. Buckets it creates are placed in region.
func NewObjectStorage(region string) *ObjectStorage {
	if region == "" {
		region = "us-east-1"
	}
	return &ObjectStorage{region: region}
}

// Connect establishes the object storage connection and checks it by listing buckets.
func (o *ObjectStorage) Connect(ctx context.Context, endpoint, accessKeyID, secretAccessKey string, useSSL bool) error {
	conn, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create minio client: %w", err)
	}

	if _, err := conn.ListBuckets(ctx); err != nil {
		return fmt.Errorf("failed to establish minio connection: %w", err)
	}

	o.Conn = conn
	return nil
}

// UploadFile stores content under objectName, creating the bucket if needed.
// An existing object with the same name is overwritten.
func (o *ObjectStorage) UploadFile(ctx context.Context, bucketName, objectName string, content io.Reader, size int64,
	contentType string, metadata map[string]string) error {
	if o.Conn == nil {
		return ErrNotConnected
	}

	err := o.Conn.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: o.region})
	if err != nil {
		exists, errBucketExists := o.Conn.BucketExists(ctx, bucketName)
		if !(errBucketExists == nil && exists) {
			return fmt.Errorf("failed to create bucket %s: %w", bucketName, err)
		}
	}

	_, err = o.Conn.PutObject(ctx, bucketName, objectName, content, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s/%s: %w", bucketName, objectName, err)
	}
	return nil
}
