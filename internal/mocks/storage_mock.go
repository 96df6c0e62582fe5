package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// ObjectStorage is a mock implementation of s3.ObjectStorageClient
type ObjectStorage struct {
	mock.Mock
}

func (m *ObjectStorage) Connect(ctx context.Context, endpoint, accessKeyID, secretAccessKey string, useSSL bool) error {
	args := m.Called(ctx, endpoint, accessKeyID, secretAccessKey, useSSL)
	return args.Error(0)
}

func (m *ObjectStorage) UploadFile(ctx context.Context, bucketName, objectName string, content io.Reader, size int64, contentType string, metadata map[string]string) error {
	args := m.Called(ctx, bucketName, objectName, content, size, contentType, metadata)
	return args.Error(0)
}
