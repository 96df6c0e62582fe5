package s3_test

import (
	"context"
	"strings"
	"testing"

	"github.com/benmeehan/mission-agent/pkg/s3"
	"github.com/stretchr/testify/assert"
)

// TestUploadFile_NotConnected refuses to upload before Connect.
func TestUploadFile_NotConnected(t *testing.T) {
	storage := s3.NewObjectStorage("")

	err := storage.UploadFile(context.Background(), "bucket", "object.jpg", strings.NewReader("x"), 1, "image/jpeg", nil)

	assert.ErrorIs(t, err, s3.ErrNotConnected)
}
