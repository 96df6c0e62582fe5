package camera

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileDevice takes the image another process drops at a fixed path, for
// setups where a separate camera app owns the sensor. Each capture snapshots
// the file into outputDir so later drops do not change a held image.
type FileDevice struct {
	sourcePath string
	outputDir  string
}

// NewFileDevice creates a FileDevice reading sourcePath.
func NewFileDevice(sourcePath, outputDir string) *FileDevice {
	return &FileDevice{
		sourcePath: sourcePath,
		outputDir:  outputDir,
	}
}

// CaptureImage copies the current source image and returns the copy's path.
func (f *FileDevice) CaptureImage(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := os.Open(f.sourcePath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	defer src.Close()

	if err := os.MkdirAll(f.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create capture directory %s: %w", f.outputDir, err)
	}

	output := filepath.Join(f.outputDir, uuid.NewString()+".jpg")
	dst, err := os.Create(output)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", output, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(output)
		return "", fmt.Errorf("failed to copy captured image: %w", err)
	}

	return output, nil
}
