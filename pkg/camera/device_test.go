package camera_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/benmeehan/mission-agent/pkg/camera"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0xFF, 0xD9}

func TestFileDevice_CaptureImage(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "drop.jpg")
	require.NoError(t, os.WriteFile(source, jpegBytes, 0o600))

	device := camera.NewFileDevice(source, filepath.Join(dir, "captures"))

	first, err := device.CaptureImage(context.Background())
	require.NoError(t, err)
	second, err := device.CaptureImage(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, jpegBytes, data)
}

func TestFileDevice_MissingSource(t *testing.T) {
	device := camera.NewFileDevice(filepath.Join(t.TempDir(), "missing.jpg"), t.TempDir())

	_, err := device.CaptureImage(context.Background())

	assert.ErrorIs(t, err, camera.ErrDeviceUnavailable)
}

func TestCommandDevice_CaptureImage(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "frame.jpg")
	require.NoError(t, os.WriteFile(source, jpegBytes, 0o600))

	device := camera.NewCommandDevice([]string{"cp", source, camera.OutputPlaceholder}, filepath.Join(dir, "out"))

	handle, err := device.CaptureImage(context.Background())

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out"), filepath.Dir(handle))
	data, err := os.ReadFile(handle)
	require.NoError(t, err)
	assert.Equal(t, jpegBytes, data)
}

func TestCommandDevice_Unavailable(t *testing.T) {
	tests := map[string][]string{
		"no command":      nil,
		"missing binary":  {"definitely-not-a-camera-binary", camera.OutputPlaceholder},
		"command fails":   {"false"},
		"writes no image": {"true"},
	}

	for name, command := range tests {
		t.Run(name, func(t *testing.T) {
			device := camera.NewCommandDevice(command, t.TempDir())

			_, err := device.CaptureImage(context.Background())

			assert.ErrorIs(t, err, camera.ErrDeviceUnavailable)
		})
	}
}
