package capture_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/benmeehan/mission-agent/internal/capture"
	"github.com/benmeehan/mission-agent/internal/mocks"
	"github.com/benmeehan/mission-agent/internal/models"
	"github.com/benmeehan/mission-agent/pkg/camera"
	"github.com/benmeehan/mission-agent/pkg/file"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func jpeg(marker byte) []byte {
	return []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, marker, 0xFF, 0xD9}
}

func newGate(device *mocks.Device) *capture.Gate {
	return capture.NewGate(device, file.NewFileService(), zerolog.Nop())
}

// TestGate_Capture_HoldsEvidence captures a JPEG and checks the evidence metadata.
func TestGate_Capture_HoldsEvidence(t *testing.T) {
	device := new(mocks.Device)
	path := writeImage(t, "a.jpg", jpeg(1))
	device.On("CaptureImage", mock.Anything).Return(path, nil).Once()

	gate := newGate(device)
	evidence, err := gate.Capture(context.Background())

	require.NoError(t, err)
	assert.Equal(t, path, evidence.ImageHandle)
	assert.Equal(t, "image/jpeg", evidence.MimeType)
	assert.EqualValues(t, len(jpeg(1)), evidence.Size)
	assert.Len(t, evidence.Digest, 64)

	current, ok := gate.Current()
	assert.True(t, ok)
	assert.Equal(t, evidence, current)
	device.AssertExpectations(t)
}

// TestGate_Capture_ReplacesEvidence keeps only the latest capture.
func TestGate_Capture_ReplacesEvidence(t *testing.T) {
	device := new(mocks.Device)
	first := writeImage(t, "a.jpg", jpeg(1))
	second := writeImage(t, "b.jpg", jpeg(2))
	device.On("CaptureImage", mock.Anything).Return(first, nil).Once()
	device.On("CaptureImage", mock.Anything).Return(second, nil).Once()

	gate := newGate(device)
	a, err := gate.Capture(context.Background())
	require.NoError(t, err)
	b, err := gate.Capture(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, a.Digest, b.Digest)
	current, ok := gate.Current()
	require.True(t, ok)
	assert.Equal(t, second, current.ImageHandle)
	assert.NoFileExists(t, first)
	assert.FileExists(t, second)
}

// TestGate_Capture_DeviceUnavailable returns a CaptureError and leaves the slot empty.
func TestGate_Capture_DeviceUnavailable(t *testing.T) {
	device := new(mocks.Device)
	device.On("CaptureImage", mock.Anything).Return(writeImage(t, "a.jpg", jpeg(1)), nil).Once()
	device.On("CaptureImage", mock.Anything).Return("", camera.ErrDeviceUnavailable).Once()

	gate := newGate(device)
	_, err := gate.Capture(context.Background())
	require.NoError(t, err)

	_, err = gate.Capture(context.Background())

	var captureErr *models.CaptureError
	require.ErrorAs(t, err, &captureErr)
	assert.ErrorIs(t, err, camera.ErrDeviceUnavailable)
	_, ok := gate.Current()
	assert.False(t, ok)
}

// TestGate_Capture_RejectsNonJPEG sniffs the content instead of trusting the extension.
func TestGate_Capture_RejectsNonJPEG(t *testing.T) {
	device := new(mocks.Device)
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
	path := writeImage(t, "fake.jpg", png)
	device.On("CaptureImage", mock.Anything).Return(path, nil)

	_, err := newGate(device).Capture(context.Background())

	assert.ErrorIs(t, err, capture.ErrNotJPEG)
	assert.NoFileExists(t, path)
}

// TestGate_CheckoutLocksSlot refuses capture and discard until the evidence is consumed.
func TestGate_CheckoutLocksSlot(t *testing.T) {
	device := new(mocks.Device)
	device.On("CaptureImage", mock.Anything).Return(writeImage(t, "a.jpg", jpeg(1)), nil).Once()

	gate := newGate(device)
	_, err := gate.Capture(context.Background())
	require.NoError(t, err)

	_, err = gate.Checkout()
	require.NoError(t, err)

	_, err = gate.Checkout()
	assert.ErrorIs(t, err, capture.ErrEvidenceInFlight)
	assert.ErrorIs(t, gate.Discard(), capture.ErrEvidenceInFlight)
	_, err = gate.Capture(context.Background())
	assert.ErrorIs(t, err, capture.ErrEvidenceInFlight)

	gate.Consume()

	_, ok := gate.Current()
	assert.False(t, ok)
	_, err = gate.Checkout()
	assert.ErrorIs(t, err, capture.ErrNoEvidence)
	device.AssertExpectations(t)
}

// TestGate_DiscardAndReset clear the slot and delete the held image.
func TestGate_DiscardAndReset(t *testing.T) {
	device := new(mocks.Device)
	first := writeImage(t, "a.jpg", jpeg(1))
	second := writeImage(t, "b.jpg", jpeg(2))
	device.On("CaptureImage", mock.Anything).Return(first, nil).Once()
	device.On("CaptureImage", mock.Anything).Return(second, nil).Once()

	gate := newGate(device)
	_, err := gate.Capture(context.Background())
	require.NoError(t, err)

	require.NoError(t, gate.Discard())
	_, ok := gate.Current()
	assert.False(t, ok)
	assert.NoFileExists(t, first)

	_, err = gate.Capture(context.Background())
	require.NoError(t, err)
	_, err = gate.Checkout()
	require.NoError(t, err)

	gate.Reset()
	_, ok = gate.Current()
	assert.False(t, ok)
	assert.NoFileExists(t, second)
	assert.NoError(t, gate.Discard())
	device.AssertExpectations(t)
}

// TestGate_LeavesNoImagesBehind runs repeated capture and discard cycles
// against a real device and checks its output directory ends up empty.
func TestGate_LeavesNoImagesBehind(t *testing.T) {
	// Setup
	source := writeImage(t, "source.jpg", jpeg(7))
	outputDir := t.TempDir()
	gate := capture.NewGate(camera.NewFileDevice(source, outputDir), file.NewFileService(), zerolog.Nop())

	// Execute
	for i := 0; i < 5; i++ {
		_, err := gate.Capture(context.Background())
		require.NoError(t, err)
		require.NoError(t, gate.Discard())
	}
	_, err := gate.Capture(context.Background())
	require.NoError(t, err)
	_, err = gate.Capture(context.Background())
	require.NoError(t, err)
	gate.Reset()

	// Assert
	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.FileExists(t, source)
}

// TestGate_ConsumeHandsOffImage keeps the image file for the caller after consumption.
func TestGate_ConsumeHandsOffImage(t *testing.T) {
	device := new(mocks.Device)
	path := writeImage(t, "a.jpg", jpeg(1))
	device.On("CaptureImage", mock.Anything).Return(path, nil).Once()

	gate := newGate(device)
	_, err := gate.Capture(context.Background())
	require.NoError(t, err)
	evidence, err := gate.Checkout()
	require.NoError(t, err)

	gate.Consume()
	gate.Reset()

	assert.Equal(t, path, evidence.ImageHandle)
	assert.FileExists(t, path)
}

// TestGate_ConsumeWithoutCheckout leaves held evidence alone.
func TestGate_ConsumeWithoutCheckout(t *testing.T) {
	device := new(mocks.Device)
	device.On("CaptureImage", mock.Anything).Return(writeImage(t, "a.jpg", jpeg(1)), nil)

	gate := newGate(device)
	_, err := gate.Capture(context.Background())
	require.NoError(t, err)

	gate.Consume()

	_, ok := gate.Current()
	assert.True(t, ok)
}
