package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benmeehan/mission-agent/internal/constants"
	"github.com/benmeehan/mission-agent/internal/models"
	"github.com/benmeehan/mission-agent/pkg/camera"
	"github.com/benmeehan/mission-agent/pkg/file"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
)

var (
	// ErrNoEvidence is returned when evidence is requested but none is held.
	ErrNoEvidence = errors.New("no evidence captured")
	// ErrEvidenceInFlight is returned when the held evidence is checked out for verification.
	ErrEvidenceInFlight = errors.New("evidence is being verified")
	// ErrCaptureInProgress is returned when another capture has not finished yet.
	ErrCaptureInProgress = errors.New("capture already in progress")
	// ErrNotJPEG is wrapped in a CaptureError when the device produced something other than a JPEG.
	ErrNotJPEG = errors.New("captured image is not a JPEG")
)

// Gate owns the single evidence slot between a mission session and the capture device.
type Gate struct {
	device     camera.Device
	fileClient file.FileOperations
	now        func() time.Time
	logger     zerolog.Logger

	mu         sync.Mutex
	evidence   *models.Evidence
	capturing  bool
	checkedOut bool
	generation uint64 // bumped by Reset so a superseded capture is dropped
}

// NewGate creates an empty Gate in front of device.
func NewGate(device camera.Device, fileClient file.FileOperations, logger zerolog.Logger) *Gate {
	return &Gate{
		device:     device,
		fileClient: fileClient,
		now:        time.Now,
		logger:     logger,
	}
}

// Capture discards any held evidence, takes a new picture and holds it.
// Device and content failures are returned as *models.CaptureError, after
// which the slot is empty. Image files the gate drops are deleted.
func (g *Gate) Capture(ctx context.Context) (models.Evidence, error) {
	g.mu.Lock()
	switch {
	case g.checkedOut:
		g.mu.Unlock()
		return models.Evidence{}, ErrEvidenceInFlight
	case g.capturing:
		g.mu.Unlock()
		return models.Evidence{}, ErrCaptureInProgress
	}
	previous := g.evidence
	g.evidence = nil
	g.capturing = true
	generation := g.generation
	g.mu.Unlock()

	if previous != nil {
		g.remove(previous.ImageHandle)
	}

	evidence, handle, err := g.capture(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()
	if generation != g.generation {
		g.remove(handle)
		return models.Evidence{}, &models.CaptureError{Err: context.Canceled}
	}
	g.capturing = false
	if err != nil {
		g.remove(handle)
		g.logger.Warn().Err(err).Msg("Capture failed")
		return models.Evidence{}, &models.CaptureError{Err: err}
	}

	g.evidence = &evidence
	g.logger.Info().
		Str("image", evidence.ImageHandle).
		Int64("size", evidence.Size).
		Str("digest", evidence.Digest).
		Msg("Evidence captured")
	return evidence, nil
}

// capture returns the device's file handle even when the image is unusable,
// so the caller can delete it.
func (g *Gate) capture(ctx context.Context) (models.Evidence, string, error) {
	handle, err := g.device.CaptureImage(ctx)
	if err != nil {
		return models.Evidence{}, handle, err
	}

	mtype, err := mimetype.DetectFile(handle)
	if err != nil {
		return models.Evidence{}, handle, fmt.Errorf("failed to inspect %s: %w", handle, err)
	}
	if !mtype.Is(constants.EvidenceMimeType) {
		return models.Evidence{}, handle, fmt.Errorf("%w: got %s", ErrNotJPEG, mtype.String())
	}

	size, err := g.fileClient.GetFileSize(handle)
	if err != nil {
		return models.Evidence{}, handle, err
	}
	digest, err := g.fileClient.GetFileDigest(handle)
	if err != nil {
		return models.Evidence{}, handle, err
	}

	return models.Evidence{
		ImageHandle: handle,
		MimeType:    constants.EvidenceMimeType,
		Size:        size,
		Digest:      digest,
		CapturedAt:  g.now(),
	}, handle, nil
}

func (g *Gate) remove(handle string) {
	if handle == "" {
		return
	}
	if err := g.fileClient.Remove(handle); err != nil {
		g.logger.Warn().Err(err).Str("image", handle).Msg("Failed to remove image")
	}
}

// Discard clears the held evidence and deletes its image. It is refused while
// the evidence is checked out.
func (g *Gate) Discard() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.checkedOut {
		return ErrEvidenceInFlight
	}
	if g.evidence != nil {
		g.remove(g.evidence.ImageHandle)
	}
	g.evidence = nil
	return nil
}

// Current returns the held evidence, if any.
func (g *Gate) Current() (models.Evidence, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.evidence == nil {
		return models.Evidence{}, false
	}
	return *g.evidence, true
}

// Checkout hands the held evidence to a verification and locks the slot until Consume.
func (g *Gate) Checkout() (models.Evidence, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch {
	case g.checkedOut:
		return models.Evidence{}, ErrEvidenceInFlight
	case g.capturing:
		return models.Evidence{}, ErrCaptureInProgress
	case g.evidence == nil:
		return models.Evidence{}, ErrNoEvidence
	}
	g.checkedOut = true
	return *g.evidence, nil
}

// Consume invalidates checked out evidence; it can never be submitted again.
// The image file is left in place and belongs to the caller from here on.
// It does nothing when no evidence is checked out.
func (g *Gate) Consume() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.checkedOut {
		return
	}
	g.evidence = nil
	g.checkedOut = false
}

// Reset empties the slot whatever its state, for an abandoned session, and
// deletes the held image.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.evidence != nil {
		g.remove(g.evidence.ImageHandle)
	}
	g.evidence = nil
	g.checkedOut = false
	g.capturing = false
	g.generation++
}
