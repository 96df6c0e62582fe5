package camera

import (
	"context"
	"errors"
)

// ErrDeviceUnavailable is returned when no capture device is ready.
var ErrDeviceUnavailable = errors.New("capture device unavailable")

// Device captures a still image and returns an opaque handle to it. For the
// devices in this package the handle is a path on the local filesystem.
type Device interface {
	CaptureImage(ctx context.Context) (string, error)
}
