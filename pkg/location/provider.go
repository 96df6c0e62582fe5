package location

import (
	"context"
	"errors"
)

// ErrPermissionDenied is returned by providers when the process is not allowed to read the sensor.
var ErrPermissionDenied = errors.New("location permission denied")

// Provider interface defines the methods for location providers
type Provider interface {
	GetLocation(ctx context.Context) (Coordinate, error)
	Close() error
}
