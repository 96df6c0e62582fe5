package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// Device is a mock implementation of camera.Device
type Device struct {
	mock.Mock
}

func (m *Device) CaptureImage(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
