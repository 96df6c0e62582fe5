package mocks

import (
	"context"

	"github.com/benmeehan/mission-agent/pkg/location"
	"github.com/stretchr/testify/mock"
)

// LocationProvider is a mock implementation of location.Provider
type LocationProvider struct {
	mock.Mock
}

func (m *LocationProvider) GetLocation(ctx context.Context) (location.Coordinate, error) {
	args := m.Called(ctx)
	return args.Get(0).(location.Coordinate), args.Error(1)
}

func (m *LocationProvider) Close() error {
	args := m.Called()
	return args.Error(0)
}
