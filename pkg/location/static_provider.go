package location

import "context"

// StaticProvider always reports the same coordinate. It is meant for kiosks
// installed at a known position and for development setups without a GPS.
type StaticProvider struct {
	coordinate Coordinate
}

// NewStaticProvider creates a provider that reports c.
func NewStaticProvider(c Coordinate) *StaticProvider {
	return &StaticProvider{coordinate: c}
}

// GetLocation returns the configured coordinate unless ctx is already done.
func (s *StaticProvider) GetLocation(ctx context.Context) (Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return Coordinate{}, err
	}
	return s.coordinate, nil
}

// Close is a no-op.
func (s *StaticProvider) Close() error { return nil }
