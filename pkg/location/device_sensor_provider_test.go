package location

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestReadFix_SkipsNoiseAndInvalidFixes feeds a stream with garbage, an RMC and a no-fix GGA before a good one.
func TestReadFix_SkipsNoiseAndInvalidFixes(t *testing.T) {
	stream := strings.Join([]string{
		"50.000,3737.92",
		"$GPRMC,092750.000,A,3737.9200,N,12703.3600,E,0.02,31.66,280511,,,A*51",
		"$GPGGA,092751.000,,,,,0,0,,,M,,M,,*40",
		"$GNGGA,092752.000,3737.9200,N,12703.3600,E,1,9,0.90,61.7,M,55.2,M,,*72",
	}, "\r\n")

	coord, err := readFix(strings.NewReader(stream))

	require.NoError(t, err)
	assert.InDelta(t, 37.632, coord.Latitude, 1e-9)
	assert.InDelta(t, 127.056, coord.Longitude, 1e-9)
	assert.InDelta(t, 0.90, coord.Accuracy, 1e-9)
}

// TestReadFix_NoFix returns ErrNoFix when the stream ends without a usable sentence.
func TestReadFix_NoFix(t *testing.T) {
	_, err := readFix(strings.NewReader("$GPGGA,092751.000,,,,,0,0,,,M,,M,,*40\n"))

	assert.ErrorIs(t, err, ErrNoFix)
}

// TestDeviceSensorProvider_MissingPort reports an open failure that is not a permission problem.
func TestDeviceSensorProvider_MissingPort(t *testing.T) {
	p := NewDeviceSensorProvider("/dev/does-not-exist-gps", 9600, 0)

	_, err := p.GetLocation(context.Background())

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPermissionDenied)
}

// TestStaticProvider returns the configured coordinate and honours cancellation.
func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider(Coordinate{Latitude: 1, Longitude: 2})

	coord, err := p.GetLocation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Coordinate{Latitude: 1, Longitude: 2}, coord)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.GetLocation(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, p.Close())
}
