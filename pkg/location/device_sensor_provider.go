package location

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/tarm/serial"
)

// ErrNoFix is returned when the GPS stream ended without a usable GGA fix.
var ErrNoFix = errors.New("no valid GPS fix found")

// DeviceSensorProvider is responsible for retrieving location data from a GPS device connected via serial port.
type DeviceSensorProvider struct {
	port        string        // Serial port to which the GPS device is connected
	baudRate    int           // Baud rate for the serial communication
	readTimeout time.Duration // Per-read timeout on the serial port
}

// NewDeviceSensorProvider creates a new instance of DeviceSensorProvider with the specified port and baud rate.
func NewDeviceSensorProvider(port string, baudRate int, readTimeout time.Duration) *DeviceSensorProvider {
	return &DeviceSensorProvider{
		port:        port,
		baudRate:    baudRate,
		readTimeout: readTimeout,
	}
}

// GetLocation opens the serial port and returns the first valid GGA fix.
// A permission error on the port is reported as ErrPermissionDenied.
func (d *DeviceSensorProvider) GetLocation(ctx context.Context) (Coordinate, error) {
	c := &serial.Config{Name: d.port, Baud: d.baudRate, ReadTimeout: d.readTimeout}
	s, err := serial.OpenPort(c)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return Coordinate{}, fmt.Errorf("%w: %s", ErrPermissionDenied, d.port)
		}
		return Coordinate{}, fmt.Errorf("failed to open GPS port %s: %w", d.port, err)
	}
	defer s.Close()

	// Closing the port unblocks a pending read when ctx is cancelled.
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	coord, err := readFix(s)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Coordinate{}, ctxErr
	}
	return coord, err
}

// Close is a no-op; the port is opened per reading.
func (d *DeviceSensorProvider) Close() error { return nil }

// readFix scans NMEA sentences from r until it finds a GGA sentence with a fix.
func readFix(r io.Reader) (Coordinate, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		sentence, err := nmea.Parse(strings.TrimSpace(scanner.Text()))
		if err != nil {
			// Partial sentences are normal right after the port opens.
			continue
		}

		gga, ok := sentence.(nmea.GGA)
		if !ok || gga.FixQuality == nmea.Invalid {
			continue
		}

		return Coordinate{
			Latitude:  gga.Latitude,
			Longitude: gga.Longitude,
			Accuracy:  gga.HDOP, // HDOP as a proxy for accuracy
		}, nil
	}

	if err := scanner.Err(); err != nil {
		return Coordinate{}, fmt.Errorf("failed to read GPS stream: %w", err)
	}

	return Coordinate{}, ErrNoFix
}
