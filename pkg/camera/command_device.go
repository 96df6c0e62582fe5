package camera

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// OutputPlaceholder is replaced by the target image path in command arguments.
const OutputPlaceholder = "{output}"

// CommandDevice captures stills by running an external program such as
// libcamera-still or fswebcam, e.g. ["libcamera-still", "-n", "-o", "{output}"].
type CommandDevice struct {
	command   []string
	outputDir string
}

// NewCommandDevice creates a CommandDevice. Captured images are written to outputDir.
func NewCommandDevice(command []string, outputDir string) *CommandDevice {
	return &CommandDevice{
		command:   command,
		outputDir: outputDir,
	}
}

// CaptureImage runs the capture command and returns the path of the new image.
func (c *CommandDevice) CaptureImage(ctx context.Context) (string, error) {
	if len(c.command) == 0 {
		return "", fmt.Errorf("%w: no capture command configured", ErrDeviceUnavailable)
	}
	if _, err := exec.LookPath(c.command[0]); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create capture directory %s: %w", c.outputDir, err)
	}

	output := filepath.Join(c.outputDir, uuid.NewString()+".jpg")
	args := make([]string, 0, len(c.command)-1)
	for _, arg := range c.command[1:] {
		args = append(args, strings.ReplaceAll(arg, OutputPlaceholder, output))
	}

	if out, err := exec.CommandContext(ctx, c.command[0], args...).CombinedOutput(); err != nil {
		return "", fmt.Errorf("%w: %s: %v: %s", ErrDeviceUnavailable, c.command[0], err, strings.TrimSpace(string(out)))
	}
	if _, err := os.Stat(output); err != nil {
		return "", fmt.Errorf("%w: capture command produced no image: %v", ErrDeviceUnavailable, err)
	}

	return output, nil
}
