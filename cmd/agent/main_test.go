package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const agentConfig = `
identity:
  user_id: "user123"
site:
  fence:
    center:
      latitude: 37.632
      longitude: 127.056
    radius_meters: 1000
location:
  provider: "static"
  static:
    latitude: 37.632
    longitude: 127.056
camera:
  mode: "file"
  source: "photo.jpg"
  output_dir: %q
services:
  mission_base_url: "http://127.0.0.1:1"
  verification_base_url: "http://127.0.0.1:1"
  request_timeout: 1s
  api_version: %q
mqtt:
  enabled: false
status_server:
  enabled: false
archive:
  enabled: false
runner:
  interval: 0s
`

func writeAgentConfig(t *testing.T, apiVersion string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(agentConfig, filepath.Join(dir, "captures"), apiVersion)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TestRun_MissingConfig returns the error instead of exiting the process.
func TestRun_MissingConfig(t *testing.T) {
	err := run(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"), zerolog.Nop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

// TestRun_InvalidAPIConstraint fails after the location provider is open and still returns.
func TestRun_InvalidAPIConstraint(t *testing.T) {
	err := run(context.Background(), writeAgentConfig(t, "not a constraint"), zerolog.Nop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid service API version constraint")
}

// TestRun_StopsOnCancel starts the services and returns cleanly once the context ends.
func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- run(ctx, writeAgentConfig(t, ">= 1.0.0, < 2.0.0"), zerolog.Nop()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancellation")
	}
}
