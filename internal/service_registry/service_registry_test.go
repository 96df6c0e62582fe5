package service_registry_test

import (
	"errors"
	"testing"

	"github.com/benmeehan/mission-agent/internal/mocks"
	"github.com/benmeehan/mission-agent/internal/service_registry"
	"github.com/benmeehan/mission-agent/internal/session"
	"github.com/benmeehan/mission-agent/internal/utils"
	"github.com/benmeehan/mission-agent/pkg/file"
	"github.com/benmeehan/mission-agent/pkg/location"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingService struct {
	name     string
	startErr error
	log      *[]string
}

func (r *recordingService) Start() error {
	*r.log = append(*r.log, "start "+r.name)
	return r.startErr
}

func (r *recordingService) Stop() error {
	*r.log = append(*r.log, "stop "+r.name)
	return nil
}

// TestServiceRegistry_StartStopOrder starts in registration order and stops in reverse.
func TestServiceRegistry_StartStopOrder(t *testing.T) {
	var log []string
	sr := service_registry.NewServiceRegistry(nil, file.NewFileService(), zerolog.Nop())
	sr.RegisterService("a", &recordingService{name: "a", log: &log})
	sr.RegisterService("b", &recordingService{name: "b", log: &log})
	sr.RegisterService("a", &recordingService{name: "duplicate", log: &log})

	require.NoError(t, sr.StartServices())
	require.NoError(t, sr.StopServices())

	assert.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, log)
}

// TestServiceRegistry_StartRollback stops the started services when one fails.
func TestServiceRegistry_StartRollback(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	sr := service_registry.NewServiceRegistry(nil, file.NewFileService(), zerolog.Nop())
	sr.RegisterService("a", &recordingService{name: "a", log: &log})
	sr.RegisterService("b", &recordingService{name: "b", startErr: boom, log: &log})
	sr.RegisterService("c", &recordingService{name: "c", log: &log})

	err := sr.StartServices()

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"start a", "start b", "stop a"}, log)
}

func newManager() *session.Manager {
	return session.NewManager(session.Dependencies{
		Locator:    new(mocks.LocationProvider),
		Missions:   new(mocks.MissionCreator),
		Verifier:   new(mocks.EvidenceVerifier),
		Device:     new(mocks.Device),
		FileClient: file.NewFileService(),
	}, location.GeoFence{RadiusMeters: 1000}, true, 0, zerolog.Nop())
}

// TestServiceRegistry_RegisterServices registers only the enabled services.
func TestServiceRegistry_RegisterServices(t *testing.T) {
	config := &utils.Config{}
	config.StatusServer.Enabled = true
	config.StatusServer.Addr = "127.0.0.1:0"

	sr := service_registry.NewServiceRegistry(nil, file.NewFileService(), zerolog.Nop())
	require.NoError(t, sr.RegisterServices(config, new(mocks.UserInfo), newManager(), nil))
	assert.Equal(t, []string{"status_server", "mission"}, sr.Services())

	config.MQTT.Enabled = true
	config.MQTT.Topic = "missions/state"
	withMQTT := service_registry.NewServiceRegistry(new(mocks.MQTTClient), file.NewFileService(), zerolog.Nop())
	require.NoError(t, withMQTT.RegisterServices(config, new(mocks.UserInfo), newManager(), nil))
	assert.Equal(t, []string{"state_publisher", "status_server", "mission"}, withMQTT.Services())
}

// TestServiceRegistry_RegisterServices_MissingMQTTClient refuses to publish without a client.
func TestServiceRegistry_RegisterServices_MissingMQTTClient(t *testing.T) {
	config := &utils.Config{}
	config.MQTT.Enabled = true

	sr := service_registry.NewServiceRegistry(nil, file.NewFileService(), zerolog.Nop())

	assert.Error(t, sr.RegisterServices(config, new(mocks.UserInfo), newManager(), nil))
}
