package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/benmeehan/mission-agent/internal/clients"
	"github.com/benmeehan/mission-agent/internal/service_registry"
	"github.com/benmeehan/mission-agent/internal/services"
	"github.com/benmeehan/mission-agent/internal/session"
	"github.com/benmeehan/mission-agent/internal/utils"
	"github.com/benmeehan/mission-agent/pkg/camera"
	"github.com/benmeehan/mission-agent/pkg/file"
	http_utils "github.com/benmeehan/mission-agent/pkg/httpUtils"
	"github.com/benmeehan/mission-agent/pkg/identity"
	"github.com/benmeehan/mission-agent/pkg/location"
	"github.com/benmeehan/mission-agent/pkg/mqtt"
	"github.com/benmeehan/mission-agent/pkg/s3"
	"github.com/fraugster/cli"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// version is sent to the mission services with every request.
const version = "1.0.0"

const defaultGPSReadTimeout = 30 * time.Second

func main() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "mission-agent").Logger()

	configPath := os.Getenv("MISSION_AGENT_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	// Cancelled on SIGINT/SIGTERM
	if err := run(cli.Context(), configPath, logger); err != nil {
		logger.Fatal().Err(err).Msg("Mission agent stopped")
	}
}

// run wires the agent and blocks until ctx is cancelled. Every resource it
// opens is released before it returns.
func run(ctx context.Context, configPath string, logger zerolog.Logger) error {
	fileClient := file.NewFileService()

	config, err := utils.LoadConfig(configPath, fileClient)
	if err != nil {
		return fmt.Errorf("failed to load configuration %s: %w", configPath, err)
	}

	userInfo := identity.NewUserInfo(config.Identity.File, config.Identity.UserID, fileClient)
	if err := userInfo.LoadUserInfo(); err != nil {
		return fmt.Errorf("failed to load user identity: %w", err)
	}
	logger.Info().Str("user_id", userInfo.GetUserID()).Msg("User identity loaded")

	locator, err := newLocationProvider(config)
	if err != nil {
		return fmt.Errorf("failed to create location provider: %w", err)
	}
	defer locator.Close()

	constraint, err := http_utils.ParseConstraint(config.Services.APIVersion)
	if err != nil {
		return fmt.Errorf("invalid service API version constraint: %w", err)
	}
	httpClient := http_utils.NewClient(config.Services.RequestTimeout)
	missionClient := clients.NewMissionClient(clients.Options{
		BaseURL:       config.Services.MissionBaseURL,
		HTTPClient:    httpClient,
		APIConstraint: constraint,
		ClientVersion: version,
	}, logger)
	verificationClient := clients.NewVerificationClient(clients.Options{
		BaseURL:       config.Services.VerificationBaseURL,
		HTTPClient:    httpClient,
		APIConstraint: constraint,
		ClientVersion: version,
	}, fileClient, logger)

	manager := session.NewManager(session.Dependencies{
		Locator:    locator,
		Missions:   missionClient,
		Verifier:   verificationClient,
		Device:     newCaptureDevice(config),
		FileClient: fileClient,
	}, config.Site.Fence, config.Services.EnforceValidityWindow, config.Runner.Retain, logger)

	var mqttClient mqtt.MQTTClient
	if config.MQTT.Enabled {
		// Generate a unique MQTT Client ID by appending a UUID
		clientID := config.MQTT.ClientID + "-" + uuid.NewString()
		logger.Info().Str("client_id", clientID).Msg("Using MQTT Client ID")

		mqttService := mqtt.NewMqttService(fileClient)
		if err := mqttService.Initialize(config.MQTT.Broker, clientID, config.MQTT.CACertificate); err != nil {
			return fmt.Errorf("failed to initialize MQTT connection: %w", err)
		}
		defer mqttService.Disconnect(250)
		mqttClient = mqttService
	}

	archive, err := newEvidenceArchive(ctx, config, fileClient, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to evidence archive: %w", err)
	}

	serviceRegistry := service_registry.NewServiceRegistry(mqttClient, fileClient, logger)
	if err := serviceRegistry.RegisterServices(config, userInfo, manager, archive); err != nil {
		return fmt.Errorf("failed to register services: %w", err)
	}
	if err := serviceRegistry.StartServices(); err != nil {
		return fmt.Errorf("failed to start services: %w", err)
	}
	logger.Info().Msg("All services started successfully")

	<-ctx.Done()

	logger.Info().Msg("Shutting down gracefully...")
	if err := serviceRegistry.StopServices(); err != nil {
		logger.Error().Err(err).Msg("Some services did not stop cleanly")
	}
	return nil
}

func newLocationProvider(config *utils.Config) (location.Provider, error) {
	switch config.Location.Provider {
	case utils.LocationProviderGPS:
		timeout := config.Location.GPSReadTimeout
		if timeout <= 0 {
			timeout = defaultGPSReadTimeout
		}
		return location.NewDeviceSensorProvider(config.Location.GPSDevicePort, config.Location.GPSBaudRate, timeout), nil
	case utils.LocationProviderGoogle:
		return location.NewGoogleGeolocationProvider(config.Location.MapsAPIKey, config.Location.ModemIndex, config.Services.RequestTimeout)
	case utils.LocationProviderStatic:
		return location.NewStaticProvider(config.Location.Static), nil
	}
	return nil, fmt.Errorf("unknown location provider %q", config.Location.Provider)
}

func newCaptureDevice(config *utils.Config) camera.Device {
	if config.Camera.Mode == utils.CameraModeFile {
		return camera.NewFileDevice(config.Camera.Source, config.Camera.OutputDir)
	}
	return camera.NewCommandDevice(config.Camera.Command, config.Camera.OutputDir)
}

func newEvidenceArchive(ctx context.Context, config *utils.Config, fileClient file.FileOperations,
	logger zerolog.Logger) (*services.EvidenceArchive, error) {
	if !config.Archive.Enabled {
		return nil, nil
	}

	storage := s3.NewObjectStorage("")
	err := storage.Connect(ctx, config.Archive.Endpoint, config.Archive.AccessKeyID, config.Archive.SecretAccessKey, config.Archive.UseSSL)
	if err != nil {
		return nil, err
	}
	return services.NewEvidenceArchive(storage, fileClient, config.Archive.Bucket, config.Archive.Prefix, logger), nil
}
